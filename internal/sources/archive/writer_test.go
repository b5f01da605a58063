package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

func TestWriteFileThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.yaml")
	groups := []OwnerEntries{
		{
			Owner: "alice",
			Entries: []domain.DiaryEntry{
				{Date: "2024-01-05", Content: "#work\nfixed bug\n#home\ncleaned", Exists: true},
				{Date: "2024-01-06", Exists: false},
			},
		},
	}

	if err := WriteFile(path, Build(groups)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	file, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	back, skipped := NewMapper().MapEntries(file)
	if len(skipped) != 0 {
		t.Errorf("skipped = %v", skipped)
	}
	if len(back) != 1 || len(back[0].Entries) != 1 {
		t.Fatalf("reloaded = %+v, want the single existing entry", back)
	}
	if back[0].Entries[0] != groups[0].Entries[0] {
		t.Errorf("reloaded entry = %+v, want %+v", back[0].Entries[0], groups[0].Entries[0])
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".archive-*"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "export.yaml")
	if err := WriteFile(path, File{}); err == nil {
		t.Fatal("WriteFile() into a missing directory should fail")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("unexpected file at %s", path)
	}
}
