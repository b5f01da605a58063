package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoaderLoad(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "archive.yaml")

	yamlContent := `---
- owner: alice
  entries:
    - date: "2024-01-05"
      content: |-
        #work
        fixed bug
        #home
        cleaned
    - date: "2024-1-6"
      content: ""
`

	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}

	loader := NewLoader(yamlPath)
	file, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(file) != 1 || len(file[0].Entries) != 2 {
		t.Fatalf("Load() = %+v, want one group with two entries", file)
	}
	if got := file[0].Entries[0].Content; got != "#work\nfixed bug\n#home\ncleaned" {
		t.Errorf("content = %q", got)
	}
}

func TestLoaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file", content: nil},
		{name: "invalid yaml", content: ptr("- owner: [unclosed\n")},
		{name: "wrong shape", content: ptr("owner: alice\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "archive.yaml")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
			if _, err := NewLoader(path).Load(); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	file, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(file) != 0 {
		t.Errorf("Decode() = %+v, want empty archive", file)
	}
}

func ptr(s string) *string { return &s }
