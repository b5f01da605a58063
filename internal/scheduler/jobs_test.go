package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

type fakeEvictor struct {
	cutoff  time.Time
	evicted int
	err     error
}

func (f *fakeEvictor) EvictIdle(_ context.Context, cutoff time.Time) (int, error) {
	f.cutoff = cutoff
	return f.evicted, f.err
}

func TestSessionReaper_Reap(t *testing.T) {
	tests := []struct {
		name    string
		evicted int
		err     error
		want    int
	}{
		{name: "nothing idle", evicted: 0, want: 0},
		{name: "two evicted", evicted: 2, want: 2},
		{name: "partial failure still counts", evicted: 1, err: errors.New("flush failed"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakeEvictor{evicted: tt.evicted, err: tt.err}
			reaper := NewSessionReaper(target, logger.New("error", false), time.Minute, 30*time.Minute)
			now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
			reaper.now = func() time.Time { return now }

			if got := reaper.Reap(context.Background()); got != tt.want {
				t.Errorf("Reap() = %d, want %d", got, tt.want)
			}
			if want := now.Add(-30 * time.Minute); !target.cutoff.Equal(want) {
				t.Errorf("cutoff = %v, want %v", target.cutoff, want)
			}
		})
	}
}

func TestSessionReaper_Defaults(t *testing.T) {
	reaper := NewSessionReaper(&fakeEvictor{}, logger.New("error", false), 0, 0)
	if reaper.ttl != DefaultIdleTTL {
		t.Errorf("ttl = %v, want %v", reaper.ttl, DefaultIdleTTL)
	}
	if reaper.interval != DefaultIdleTTL/2 {
		t.Errorf("interval = %v, want %v", reaper.interval, DefaultIdleTTL/2)
	}
}

type fakeSyncable struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSyncable) SyncAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 3, f.err
}

func (f *fakeSyncable) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCatalogSyncer(t *testing.T) {
	target := &fakeSyncable{}
	cs := NewCatalogSyncer(target, logger.New("error", false), 10*time.Millisecond)

	if err := cs.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if err := cs.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, "periodic sync", func() bool { return target.count() >= 3 })
	cs.Stop()

	target.mu.Lock()
	target.err = errors.New("store down")
	target.mu.Unlock()
	if err := cs.Sync(context.Background()); err == nil {
		t.Error("Sync() should surface the target error")
	}
}

func TestCatalogSyncerDisabled(t *testing.T) {
	target := &fakeSyncable{}
	cs := NewCatalogSyncer(target, logger.New("error", false), 0)
	if err := cs.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if target.count() != 0 {
		t.Errorf("disabled syncer ran %d times", target.count())
	}
}

type fakeImporter struct {
	mu      sync.Mutex
	byOwner map[domain.Owner][]domain.DiaryEntry
	failFor domain.Owner
}

func (f *fakeImporter) ImportEntries(_ context.Context, owner domain.Owner, entries []domain.DiaryEntry) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if owner == f.failFor {
		return 0, domain.ErrStoreUnavailable
	}
	if f.byOwner == nil {
		f.byOwner = make(map[domain.Owner][]domain.DiaryEntry)
	}
	f.byOwner[owner] = append(f.byOwner[owner], entries...)
	return len(entries), nil
}

func (f *fakeImporter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.byOwner {
		n += len(e)
	}
	return n
}

const testArchive = `
- owner: alice
  entries:
    - date: "2024-01-05"
      content: "#work\nfixed bug"
    - date: "2024-02-30"
      content: "impossible day"
- owner: bob
  entries:
    - date: "2023-12-31"
      content: "#home\nparty"
`

func writeArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.yaml")
	if err := os.WriteFile(path, []byte(testArchive), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func TestArchiveImporter_Import(t *testing.T) {
	target := &fakeImporter{}
	ai := NewArchiveImporter(writeArchive(t), target, logger.New("error", false), 0, nil)

	res, err := ai.Import(context.Background())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Owners != 2 || res.Imported != 2 || res.Skipped != 1 {
		t.Errorf("Import() = %+v, want 2 owners, 2 imported, 1 skipped", res)
	}
	if got := target.byOwner["alice"]; len(got) != 1 || got[0].Content != "#work\nfixed bug" {
		t.Errorf("alice entries = %+v", got)
	}
}

func TestArchiveImporter_ImportFailure(t *testing.T) {
	target := &fakeImporter{failFor: "bob"}
	ai := NewArchiveImporter(writeArchive(t), target, logger.New("error", false), 0, nil)

	res, err := ai.Import(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("Import() error = %v, want ErrStoreUnavailable", err)
	}
	if res.Imported != 1 {
		t.Errorf("Imported = %d, want alice's entry counted before the failure", res.Imported)
	}
}

func TestArchiveImporter_StartAndTrigger(t *testing.T) {
	target := &fakeImporter{}
	trigger := make(chan struct{}, 1)
	ai := NewArchiveImporter(writeArchive(t), target, logger.New("error", false), 0, trigger)

	if err := ai.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer ai.Stop()

	if target.total() != 2 {
		t.Fatalf("initial import wrote %d entries, want 2", target.total())
	}

	trigger <- struct{}{}
	waitFor(t, "manual import", func() bool { return target.total() == 4 })
}

func TestArchiveImporter_StartMissingFile(t *testing.T) {
	ai := NewArchiveImporter(filepath.Join(t.TempDir(), "none.yaml"), &fakeImporter{}, logger.New("error", false), 0, nil)
	if err := ai.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the archive cannot be read")
	}
}
