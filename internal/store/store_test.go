package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/daylog/internal/config"
	"github.com/MrSnakeDoc/daylog/internal/domain"
	"github.com/MrSnakeDoc/daylog/internal/logger"
)

// backendsUnderTest opens every backend that works without a network
func backendsUnderTest(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()
	log := logger.Nop()
	ctx := context.Background()

	cfgs := []*config.Config{
		{Store: config.StoreMemory},
		{Store: config.StoreDisk, DiskPath: filepath.Join(dir, "disk"), DiskCacheBytes: 1 << 16},
		{Store: config.StoreSQLite, SQLitePath: filepath.Join(dir, "daylog.db")},
	}

	out := make(map[string]Backend, len(cfgs))
	for _, cfg := range cfgs {
		b, err := Open(ctx, cfg, log)
		if err != nil {
			t.Fatalf("Open(%s) error = %v", cfg.Store, err)
		}
		t.Cleanup(func() { _ = b.Close() })
		out[b.Name()] = b
	}
	return out
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: "etcd"}, logger.Nop())
	if !errors.Is(err, domain.ErrUnknownBackend) {
		t.Fatalf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestBackendContract(t *testing.T) {
	ctx := context.Background()
	alice := domain.Owner("alice")
	bob := domain.Owner("bob")

	for name, b := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("absent entry", func(t *testing.T) {
				got, err := b.Get(ctx, alice, "2024-01-05")
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if got != nil {
					t.Fatalf("Get() = %+v, want nil for a missing entry", got)
				}
			})

			t.Run("round trip", func(t *testing.T) {
				content := "#work\nfixed bug\n#home\ncleaned"
				if err := b.Put(ctx, alice, "2024-01-05", content); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
				got, err := b.Get(ctx, alice, "2024-01-05")
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if got == nil || got.Content != content || !got.Exists {
					t.Fatalf("Get() = %+v, want content %q", got, content)
				}
			})

			t.Run("empty content is not absence", func(t *testing.T) {
				if err := b.Put(ctx, alice, "2024-01-06", ""); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
				got, err := b.Get(ctx, alice, "2024-01-06")
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if got == nil || got.Content != "" {
					t.Fatalf("Get() = %+v, want an existing empty entry", got)
				}
			})

			t.Run("overwrite is idempotent", func(t *testing.T) {
				for i := 0; i < 2; i++ {
					if err := b.Put(ctx, alice, "2024-02-01", "same"); err != nil {
						t.Fatalf("Put() error = %v", err)
					}
				}
				got, _ := b.Get(ctx, alice, "2024-02-01")
				if got == nil || got.Content != "same" {
					t.Fatalf("Get() = %+v, want %q", got, "same")
				}
			})

			t.Run("owners are isolated", func(t *testing.T) {
				got, err := b.Get(ctx, bob, "2024-01-05")
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if got != nil {
					t.Fatalf("bob sees alice's entry: %+v", got)
				}
			})

			t.Run("dates sorted chronologically", func(t *testing.T) {
				if err := b.Put(ctx, alice, "2023-12-31", "nye"); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
				dates, err := b.Dates(ctx, alice)
				if err != nil {
					t.Fatalf("Dates() error = %v", err)
				}
				want := []domain.DateKey{"2023-12-31", "2024-01-05", "2024-01-06", "2024-02-01"}
				if len(dates) != len(want) {
					t.Fatalf("Dates() = %v, want %v", dates, want)
				}
				for i := range want {
					if dates[i] != want[i] {
						t.Errorf("Dates()[%d] = %s, want %s", i, dates[i], want[i])
					}
				}
			})

			t.Run("unpadded date is stored canonically", func(t *testing.T) {
				if err := b.Put(ctx, bob, "2024-3-7", "spring"); err != nil {
					t.Fatalf("Put() error = %v", err)
				}
				got, err := b.Get(ctx, bob, "2024-03-07")
				if err != nil {
					t.Fatalf("Get() error = %v", err)
				}
				if got == nil || got.Content != "spring" || got.Date != "2024-03-07" {
					t.Fatalf("Get() = %+v, want canonical entry", got)
				}
				dates, err := b.Dates(ctx, bob)
				if err != nil {
					t.Fatalf("Dates() error = %v", err)
				}
				if len(dates) != 1 || dates[0] != "2024-03-07" {
					t.Errorf("Dates() = %v, want [2024-03-07]", dates)
				}
			})

			t.Run("missing owner", func(t *testing.T) {
				if _, err := b.Get(ctx, "", "2024-01-05"); !errors.Is(err, domain.ErrNotAuthenticated) {
					t.Errorf("Get() error = %v, want ErrNotAuthenticated", err)
				}
				if err := b.Put(ctx, "", "2024-01-05", "x"); !errors.Is(err, domain.ErrNotAuthenticated) {
					t.Errorf("Put() error = %v, want ErrNotAuthenticated", err)
				}
				if _, err := b.Dates(ctx, ""); !errors.Is(err, domain.ErrNotAuthenticated) {
					t.Errorf("Dates() error = %v, want ErrNotAuthenticated", err)
				}
			})

			t.Run("ping", func(t *testing.T) {
				if err := b.Ping(ctx); err != nil {
					t.Errorf("Ping() error = %v", err)
				}
			})
		})
	}
}
