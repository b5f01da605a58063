package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/config"
	"github.com/MrSnakeDoc/daylog/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenPort:           "127.0.0.1:0",
		ShutdownTimeout:      time.Second,
		LogLevel:             "error",
		Store:                config.StoreMemory,
		AutosaveCooldown:     time.Hour,
		SessionIdleTTL:       time.Minute,
		SessionSweepInterval: time.Minute,
		RateBurst:            10,
		RatePerMin:           10,
	}
}

func TestNewWiresJobs(t *testing.T) {
	tests := []struct {
		name     string
		archive  string
		wantJobs int
	}{
		{name: "without archive", wantJobs: 2},
		{name: "with archive", archive: "archive.yaml", wantJobs: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ArchiveFile = tt.archive

			a, err := New(context.Background(), cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if len(a.jobs) != tt.wantJobs {
				t.Errorf("jobs = %d, want %d", len(a.jobs), tt.wantJobs)
			}
			if a.backend.Name() != "memory" {
				t.Errorf("backend = %s", a.backend.Name())
			}
		})
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Store = "etcd"

	if _, err := New(context.Background(), cfg); !errors.Is(err, domain.ErrUnknownBackend) {
		t.Errorf("New() error = %v, want ErrUnknownBackend", err)
	}
}

func TestShutdownFlushesSessions(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()
	today := domain.Today()

	if _, err := a.workspaces.Edit(ctx, "alice", today, "unsaved"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if err := a.shutdown(); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}

	got, err := a.backend.Get(ctx, "alice", today)
	if err != nil || got == nil || got.Content != "unsaved" {
		t.Errorf("entry after shutdown = %+v, %v", got, err)
	}
}
