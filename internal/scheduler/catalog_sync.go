package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/logger"
)

// Syncable re-reads every known date into the tag catalogs
type Syncable interface {
	SyncAll(ctx context.Context) (int, error)
}

// CatalogSyncer periodically re-syncs tag catalogs so entries written by
// other processes show up in collections.
type CatalogSyncer struct {
	target   Syncable
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCatalogSyncer creates a syncer; interval <= 0 disables the loop
func NewCatalogSyncer(target Syncable, log logger.Logger, interval time.Duration) *CatalogSyncer {
	return &CatalogSyncer{
		target:   target,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic loop
func (cs *CatalogSyncer) Start(ctx context.Context) error {
	if cs.interval <= 0 {
		cs.logger.Info("periodic catalog sync disabled")
		return nil
	}

	ticker := time.NewTicker(cs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cs.Sync(ctx); err != nil {
					cs.logger.Error("catalog sync failed", logger.Error(err))
				}
			case <-cs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the loop
func (cs *CatalogSyncer) Stop() {
	close(cs.stopCh)
}

// Sync runs one pass
func (cs *CatalogSyncer) Sync(ctx context.Context) error {
	start := time.Now()
	dates, err := cs.target.SyncAll(ctx)
	if err != nil {
		return err
	}

	cs.logger.Debug("catalogs synced",
		logger.Int("dates", dates),
		logger.Duration("took", time.Since(start)))
	return nil
}
