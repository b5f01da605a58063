package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/daylog/internal/logger"
)

// DefaultIdleTTL is how long an untouched workspace survives
const DefaultIdleTTL = 30 * time.Minute

// Evictor flushes and drops workspaces idle since before cutoff
type Evictor interface {
	EvictIdle(ctx context.Context, cutoff time.Time) (int, error)
}

// SessionReaper evicts idle editing workspaces. Pending edits are flushed
// first; a workspace whose flush fails is kept for the next pass.
type SessionReaper struct {
	target   Evictor
	logger   logger.Logger
	interval time.Duration
	ttl      time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewSessionReaper creates a reaper
func NewSessionReaper(target Evictor, log logger.Logger, interval, ttl time.Duration) *SessionReaper {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	if interval <= 0 {
		interval = ttl / 2
	}

	return &SessionReaper{
		target:   target,
		logger:   log,
		interval: interval,
		ttl:      ttl,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (sr *SessionReaper) Start(ctx context.Context) error {
	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sr.Reap(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reaper
func (sr *SessionReaper) Stop() {
	close(sr.stopCh)
}

// Reap runs one sweep and returns the number of evicted workspaces
func (sr *SessionReaper) Reap(ctx context.Context) int {
	cutoff := sr.now().Add(-sr.ttl)

	evicted, err := sr.target.EvictIdle(ctx, cutoff)
	if err != nil {
		sr.logger.Warn("some idle sessions could not be flushed",
			logger.Error(err))
	}

	if evicted > 0 {
		sr.logger.Info("idle sessions reaped",
			logger.Int("evicted", evicted),
			logger.Duration("ttl", sr.ttl))
	} else {
		sr.logger.Debug("no idle sessions to reap")
	}

	return evicted
}
