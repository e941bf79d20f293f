package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper removes stale entries older than maxAge and reports how many
type Sweeper interface {
	SweepExpired(maxAge time.Duration) int
}

// SweepManager periodically evicts stale failed-login records
type SweepManager struct {
	sweeper  Sweeper
	logger   *slog.Logger
	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSweepManager creates a new sweep manager
func NewSweepManager(sweeper Sweeper, logger *slog.Logger, interval, maxAge time.Duration) *SweepManager {
	return &SweepManager{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or ctx is cancelled
func (sm *SweepManager) Start(ctx context.Context) {
	ticker := time.NewTicker(sm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.runSweep()
		case <-sm.stopCh:
			sm.logger.Info("sweep manager stopped")
			return
		case <-ctx.Done():
			sm.logger.Info("sweep manager context cancelled")
			return
		}
	}
}

func (sm *SweepManager) runSweep() {
	removed := sm.sweeper.SweepExpired(sm.maxAge)
	if removed > 0 {
		sm.logger.Debug("stale login attempt records removed", slog.Int("removed", removed))
	}
}

// Stop signals the sweep manager to stop. Safe to call more than once.
func (sm *SweepManager) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopCh)
	})
}
