package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler triggers refreshes on a fixed interval. On-demand refreshes from
// the HTTP layer share the engine's coalesced path, so a tick and a request
// never run two cycles at once.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that refreshes the engine at the given
// interval.
func NewScheduler(e *Engine, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:   e,
		interval: interval,
		logger:   logger,
	}
}

// Start begins periodic refresh. It runs an initial refresh immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current refresh (if any) to
// finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	// Run once immediately at startup.
	s.refreshOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshOnce(ctx)
		}
	}
}

func (s *Scheduler) refreshOnce(ctx context.Context) {
	if _, err := s.engine.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("refresh failed", "err", err)
	}
}
