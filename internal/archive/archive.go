// Package archive periodically exports the published snapshot to external
// destinations (S3). A failed export never disturbs the serving snapshot;
// the next tick simply tries again.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oakhamlabs/waypost/internal/snapshot"
)

// Source provides the snapshot to archive. The engine satisfies this.
type Source interface {
	Snapshot() (*snapshot.Snapshot, error)
}

// Destination is the interface for an archive target (S3, etc.).
type Destination interface {
	// Write sends the JSON payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic archives to one or more destinations.
type Scheduler struct {
	source       Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports the source's snapshot to the
// given destinations on a fixed interval.
func NewScheduler(source Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		source:       source,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic archiving. It runs an initial export immediately,
// then on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	// Run once immediately at startup.
	s.archiveOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.archiveOnce(ctx)
		}
	}
}

func (s *Scheduler) archiveOnce(ctx context.Context) {
	snap, err := s.source.Snapshot()
	if errors.Is(err, snapshot.ErrNotReady) {
		s.logger.Debug("no snapshot to archive yet")
		return
	}
	if err != nil {
		s.logger.Error("archive snapshot read failed", "err", err)
		return
	}

	var buf bytes.Buffer
	if err := Export(&buf, snap); err != nil {
		s.logger.Error("archive export failed", "err", err)
		return
	}
	data := buf.Bytes()

	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			s.logger.Error("archive destination write failed", "destination", fmt.Sprintf("%d", i), "err", err)
		}
	}

	s.logger.Info("archive completed", "snapshot_id", snap.ID, "destinations", len(s.destinations), "bytes", len(data))
}
