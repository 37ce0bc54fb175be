package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultInterval is how often the sweeper wakes up between sweeps.
const DefaultInterval = time.Hour

// DeleteStore is the single primary-store primitive the sweeper needs.
type DeleteStore interface {
	DeleteOlderThan(ctx context.Context, cutoffTs int64) (int, error)
}

// Sweeper deletes expired entries on a fixed schedule.
//
// A retention period of zero means keep forever: every sweep is a pure no-op
// that never touches storage. Sweep errors are logged and reported as zero
// deletions; they never stop future ticks.
type Sweeper struct {
	store     DeleteStore
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger

	// sem serializes sweeps on one store handle. A tick that finds a
	// sweep still in flight is skipped, not queued.
	sem *semaphore.Weighted

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a stopped sweeper. A non-positive interval means
// DefaultInterval. A nil logger defaults to slog.Default().
func New(store DeleteStore, retention, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:     store,
		retention: retention,
		interval:  interval,
		logger:    logger,
		sem:       semaphore.NewWeighted(1),
	}
}

// Start runs one sweep synchronously, then schedules recurring sweeps.
// Starting a running sweeper is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	// The cancellable context governs scheduling only: sweeps run under
	// Background so stopping never aborts an in-flight deletion.
	s.Sweep(context.Background())

	go s.loop(ctx, done)
}

// Stop cancels future ticks and waits for any in-flight sweep to finish.
// Stopping a stopped sweeper is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the sweeper is scheduled.
func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep runs one deletion pass and returns how many entries were removed.
// With retention zero it returns 0 without touching storage. Storage errors
// are logged and reported as 0.
func (s *Sweeper) Sweep(ctx context.Context) int {
	if s.retention == 0 {
		return 0
	}

	if !s.sem.TryAcquire(1) {
		return 0 // a sweep is already in flight on this handle
	}
	defer s.sem.Release(1)

	cutoff := time.Now().Add(-s.retention).UnixMilli()
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed", "cutoff", cutoff, "error", err)
		return 0
	}
	if deleted > 0 {
		s.logger.Info("retention sweep removed expired entries",
			"deleted", deleted, "cutoff", cutoff)
	}
	return deleted
}
