package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"jpeg_swap/internal/app/port"
	"jpeg_swap/internal/pkg/metrics"
)

var (
	ErrAlreadyRunning  = errors.New("scheduler already running")
	ErrInvalidInterval = errors.New("scheduler interval must be positive")
)

// Task is one refresh pass. It must return once ctx is done.
type Task func(ctx context.Context)

// Scheduler re-runs a task on a fixed period until stopped. Runs never overlap:
// a tick that fires while the task is still running is dropped.
type Scheduler struct {
	interval time.Duration
	task     Task
	logger   port.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped scheduler.
func New(interval time.Duration, task Task, logger port.Logger) *Scheduler {
	return &Scheduler{interval: interval, task: task, logger: logger}
}

// Start begins ticking. The first run happens one interval after Start.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(runCtx, done)
	s.logger.Debug("Refresh scheduler started", "interval", s.interval)
	return nil
}

// Stop cancels the loop and any in-flight run, and waits for it to exit.
// Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Debug("Refresh scheduler stopped")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RefreshTicks.Inc()
			s.task(ctx)
		}
	}
}
