package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"watchly/internal/core"
)

// ErrTickInProgress is returned when a tick is requested while one is running
var ErrTickInProgress = core.NewConflictError("a monitoring tick is already in progress", nil)

// Scheduler states
const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// TickFunc is one orchestration pass. ctx carries the tick id.
type TickFunc func(ctx context.Context) error

// Scheduler fires a TickFunc at a fixed interval and guarantees that at most
// one tick executes at a time. A tick that comes due while another is
// running is dropped, not queued.
type Scheduler struct {
	tick    TickFunc
	logger  *core.Logger
	metrics *core.Metrics

	busy atomic.Bool

	mu       sync.Mutex
	stopChan chan struct{}
	loopWG   sync.WaitGroup
	tickWG   sync.WaitGroup
}

func NewScheduler(tick TickFunc, logger *core.Logger, metrics *core.Metrics) *Scheduler {
	return &Scheduler{
		tick:    tick,
		logger:  logger,
		metrics: metrics,
	}
}

// Start begins ticking every interval. The first tick fires immediately.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return core.NewValidationError(fmt.Sprintf("tick interval must be positive, got %s", interval), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopChan != nil {
		return core.NewConflictError("scheduler already started", nil)
	}
	s.stopChan = make(chan struct{})

	s.logger.Info("Starting monitoring scheduler", "interval", interval)

	s.loopWG.Add(1)
	go s.loop(ctx, interval, s.stopChan)

	return nil
}

// Stop halts the ticker and waits for an in-flight tick to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	stopChan := s.stopChan
	s.stopChan = nil
	s.mu.Unlock()

	if stopChan != nil {
		s.logger.Info("Stopping monitoring scheduler")
		close(stopChan)
	}
	s.loopWG.Wait()
	s.tickWG.Wait()
}

// clearStop forgets stopChan if it is still the active loop's channel
func (s *Scheduler) clearStop(stopChan chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopChan == stopChan {
		s.stopChan = nil
	}
}

// Running reports whether the ticker loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopChan != nil
}

// State reports whether a tick is currently executing
func (s *Scheduler) State() string {
	if s.busy.Load() {
		return StateRunning
	}
	return StateIdle
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, stopChan chan struct{}) {
	defer s.loopWG.Done()
	defer s.clearStop(stopChan)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.fire(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled")
			return
		case <-stopChan:
			s.logger.Info("Scheduler stop signal received")
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

// fire launches a tick in the background unless one is already running, so
// a slow tick never delays the ticker itself.
func (s *Scheduler) fire(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.Inc(CounterTicksSkipped)
		s.logger.Warn("Previous tick still running, skipping this tick")
		return
	}

	s.tickWG.Add(1)
	go func() {
		defer s.tickWG.Done()
		defer s.busy.Store(false)
		// a started tick runs to completion even if the scheduler stops
		s.run(context.WithoutCancel(ctx), s.tick)
	}()
}

// TryRun runs fn as a tick on the caller's goroutine under the same guard.
// It returns false without running fn when another tick is in flight. The
// tick ignores cancellation of ctx, like a scheduled one.
func (s *Scheduler) TryRun(ctx context.Context, fn TickFunc) (bool, error) {
	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.Inc(CounterTicksSkipped)
		return false, nil
	}
	defer s.busy.Store(false)

	return true, s.run(context.WithoutCancel(ctx), fn)
}

func (s *Scheduler) run(ctx context.Context, fn TickFunc) (err error) {
	tickID := uuid.NewString()
	ctx = core.ContextWithTickID(ctx, tickID)
	logger := s.logger.WithContext(ctx)

	s.metrics.Inc(CounterTicksStarted)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = core.NewInternalError(fmt.Sprintf("tick panicked: %v", r), nil)
		}
		if err != nil {
			s.metrics.Inc(CounterTicksFailed)
			logger.Error("Tick failed", "duration", time.Since(start), "error", err)
			return
		}
		logger.Debug("Tick finished", "duration", time.Since(start))
	}()

	return fn(ctx)
}

// IsTickInProgress reports whether err means a tick was refused as busy
func IsTickInProgress(err error) bool {
	return errors.Is(err, ErrTickInProgress)
}
