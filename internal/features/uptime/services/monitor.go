package services

import (
	"context"
	"sync"
	"time"

	"watchly/internal/core"
	"watchly/internal/features/uptime/models"
)

// Store is everything the engine consumes from persistence
type Store interface {
	MetricWriter
	AlertStore
	ListWebsites(ctx context.Context) ([]models.Website, error)
}

// TickReport summarizes one orchestration pass
type TickReport struct {
	TickID         string    `json:"tick_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Websites       int       `json:"websites"`
	Up             int       `json:"up"`
	Down           int       `json:"down"`
	MetricsWritten int       `json:"metrics_written"`
	AlertsCreated  int       `json:"alerts_created"`
	AlertsResolved int       `json:"alerts_resolved"`
	Notifications  int       `json:"notifications"`
	Skipped        int       `json:"skipped"`
	Err            string    `json:"error,omitempty"`
}

// Monitor composes the engine: list websites, probe them, record the
// results, evaluate alerts and hand notifications to the dispatcher.
type Monitor struct {
	store      Store
	prober     *Prober
	recorder   *Recorder
	evaluator  *Evaluator
	notifier   *Notifier
	dispatcher *Dispatcher
	scheduler  *Scheduler
	logger     *core.Logger
	metrics    *core.Metrics

	mu         sync.RWMutex
	config     core.MonitorConfig
	lastReport *TickReport
}

// NewMonitor wires the engine around store and sender
func NewMonitor(store Store, sender Sender, config core.MonitorConfig, logger *core.Logger, metrics *core.Metrics) *Monitor {
	notifier := NewNotifier(sender, logger, metrics, config.MaxNotifyAttempts, config.BackoffBase())

	m := &Monitor{
		store:      store,
		prober:     NewProber(logger, config.ProbeTimeout(), config.MaxConcurrentProbes),
		recorder:   NewRecorder(store, logger),
		evaluator:  NewEvaluator(store, logger),
		notifier:   notifier,
		dispatcher: NewDispatcher(notifier.Notify, logger),
		logger:     logger,
		metrics:    metrics,
		config:     config,
	}
	m.scheduler = NewScheduler(func(ctx context.Context) error {
		_, err := m.RunTick(ctx)
		return err
	}, logger, metrics)

	return m
}

// Start begins periodic ticking. A non-positive intervalSeconds uses the
// configured tick interval.
func (m *Monitor) Start(ctx context.Context, intervalSeconds int) error {
	interval := time.Duration(intervalSeconds) * time.Second
	if intervalSeconds <= 0 {
		m.mu.RLock()
		interval = m.config.TickInterval()
		m.mu.RUnlock()
	}
	return m.scheduler.Start(ctx, interval)
}

// Trigger runs one tick now on the caller's goroutine. It returns
// ErrTickInProgress if a tick is already executing.
func (m *Monitor) Trigger(ctx context.Context) (*TickReport, error) {
	var report *TickReport
	ran, err := m.scheduler.TryRun(ctx, func(ctx context.Context) error {
		var tickErr error
		report, tickErr = m.RunTick(ctx)
		return tickErr
	})
	if !ran {
		return nil, ErrTickInProgress
	}
	return report, err
}

// RunTick executes one orchestration pass. Notifications are dispatched in
// the background and are not awaited. A failed metric write aborts the tick
// before alert evaluation.
func (m *Monitor) RunTick(ctx context.Context) (*TickReport, error) {
	report := &TickReport{StartedAt: time.Now()}
	if tickID, ok := core.TickIDFromContext(ctx); ok {
		report.TickID = tickID
	}
	logger := m.logger.WithContext(ctx)

	finish := func(err error) (*TickReport, error) {
		report.FinishedAt = time.Now()
		if err != nil {
			report.Err = err.Error()
		}
		m.mu.Lock()
		m.lastReport = report
		m.mu.Unlock()
		return report, err
	}

	websites, err := m.store.ListWebsites(ctx)
	if err != nil {
		logger.Error("Failed to list websites", "error", err)
		return finish(err)
	}
	report.Websites = len(websites)

	if len(websites) == 0 {
		logger.Info("No websites to monitor")
		return finish(nil)
	}

	logger.Info("Starting monitoring tick", "websites", len(websites))

	results := m.prober.ProbeAll(ctx, websites)
	for _, result := range results {
		if result.IsUp() {
			report.Up++
		} else {
			report.Down++
		}
	}
	m.metrics.Add(CounterProbesUp, float64(report.Up))
	m.metrics.Add(CounterProbesDown, float64(report.Down))

	if err := m.recorder.Record(ctx, results); err != nil {
		logger.Error("Skipping alert evaluation, metrics were not persisted", "error", err)
		return finish(err)
	}
	report.MetricsWritten = len(results)
	m.metrics.Add(CounterMetricsWritten, float64(len(results)))

	evaluations := m.evaluator.EvaluateAll(ctx, results, func(n Notification) {
		m.dispatcher.Dispatch(ctx, n)
	})

	for _, evaluation := range evaluations {
		switch evaluation.Transition {
		case TransitionCreated:
			report.AlertsCreated++
		case TransitionResolved:
			report.AlertsResolved++
		case TransitionSkipped, TransitionFailed:
			report.Skipped++
		}
		if evaluation.Notification != nil {
			report.Notifications++
		}
	}
	m.metrics.Add(CounterAlertsCreated, float64(report.AlertsCreated))
	m.metrics.Add(CounterAlertsResolved, float64(report.AlertsResolved))

	logger.Info("Monitoring tick complete",
		"websites", report.Websites,
		"up", report.Up,
		"down", report.Down,
		"alerts_created", report.AlertsCreated,
		"alerts_resolved", report.AlertsResolved,
		"skipped", report.Skipped)

	return finish(nil)
}

// ApplyConfig swaps the probe and notification tunables. They apply from
// the next tick; the tick interval only changes on restart.
func (m *Monitor) ApplyConfig(config core.MonitorConfig) {
	m.mu.Lock()
	m.config = config
	m.mu.Unlock()

	m.prober.SetLimits(config.ProbeTimeout(), config.MaxConcurrentProbes)
	m.notifier.SetPolicy(config.MaxNotifyAttempts, config.BackoffBase())

	m.logger.Info("Applied monitor config",
		"probe_timeout", config.ProbeTimeout(),
		"max_concurrent_probes", config.MaxConcurrentProbes,
		"max_notify_attempts", config.MaxNotifyAttempts,
		"backoff_base", config.BackoffBase())
}

// Config returns the active monitor configuration
func (m *Monitor) Config() core.MonitorConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// LastReport returns the most recent tick report, or nil before the first tick
func (m *Monitor) LastReport() *TickReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}

// State reports the scheduler state: idle or running
func (m *Monitor) State() string {
	return m.scheduler.State()
}

// Running reports whether periodic ticking is active
func (m *Monitor) Running() bool {
	return m.scheduler.Running()
}

// WaitForNotifications blocks until every dispatched notification finishes
func (m *Monitor) WaitForNotifications() {
	m.dispatcher.Wait()
}

// Stop halts ticking, waits for the in-flight tick, then drains
// notifications until ctx expires.
func (m *Monitor) Stop(ctx context.Context) error {
	m.scheduler.Stop()
	return m.dispatcher.Close(ctx)
}
