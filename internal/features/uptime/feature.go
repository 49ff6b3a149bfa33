package uptime

import (
	"context"
	"net/http"

	"watchly/internal/core"
	"watchly/internal/features/uptime/database"
	"watchly/internal/features/uptime/handlers"
	"watchly/internal/features/uptime/services"
)

// Feature hosts the monitoring engine inside the Watchly process
type Feature struct {
	*core.BaseFeature
	logger     *core.Logger
	store      *database.Store
	monitor    *services.Monitor
	apiHandler *handlers.APIHandler
}

func NewFeature(logger *core.Logger, db *core.Database, sender services.Sender, config core.MonitorConfig, metrics *core.Metrics) *Feature {
	baseFeature := core.NewBaseFeature(
		"uptime",
		"Website uptime monitoring with alerts",
		config.Enabled,
		logger,
		db,
	)

	featureLogger := baseFeature.Logger()
	store := database.NewStore(baseFeature.DB(), featureLogger)
	monitor := services.NewMonitor(store, sender, config, featureLogger, metrics)

	return &Feature{
		BaseFeature: baseFeature,
		logger:      logger,
		store:       store,
		monitor:     monitor,
		apiHandler:  handlers.NewAPIHandler(featureLogger, monitor),
	}
}

// Init applies the schema and starts periodic ticking
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.store.Migrate(ctx); err != nil {
		return core.NewFeatureError(f.Name(), "failed to migrate schema", err)
	}

	if err := f.monitor.Start(ctx, 0); err != nil {
		return core.NewFeatureError(f.Name(), "failed to start monitor", err)
	}

	f.logger.LogFeatureEvent(f.Name(), "started", "tick_interval", f.monitor.Config().TickInterval())
	return nil
}

// Routes returns the HTTP routes for the uptime feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodGet, Path: "/uptime/api/status", Handler: f.apiHandler.Status},
		{Method: http.MethodPost, Path: "/uptime/api/trigger", Handler: f.apiHandler.Trigger},
	}
}

// Shutdown stops ticking and drains in-flight notifications
func (f *Feature) Shutdown(ctx context.Context) error {
	if err := f.monitor.Stop(ctx); err != nil {
		f.logger.LogFeatureError(f.Name(), "Notifications still pending at shutdown", err)
	}
	f.logger.LogFeatureEvent(f.Name(), "stopped")
	return f.BaseFeature.Shutdown(ctx)
}

// Monitor exposes the engine for config reloads
func (f *Feature) Monitor() *services.Monitor {
	return f.monitor
}

// Store exposes the store adapter
func (f *Feature) Store() *database.Store {
	return f.store
}
