package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"watchly/internal/core"
	"watchly/internal/features/uptime"
	"watchly/internal/features/uptime/services"
	"watchly/internal/server/handlers"
	"watchly/internal/server/services/mailer"
)

const readHeaderTimeout = 10 * time.Second

// Server hosts the registered features behind a chi router
type Server struct {
	config   *core.Config
	logger   *core.Logger
	db       *core.Database
	metrics  *core.Metrics
	registry *core.Registry
	uptime   *uptime.Feature
	server   *http.Server
}

// New opens the database and registers features. Nothing runs until Start.
func New(ctx context.Context, config *core.Config, logger *core.Logger, version string) (*Server, error) {
	db, err := core.OpenSQLite(ctx, config.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	mail, err := mailer.New(config.Mailer)
	if err != nil {
		db.Close()
		return nil, err
	}

	metrics := core.NewMetrics()
	services.RegisterCounters(metrics)

	registry := core.NewRegistry(logger)
	uptimeFeature := uptime.NewFeature(logger, db, mail, config.Monitor, metrics)
	if err := registry.Register(uptimeFeature); err != nil {
		db.Close()
		return nil, err
	}

	srv := &Server{
		config:   config,
		logger:   logger,
		db:       db,
		metrics:  metrics,
		registry: registry,
		uptime:   uptimeFeature,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:           srv.routes(version),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv, nil
}

func (s *Server) routes(version string) http.Handler {
	systemHandler := handlers.NewSystemHandler(s.logger, s.registry, s.db, version)

	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(s.requestLogger)

	mux.Get("/health", systemHandler.HealthCheckHandler)
	mux.Get("/metrics", s.metrics.Handler())

	// Feature routes - use the registry to get all feature routes
	for _, route := range s.registry.GetAllRoutes() {
		mux.Method(route.Method, route.Path, route.Handler)
	}

	return mux
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Handler returns the router, for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start initializes features and serves HTTP until Shutdown
func (s *Server) Start(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		s.logger.Error("Failed to initialize features", "error", err)
		return err
	}

	s.logger.Info("Starting server", "host", s.config.Server.Host, "port", s.config.Server.Port)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ApplyConfig hot-swaps the monitor tunables
func (s *Server) ApplyConfig(config *core.Config) {
	s.uptime.Monitor().ApplyConfig(config.Monitor)
}

// Shutdown stops HTTP, then features, then closes the database
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown HTTP server", "error", err)
	}

	// Shutdown all features
	if err := s.registry.ShutdownAll(ctx); err != nil {
		s.logger.Error("Failed to shutdown features", "error", err)
	}

	s.db.LogStats()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
