package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"watchly/internal/core"
)

const healthPingTimeout = 2 * time.Second

// SystemHandler serves process-level endpoints
type SystemHandler struct {
	logger   *core.Logger
	registry *core.Registry
	db       *core.Database
	version  string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(logger *core.Logger, registry *core.Registry, db *core.Database, version string) *SystemHandler {
	return &SystemHandler{
		logger:   logger,
		registry: registry,
		db:       db,
		version:  version,
	}
}

// HealthCheckHandler reports liveness, database reachability and feature status
func (h *SystemHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK

	if err := h.db.PingWithTimeout(healthPingTimeout); err != nil {
		h.logger.Error("Health check database ping failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   status,
		"service":  "watchly",
		"version":  h.version,
		"features": h.registry.GetFeatureStatus(),
	})
}
