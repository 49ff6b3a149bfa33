package handlers

import (
	"encoding/json"
	"net/http"

	"watchly/internal/core"
	"watchly/internal/features/uptime/services"
)

type APIHandler struct {
	logger *core.Logger
	engine Engine
}

func NewAPIHandler(logger *core.Logger, engine Engine) *APIHandler {
	return &APIHandler{
		logger: logger,
		engine: engine,
	}
}

// StatusResponse describes the scheduler and the most recent tick
type StatusResponse struct {
	State    string               `json:"state"`
	Running  bool                 `json:"running"`
	LastTick *services.TickReport `json:"last_tick"`
}

// Status reports the scheduler state and the last tick report
func (h *APIHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		State:    h.engine.State(),
		Running:  h.engine.Running(),
		LastTick: h.engine.LastReport(),
	})
}

// Trigger runs one tick immediately. A tick already in flight yields 409.
func (h *APIHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Trigger(r.Context())
	if err != nil {
		if services.IsTickInProgress(err) {
			h.logger.Warn("Manual tick refused, another tick is running")
		} else {
			h.logger.Error("Manual tick failed", "error", err)
		}
		core.HandleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tick":    report,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
