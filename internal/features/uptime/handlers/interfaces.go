package handlers

import (
	"context"

	"watchly/internal/features/uptime/services"
)

// Engine is the monitoring surface the HTTP handlers drive
type Engine interface {
	Trigger(ctx context.Context) (*services.TickReport, error)
	LastReport() *services.TickReport
	State() string
	Running() bool
}
