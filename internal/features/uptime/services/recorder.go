package services

import (
	"context"

	"watchly/internal/core"
	"watchly/internal/features/uptime/models"
)

// MetricWriter persists a batch of metric rows atomically
type MetricWriter interface {
	InsertMetrics(ctx context.Context, batch []models.Metric) error
}

// Recorder turns a tick's probe results into metric rows
type Recorder struct {
	store  MetricWriter
	logger *core.Logger
}

func NewRecorder(store MetricWriter, logger *core.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger,
	}
}

// Record writes one metric per result in a single batch. It never reads or
// updates existing rows.
func (r *Recorder) Record(ctx context.Context, results []models.ProbeResult) error {
	batch := make([]models.Metric, 0, len(results))
	for _, result := range results {
		batch = append(batch, result.Metric())
	}

	if err := r.store.InsertMetrics(ctx, batch); err != nil {
		r.logger.WithContext(ctx).Error("Failed to record metrics", "count", len(batch), "error", err)
		return err
	}

	r.logger.WithContext(ctx).Debug("Recorded metrics", "count", len(batch))
	return nil
}
