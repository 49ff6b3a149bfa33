package services

import "watchly/internal/core"

// Engine counter names exposed on /metrics
const (
	CounterTicksStarted         = "watchly_ticks_started_total"
	CounterTicksSkipped         = "watchly_ticks_skipped_total"
	CounterTicksFailed          = "watchly_ticks_failed_total"
	CounterProbesUp             = "watchly_probes_up_total"
	CounterProbesDown           = "watchly_probes_down_total"
	CounterMetricsWritten       = "watchly_metrics_written_total"
	CounterAlertsCreated        = "watchly_alerts_created_total"
	CounterAlertsResolved       = "watchly_alerts_resolved_total"
	CounterNotificationsSent    = "watchly_notifications_sent_total"
	CounterNotificationsFailed  = "watchly_notifications_failed_total"
	CounterNotificationAttempts = "watchly_notification_attempts_total"
)

// RegisterCounters declares every engine counter so they are exported at zero
func RegisterCounters(metrics *core.Metrics) {
	metrics.Register(CounterTicksStarted, "Monitoring ticks that started executing.")
	metrics.Register(CounterTicksSkipped, "Ticks dropped because another tick was in flight.")
	metrics.Register(CounterTicksFailed, "Ticks aborted by a store failure or panic.")
	metrics.Register(CounterProbesUp, "Probes classified as up.")
	metrics.Register(CounterProbesDown, "Probes classified as down.")
	metrics.Register(CounterMetricsWritten, "Metric rows persisted.")
	metrics.Register(CounterAlertsCreated, "Down alerts opened.")
	metrics.Register(CounterAlertsResolved, "Down alerts resolved.")
	metrics.Register(CounterNotificationsSent, "Notification emails delivered.")
	metrics.Register(CounterNotificationsFailed, "Notification emails that exhausted their retries.")
	metrics.Register(CounterNotificationAttempts, "Individual notification send attempts.")
}
