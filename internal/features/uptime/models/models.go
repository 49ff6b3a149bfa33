package models

import "time"

// AlertType classifies an alert. Only Down is raised by the engine.
type AlertType string

const AlertTypeDown AlertType = "Down"

// AlertStatus is the lifecycle state of a single alert row
type AlertStatus string

const (
	AlertStatusUnresolved AlertStatus = "unresolved"
	AlertStatusResolved   AlertStatus = "resolved"
)

// Up flag values stored on metrics
const (
	UpFlagDown = 0
	UpFlagUp   = 1
)

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Website is a monitored target owned by a user
type Website struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	CheckInterval int       `json:"check_interval"`
	CreatedAt     time.Time `json:"created_at"`
}

// Metric is the immutable record of one probe
type Metric struct {
	ID           int       `json:"id"`
	WebsiteID    int       `json:"website_id"`
	ResponseTime float64   `json:"response_time"`
	Uptime       int       `json:"uptime"`
	Timestamp    time.Time `json:"timestamp"`
}

type Alert struct {
	ID        int         `json:"id"`
	WebsiteID int         `json:"website_id"`
	Type      AlertType   `json:"alert_type"`
	Status    AlertStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// ProbeResult is the outcome of probing one website in a tick.
// StatusCode and Err are diagnostic only and are not persisted.
type ProbeResult struct {
	WebsiteID      int
	URL            string
	ResponseTimeMs float64
	UpFlag         int
	Timestamp      time.Time
	StatusCode     int
	Err            error
}

// IsUp reports whether the probe succeeded
func (r ProbeResult) IsUp() bool {
	return r.UpFlag == UpFlagUp
}

// Metric converts the probe result into a metric row
func (r ProbeResult) Metric() Metric {
	return Metric{
		WebsiteID:    r.WebsiteID,
		ResponseTime: r.ResponseTimeMs,
		Uptime:       r.UpFlag,
		Timestamp:    r.Timestamp,
	}
}
