package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"watchly/internal/features/uptime/models"
)

// NotificationKind says which alert transition an email describes
type NotificationKind string

const (
	NotificationDown     NotificationKind = "down"
	NotificationResolved NotificationKind = "resolved"
)

// Notification is one email to deliver for an alert transition
type Notification struct {
	Kind      NotificationKind
	WebsiteID int
	AlertID   int
	To        string
	Subject   string
	Body      string
}

func downNotification(user *models.User, website *models.Website, alert *models.Alert) Notification {
	return Notification{
		Kind:      NotificationDown,
		WebsiteID: website.ID,
		AlertID:   alert.ID,
		To:        user.Email,
		Subject:   fmt.Sprintf("Alert: %s is DOWN!", website.URL),
		Body:      fmt.Sprintf("Watchly has detected that website: %s is down. Please Verify Immediately!", website.URL),
	}
}

func resolvedNotification(user *models.User, website *models.Website, alert *models.Alert, now time.Time) Notification {
	since := strings.TrimSpace(humanize.RelTime(alert.Timestamp, now, "ago", "from now"))
	return Notification{
		Kind:      NotificationResolved,
		WebsiteID: website.ID,
		AlertID:   alert.ID,
		To:        user.Email,
		Subject:   fmt.Sprintf("Resolved: %s is back UP", website.URL),
		Body: fmt.Sprintf("Watchly has detected that website: %s is reachable again. The outage was first detected %s (%s).",
			website.URL, since, alert.Timestamp.UTC().Format(time.RFC1123)),
	}
}
