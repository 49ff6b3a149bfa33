package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"watchly/internal/core"
	"watchly/internal/features/uptime/models"
)

// memoryStore is an in-memory Store for engine tests
type memoryStore struct {
	mu         sync.Mutex
	users      map[int]models.User
	websites   []models.Website
	metrics    []models.Metric
	alerts     []models.Alert
	insertErr  error
	createErr  error
	nextAlert  int
	insertCall int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[int]models.User), nextAlert: 1}
}

func (s *memoryStore) addUser(id int, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = models.User{ID: id, Name: fmt.Sprintf("user-%d", id), Email: email}
}

func (s *memoryStore) addWebsite(id, userID int, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.websites = append(s.websites, models.Website{ID: id, UserID: userID, Name: url, URL: url, CheckInterval: 5})
}

func (s *memoryStore) addAlert(websiteID int, status models.AlertStatus, ts time.Time) models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert := models.Alert{ID: s.nextAlert, WebsiteID: websiteID, Type: models.AlertTypeDown, Status: status, Timestamp: ts}
	s.nextAlert++
	s.alerts = append(s.alerts, alert)
	return alert
}

func (s *memoryStore) alertsFor(websiteID int) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Alert
	for _, a := range s.alerts {
		if a.WebsiteID == websiteID {
			out = append(out, a)
		}
	}
	return out
}

func (s *memoryStore) metricsSnapshot() []models.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Metric(nil), s.metrics...)
}

func (s *memoryStore) ListWebsites(ctx context.Context) ([]models.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Website(nil), s.websites...), nil
}

func (s *memoryStore) InsertMetrics(ctx context.Context, batch []models.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCall++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.metrics = append(s.metrics, batch...)
	return nil
}

func (s *memoryStore) GetWebsite(ctx context.Context, websiteID int) (*models.Website, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.websites {
		if w.ID == websiteID {
			return &w, nil
		}
	}
	return nil, core.NewNotFoundError(fmt.Sprintf("website %d not found", websiteID), nil)
}

func (s *memoryStore) GetUser(ctx context.Context, userID int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return &u, nil
	}
	return nil, core.NewNotFoundError(fmt.Sprintf("user %d not found", userID), nil)
}

func (s *memoryStore) FindUnresolvedAlert(ctx context.Context, websiteID int, alertType models.AlertType) (*models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.WebsiteID == websiteID && a.Type == alertType && a.Status == models.AlertStatusUnresolved {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) CreateAlert(ctx context.Context, websiteID int, alertType models.AlertType, status models.AlertStatus, ts time.Time) (*models.Alert, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	alert := models.Alert{ID: s.nextAlert, WebsiteID: websiteID, Type: alertType, Status: status, Timestamp: ts}
	s.nextAlert++
	s.alerts = append(s.alerts, alert)
	return &alert, nil
}

func (s *memoryStore) ResolveAlert(ctx context.Context, alertID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == alertID && s.alerts[i].Status == models.AlertStatusUnresolved {
			s.alerts[i].Status = models.AlertStatusResolved
			return nil
		}
	}
	return core.NewNotFoundError(fmt.Sprintf("unresolved alert %d not found", alertID), nil)
}

type sentEmail struct {
	To, Subject, Body string
}

// recordingSender records every attempt and fails the first failures of them.
// Mail to failFor always fails.
type recordingSender struct {
	mu       sync.Mutex
	failures int
	failFor  string
	err      error
	attempts int
	sent     []sentEmail
}

var errTransient = errors.New("smtp2go: 503 service unavailable")

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.err != nil {
		return s.err
	}
	if s.attempts <= s.failures || (s.failFor != "" && to == s.failFor) {
		return errTransient
	}
	s.sent = append(s.sent, sentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *recordingSender) snapshot() (int, []sentEmail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts, append([]sentEmail(nil), s.sent...)
}

// instantTimer fires immediately and records every requested delay
type instantTimer struct {
	mu     *sync.Mutex
	delays *[]time.Duration
	c      chan time.Time
}

func newInstantTimerFactory() (func() backoff.Timer, func() []time.Duration) {
	var mu sync.Mutex
	var delays []time.Duration

	factory := func() backoff.Timer {
		return &instantTimer{mu: &mu, delays: &delays, c: make(chan time.Time, 1)}
	}
	recorded := func() []time.Duration {
		mu.Lock()
		defer mu.Unlock()
		return append([]time.Duration(nil), delays...)
	}
	return factory, recorded
}

func (t *instantTimer) Start(d time.Duration) {
	t.mu.Lock()
	*t.delays = append(*t.delays, d)
	t.mu.Unlock()
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time {
	return t.c
}
