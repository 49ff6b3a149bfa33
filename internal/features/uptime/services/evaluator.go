package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"watchly/internal/core"
	"watchly/internal/features/uptime/models"
)

// AlertStore is the slice of the store the alert state machine needs
type AlertStore interface {
	GetWebsite(ctx context.Context, websiteID int) (*models.Website, error)
	GetUser(ctx context.Context, userID int) (*models.User, error)
	FindUnresolvedAlert(ctx context.Context, websiteID int, alertType models.AlertType) (*models.Alert, error)
	CreateAlert(ctx context.Context, websiteID int, alertType models.AlertType, status models.AlertStatus, timestamp time.Time) (*models.Alert, error)
	ResolveAlert(ctx context.Context, alertID int) error
}

// Transition is the alert lifecycle change made for one website in a tick
type Transition string

const (
	TransitionNone     Transition = "none"
	TransitionCreated  Transition = "created"
	TransitionResolved Transition = "resolved"
	TransitionSkipped  Transition = "skipped"
	TransitionFailed   Transition = "failed"
)

// Evaluation is the outcome of running the state machine for one website
type Evaluation struct {
	WebsiteID    int
	Transition   Transition
	Alert        *models.Alert
	Notification *Notification
	Err          error
}

// Evaluator decides alert creation and resolution per website.
//
//	no alert   + down -> create unresolved alert, notify
//	unresolved + down -> nothing (same outage)
//	unresolved + up   -> resolve, notify
//	no alert   + up   -> nothing
type Evaluator struct {
	store  AlertStore
	logger *core.Logger
	now    func() time.Time
}

func NewEvaluator(store AlertStore, logger *core.Logger) *Evaluator {
	return &Evaluator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Evaluate applies one probe result to its website's alert lineage. A
// missing website or owner yields TransitionSkipped with a NOT_FOUND error.
func (e *Evaluator) Evaluate(ctx context.Context, result models.ProbeResult) Evaluation {
	logger := e.logger.WithContext(ctx).With("website_id", result.WebsiteID)
	evaluation := Evaluation{WebsiteID: result.WebsiteID, Transition: TransitionNone}

	fail := func(message string, err error) Evaluation {
		evaluation.Err = err
		if core.IsNotFound(err) {
			evaluation.Transition = TransitionSkipped
			logger.Warn(message+", skipping website this tick", "error", err)
		} else {
			evaluation.Transition = TransitionFailed
			logger.Error(message, "error", err)
		}
		return evaluation
	}

	website, err := e.store.GetWebsite(ctx, result.WebsiteID)
	if err != nil {
		return fail("Failed to load website for alert evaluation", err)
	}

	user, err := e.store.GetUser(ctx, website.UserID)
	if err != nil {
		return fail("Failed to load website owner for alert evaluation", err)
	}

	existing, err := e.store.FindUnresolvedAlert(ctx, website.ID, models.AlertTypeDown)
	if err != nil {
		return fail("Failed to look up unresolved alert", err)
	}

	switch {
	case !result.IsUp() && existing != nil:
		logger.Debug("Alert already open for website", "alert_id", existing.ID)
		evaluation.Alert = existing

	case !result.IsUp():
		alert, err := e.store.CreateAlert(ctx, website.ID, models.AlertTypeDown, models.AlertStatusUnresolved, e.now())
		if err != nil {
			return fail("Failed to create alert", err)
		}
		notification := downNotification(user, website, alert)
		evaluation.Transition = TransitionCreated
		evaluation.Alert = alert
		evaluation.Notification = &notification
		logger.Warn("Alert triggered", "alert_id", alert.ID, "url", website.URL, "alert_type", alert.Type)

	case existing != nil:
		if err := e.store.ResolveAlert(ctx, existing.ID); err != nil {
			return fail("Failed to resolve alert", err)
		}
		existing.Status = models.AlertStatusResolved
		notification := resolvedNotification(user, website, existing, e.now())
		evaluation.Transition = TransitionResolved
		evaluation.Alert = existing
		evaluation.Notification = &notification
		logger.Info("Alert resolved", "alert_id", existing.ID, "url", website.URL)
	}

	return evaluation
}

// EvaluateAll runs Evaluate for every result concurrently. For each website
// the notification, if any, is handed to dispatch after its evaluation
// completes. The returned slice is in input order.
func (e *Evaluator) EvaluateAll(ctx context.Context, results []models.ProbeResult, dispatch func(Notification)) []Evaluation {
	evaluations := make([]Evaluation, len(results))

	var g errgroup.Group
	for i, result := range results {
		g.Go(func() error {
			evaluations[i] = e.Evaluate(ctx, result)
			if n := evaluations[i].Notification; n != nil && dispatch != nil {
				dispatch(*n)
			}
			return nil
		})
	}
	g.Wait()

	return evaluations
}
