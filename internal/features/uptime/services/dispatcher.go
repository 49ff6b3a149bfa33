package services

import (
	"context"
	"sync"

	"watchly/internal/core"
)

// Notify is the delivery function a Dispatcher runs for each notification
type Notify func(ctx context.Context, to, subject, body string) error

// Dispatcher runs each notification as an independent goroutine so that
// slow or failing deliveries never hold up a tick or each other.
type Dispatcher struct {
	notify Notify
	logger *core.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(notify Notify, logger *core.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		notify: notify,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Dispatch schedules delivery of n and returns immediately. The tick id of
// ctx, if any, is carried into the delivery logs.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) {
	deliveryCtx := d.ctx
	if tickID, ok := core.TickIDFromContext(ctx); ok {
		deliveryCtx = core.ContextWithTickID(deliveryCtx, tickID)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.WithContext(deliveryCtx).Error("Notification delivery panicked", "alert_id", n.AlertID, "panic", r)
			}
		}()

		if err := d.notify(deliveryCtx, n.To, n.Subject, n.Body); err != nil {
			// the alert state change stands, only the email is lost
			d.logger.WithContext(deliveryCtx).Error("Dropping notification",
				"kind", n.Kind,
				"website_id", n.WebsiteID,
				"alert_id", n.AlertID,
				"error", err)
		}
	}()
}

// Wait blocks until every dispatched notification has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close waits for in-flight deliveries until ctx expires, then cancels
// whatever is still retrying.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}
