package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"watchly/internal/core"
)

// Sender delivers a single email. It may block.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// upper bound on a single retry delay
const maxBackoffInterval = 24 * time.Hour

// Notifier delivers emails with bounded exponential retry. With the default
// policy it makes 3 attempts, waiting 1s and then 2s between them.
type Notifier struct {
	sender  Sender
	logger  *core.Logger
	metrics *core.Metrics

	mu          sync.RWMutex
	maxAttempts int
	backoffBase time.Duration

	// nil uses the real clock
	newTimer func() backoff.Timer
}

func NewNotifier(sender Sender, logger *core.Logger, metrics *core.Metrics, maxAttempts int, backoffBase time.Duration) *Notifier {
	return &Notifier{
		sender:      sender,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// SetPolicy swaps the retry ceiling and base delay for subsequent notifications
func (n *Notifier) SetPolicy(maxAttempts int, backoffBase time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.maxAttempts = maxAttempts
	n.backoffBase = backoffBase
}

func (n *Notifier) policy() (int, time.Duration) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	attempts := n.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return attempts, n.backoffBase
}

func (n *Notifier) newBackOff(ctx context.Context, attempts int, base time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxBackoffInterval
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Notify sends one email, retrying transient failures. Configuration and
// validation errors from the sender are not retried. After the last attempt
// fails a NOTIFICATION_ERROR wrapping the final cause is returned.
func (n *Notifier) Notify(ctx context.Context, to, subject, body string) error {
	attempts, base := n.policy()
	logger := n.logger.WithContext(ctx).With("to", to, "subject", subject)

	attempt := 0
	operation := func() error {
		attempt++
		n.metrics.Inc(CounterNotificationAttempts)

		err := n.sender.Send(ctx, to, subject, body)
		if err == nil {
			return nil
		}
		if core.HasCode(err, core.ErrCodeConfiguration) || core.HasCode(err, core.ErrCodeValidation) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		logger.Warn("Notification attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err)
	}

	var timer backoff.Timer
	if n.newTimer != nil {
		timer = n.newTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, n.newBackOff(ctx, attempts, base), notify, timer)
	if err != nil {
		n.metrics.Inc(CounterNotificationsFailed)
		logger.Error("Notification failed permanently", "attempts", attempt, "error", err)
		return core.NewNotificationError(fmt.Sprintf("failed to notify %s after %d attempts", to, attempt), err)
	}

	n.metrics.Inc(CounterNotificationsSent)
	logger.Info("Notification sent", "attempts", attempt)
	return nil
}
