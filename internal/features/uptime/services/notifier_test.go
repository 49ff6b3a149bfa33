package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"watchly/internal/core"
)

func TestNotifierRetriesThenSucceeds(t *testing.T) {
	sender := &recordingSender{failures: 2}
	metrics := core.NewMetrics()
	notifier := NewNotifier(sender, core.Discard(), metrics, 3, time.Second)
	factory, delays := newInstantTimerFactory()
	notifier.newTimer = factory

	if err := notifier.Notify(context.Background(), "owner@example.com", "subject", "body"); err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}

	attempts, sent := sender.snapshot()
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(sent) != 1 {
		t.Fatalf("Expected 1 delivered email, got %d", len(sent))
	}

	got := delays()
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Delay %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if v := metrics.Value(CounterNotificationsSent); v != 1 {
		t.Errorf("Expected 1 sent notification, got %v", v)
	}
}

func TestNotifierGivesUpAfterMaxAttempts(t *testing.T) {
	sender := &recordingSender{failures: 10}
	metrics := core.NewMetrics()
	notifier := NewNotifier(sender, core.Discard(), metrics, 3, time.Second)
	factory, delays := newInstantTimerFactory()
	notifier.newTimer = factory

	err := notifier.Notify(context.Background(), "owner@example.com", "subject", "body")
	if err == nil {
		t.Fatal("Expected failure after exhausting attempts")
	}
	if !core.HasCode(err, core.ErrCodeNotification) {
		t.Errorf("Expected NOTIFICATION_ERROR, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Errorf("Expected final cause to be wrapped, got %v", err)
	}

	attempts, _ := sender.snapshot()
	if attempts != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", attempts)
	}
	if got := delays(); len(got) != 2 {
		t.Errorf("Expected 2 backoff waits, got %v", got)
	}
	if v := metrics.Value(CounterNotificationsFailed); v != 1 {
		t.Errorf("Expected 1 failed notification, got %v", v)
	}
}

func TestNotifierDoesNotRetryConfigurationErrors(t *testing.T) {
	sender := &recordingSender{err: core.NewConfigurationError("SMTP2GO API key is not configured", nil)}
	notifier := NewNotifier(sender, core.Discard(), nil, 3, time.Second)
	factory, delays := newInstantTimerFactory()
	notifier.newTimer = factory

	if err := notifier.Notify(context.Background(), "owner@example.com", "subject", "body"); err == nil {
		t.Fatal("Expected failure for misconfigured sender")
	}

	attempts, _ := sender.snapshot()
	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
	if got := delays(); len(got) != 0 {
		t.Errorf("Expected no backoff waits, got %v", got)
	}
}

func TestNotifierSetPolicy(t *testing.T) {
	sender := &recordingSender{failures: 10}
	notifier := NewNotifier(sender, core.Discard(), nil, 3, time.Second)
	factory, delays := newInstantTimerFactory()
	notifier.newTimer = factory

	notifier.SetPolicy(5, 500*time.Millisecond)
	notifier.Notify(context.Background(), "owner@example.com", "subject", "body")

	attempts, _ := sender.snapshot()
	if attempts != 5 {
		t.Errorf("Expected 5 attempts, got %d", attempts)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 4 * time.Second}
	got := delays()
	if len(got) != len(want) {
		t.Fatalf("Expected delays %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Delay %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNotifierStopsOnCancel(t *testing.T) {
	sender := &recordingSender{failures: 10}
	notifier := NewNotifier(sender, core.Discard(), nil, 3, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	if err := notifier.Notify(ctx, "owner@example.com", "subject", "body"); err == nil {
		t.Fatal("Expected error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Expected cancellation to cut the backoff short, took %v", elapsed)
	}
}
