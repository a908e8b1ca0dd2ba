package framework

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is the cadence used by Eventually when none is given.
const DefaultPollInterval = 100 * time.Millisecond

// PollResult is the outcome of Poll.
type PollResult int

const (
	PollSucceeded PollResult = iota
	PollTimedOut
)

func (r PollResult) String() string {
	if r == PollSucceeded {
		return "succeeded"
	}
	return "timed out"
}

// Poll evaluates predicate immediately and then every interval until it returns true or
// timeout elapses. The predicate is always evaluated at least once.
func Poll(predicate func() bool, interval, timeout time.Duration) PollResult {
	if predicate() {
		return PollSucceeded
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-deadline.C:
			if predicate() {
				return PollSucceeded
			}
			return PollTimedOut
		case <-ticker.C:
			if predicate() {
				return PollSucceeded
			}
		}
	}
}

// Eventually calls action until it returns nil. If timeout elapses first, the last error
// is returned. A zero interval means DefaultPollInterval.
func Eventually(timeout, interval time.Duration, action func() error) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	var lastErr error
	result := Poll(func() bool {
		lastErr = action()
		return lastErr == nil
	}, interval, timeout)
	if result == PollSucceeded {
		return nil
	}
	return fmt.Errorf("timed out after %s: %w", timeout, lastErr)
}

// WithDeadline runs action with a context that expires after timeout. If action does
// not return by then, WithDeadline returns without waiting for it.
func WithDeadline(timeout time.Duration, action func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- action(ctx) }()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("function took over %s", timeout)
	}
}
