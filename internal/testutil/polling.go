// Package testutil holds helpers for tests that wait on asynchronous work,
// such as a child process exiting or output arriving on a terminal.
package testutil

import (
	"context"
	"fmt"
	"time"
)

// Poll calls condition every interval until it returns true. It gives up
// after timeout, or when ctx is done.
func Poll(ctx context.Context, condition func() bool, timeout, interval time.Duration) error {
	_, err := WaitForState(ctx, condition, func(ok bool) bool { return ok }, timeout, interval)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("condition not met within %v", timeout)
	}
	return err
}

// WaitForState calls getter every interval until predicate accepts the
// value, which is returned. It gives up after timeout, or when ctx is done.
func WaitForState[T any](ctx context.Context, getter func() T, predicate func(T) bool, timeout, interval time.Duration) (T, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		v := getter()
		if predicate(v) {
			return v, nil
		}
		if !time.Now().Before(deadline) {
			var zero T
			return zero, fmt.Errorf("no acceptable %T within %v (last: %v)", v, timeout, v)
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}
