// Package browser holds helpers shared by the real browser drivers.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout applies when a caller passes no timeout and ctx carries no
// deadline. Drivers treat zero as "wait forever".
const DefaultTimeout = 30 * time.Second

// Bound shortens d so the driver call never outlives ctx. The result is
// always positive.
func Bound(ctx context.Context, d time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		if d <= 0 {
			return DefaultTimeout
		}
		return d
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		return time.Millisecond
	}
	if d <= 0 || remaining < d {
		return remaining
	}
	return d
}

// Wrap tags a driver error with a domain kind. Context errors pass through so
// callers still see cancellation.
func Wrap(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if kind == nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// EpochSeconds converts a cookie expiry. Session cookies have no expiry and
// are encoded as -1.
func EpochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return -1
	}
	return float64(t.UnixMilli()) / 1000
}

func FromEpochSeconds(v float64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(v * 1000)).UTC()
}

