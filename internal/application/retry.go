package application

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"go.uber.org/zap"
)

type RetryPolicy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	BackoffMultiplier float64
	// Jitter adds a random delay in [0, Jitter) to every wait.
	Jitter    time.Duration
	Retryable func(error) bool
}

func DefaultPagePolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         time.Second,
		BackoffMultiplier: 2,
		Retryable:         IsTransient,
	}
}

func DefaultLoginPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		BaseDelay:         5 * time.Second,
		BackoffMultiplier: 2,
		Jitter:            time.Second,
		Retryable:         IsTransient,
	}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	return time.Duration(float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt-1)))
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p RetryPolicy) retryable(err error) bool {
	if domain.IsPermanent(err) {
		return false
	}
	if p.Retryable == nil {
		return IsTransient(err)
	}
	return p.Retryable(err)
}

// IsTransient matches timeouts, transient navigation failures and
// stale or late elements.
func IsTransient(err error) bool {
	if err == nil || domain.IsPermanent(err) {
		return false
	}

	switch domain.KindOf(err) {
	case domain.KindNavigationTimeout, domain.KindElementNotFound, domain.KindStaleElement:
		return true
	default:
		return false
	}
}

type Attempt struct {
	Number int
	Kind   domain.ErrorKind
	Err    error
	Delay  time.Duration
	At     time.Time
}

// RetryError is returned once an operation gives up. It unwraps to the last
// error so callers can classify it.
type RetryError struct {
	Op       string
	Attempts []Attempt
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, len(e.Attempts), e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

type Retrier struct {
	clock  ports.Clock
	logger *zap.Logger
}

func NewRetrier(clock ports.Clock, logger *zap.Logger) *Retrier {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Retrier{clock: clock, logger: logger}
}

func (r *Retrier) Do(ctx context.Context, op string, policy RetryPolicy, fn func(context.Context) error) error {
	_, err := Retry(ctx, r, op, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Retry runs fn until it succeeds, fails with a non-retryable error, or the
// policy's attempts are exhausted.
func Retry[T any](ctx context.Context, r *Retrier, op string, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := policy.attempts()
	history := make([]Attempt, 0, maxAttempts)

	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return zero, &RetryError{Op: op, Attempts: history, Err: err}
		}

		value, err := fn(ctx)
		if err == nil {
			r.logger.Debug("attempt succeeded",
				zap.String("op", op),
				zap.Int("attempt", n),
				zap.Int("max_attempts", maxAttempts),
			)
			return value, nil
		}

		attempt := Attempt{Number: n, Kind: domain.KindOf(err), Err: err, At: r.clock.Now()}
		if !policy.retryable(err) || n >= maxAttempts {
			history = append(history, attempt)
			r.logger.Warn("attempt failed, giving up",
				zap.String("op", op),
				zap.Int("attempt", n),
				zap.Int("max_attempts", maxAttempts),
				zap.String("error_class", string(attempt.Kind)),
				zap.Error(err),
			)
			return zero, &RetryError{Op: op, Attempts: history, Err: err}
		}

		attempt.Delay = policy.Delay(n)
		if policy.Jitter > 0 {
			attempt.Delay += time.Duration(rand.Int64N(int64(policy.Jitter)))
		}
		history = append(history, attempt)
		r.logger.Warn("attempt failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", n),
			zap.Int("max_attempts", maxAttempts),
			zap.String("error_class", string(attempt.Kind)),
			zap.Duration("retry_in", attempt.Delay),
			zap.Error(err),
		)

		if err := r.clock.Sleep(ctx, attempt.Delay); err != nil {
			return zero, &RetryError{Op: op, Attempts: history, Err: err}
		}
	}
}
