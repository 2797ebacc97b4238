// Package retry provides the retry policy shared by every call to an unreliable collaborator.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffFunc returns how long to wait after the given zero-based attempt failed with err.
type BackoffFunc func(attempt int, err error) time.Duration

// Policy controls retry behavior.
type Policy struct {
	// Name identifies the collaborator in logs
	Name        string
	MaxAttempts int
	Backoff     BackoffFunc
	// Retryable reports whether err may be retried; nil retries every error
	Retryable func(error) bool
	Logger    *slog.Logger
	// Sleep replaces the timer between attempts; it returns an error when ctx is done
	Sleep func(ctx context.Context, d time.Duration) error
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Name     string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Name, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// errorBackOff adapts a BackoffFunc to backoff.BackOff. The wait depends on
// the error of the attempt that just failed, so it is recorded before each
// NextBackOff call.
type errorBackOff struct {
	ctx     context.Context
	policy  Policy
	attempt int
	lastErr error
	wait    time.Duration
}

func (b *errorBackOff) Reset() {}

func (b *errorBackOff) NextBackOff() time.Duration {
	b.wait = 0
	if b.policy.Backoff != nil {
		b.wait = b.policy.Backoff(b.attempt, b.lastErr)
	}
	if b.policy.Sleep == nil {
		return b.wait
	}
	if err := b.policy.Sleep(b.ctx, b.wait); err != nil {
		return backoff.Stop
	}
	return 0
}

// Do calls fn until it succeeds, returns a non-retryable error, the context is done,
// or MaxAttempts is reached. attempt is zero-based.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	attempts := max(p.MaxAttempts, 1)
	logger := p.logger()
	bo := &errorBackOff{ctx: ctx, policy: p}
	tries := 0
	stopped := false

	operation := func() (T, error) {
		attempt := tries
		tries++
		result, err := fn(ctx, attempt)
		if err == nil {
			return result, nil
		}
		bo.attempt, bo.lastErr = attempt, err
		if errors.Is(err, context.Canceled) || (p.Retryable != nil && !p.Retryable(err)) {
			stopped = true
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	notify := func(err error, _ time.Duration) {
		logger.Warn("retrying",
			slog.String("call", p.name()),
			slog.Int("attempt", tries),
			slog.Duration("wait", bo.wait),
			slog.Any("error", err))
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
	switch {
	case err == nil:
		return result, nil
	case stopped:
		return zero, bo.lastErr
	case ctx.Err() != nil:
		return zero, ctx.Err()
	}
	return zero, &ExhaustedError{Name: p.name(), Attempts: tries, Last: err}
}

// Exponential returns base·2^attempt capped at maxWait (no cap when maxWait is zero).
func Exponential(base, maxWait time.Duration) BackoffFunc {
	return func(attempt int, _ error) time.Duration {
		wait := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
		if maxWait > 0 && wait > maxWait {
			wait = maxWait
		}
		return wait
	}
}

// Constant waits d after every failure.
func Constant(d time.Duration) BackoffFunc {
	return func(int, error) time.Duration {
		return d
	}
}

func (p Policy) name() string {
	if p.Name == "" {
		return "call"
	}
	return p.Name
}

func (p Policy) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
