package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func noSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var waits []time.Duration
	p := Policy{Name: "test", MaxAttempts: 3, Backoff: Exponential(2*time.Second, 0), Sleep: noSleep(&waits)}

	calls := 0
	result, err := Do(context.Background(), p, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt < 2 {
			return "", errFlaky
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
}

func TestDo_Exhausted(t *testing.T) {
	var waits []time.Duration
	p := Policy{Name: "suggestion", MaxAttempts: 3, Backoff: Constant(time.Second), Sleep: noSleep(&waits)}

	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		return 0, errFlaky
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, errFlaky)
	assert.Len(t, waits, 2, "no wait after the final attempt")
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	fatal := errors.New("bad input")
	p := Policy{MaxAttempts: 5, Retryable: func(err error) bool { return !errors.Is(err, fatal) }}

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		return 0, fatal
	})

	assert.Equal(t, fatal, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 3}, func(context.Context, int) (int, error) {
		calls++
		return 1, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, Backoff: Constant(time.Hour)}

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, p, func(context.Context, int) (int, error) {
		return 0, errFlaky
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExponential_Cap(t *testing.T) {
	b := Exponential(time.Second, 5*time.Second)
	assert.Equal(t, time.Second, b(0, nil))
	assert.Equal(t, 4*time.Second, b(2, nil))
	assert.Equal(t, 5*time.Second, b(3, nil))
}

func TestDo_NonRetryableOnSingleAttempt(t *testing.T) {
	fatal := errors.New("bad input")
	p := Policy{MaxAttempts: 1, Retryable: func(error) bool { return false }}

	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		return 0, fatal
	})

	assert.Same(t, fatal, err)
}

func TestDo_BackoffSeesFailedAttemptError(t *testing.T) {
	errSlow := errors.New("slow down")
	var waits []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff: func(attempt int, err error) time.Duration {
			if errors.Is(err, errSlow) {
				return time.Duration(attempt+1) * time.Minute
			}
			return 0
		},
		Sleep: noSleep(&waits),
	}

	failures := []error{errSlow, errFlaky}
	result, err := Do(context.Background(), p, func(_ context.Context, attempt int) (int, error) {
		if attempt < len(failures) {
			return 0, failures[attempt]
		}
		return attempt, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result)
	assert.Equal(t, []time.Duration{time.Minute, 0}, waits)
}

func TestDo_UsesTimerWithoutSleep(t *testing.T) {
	p := Policy{MaxAttempts: 2, Backoff: Constant(time.Millisecond)}

	calls := 0
	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		calls++
		return 0, errFlaky
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	assert.Equal(t, 2, calls)
}

func TestDo_SleepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	_, err := Do(ctx, p, func(context.Context, int) (int, error) {
		calls++
		return 0, errFlaky
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
