package resilience

import (
	"context"
	"errors"
	"time"
)

type RetryPolicy struct {
	Attempts   int
	Delay      time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Delay <= 0 {
		p.Delay = 500 * time.Millisecond
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	return p
}

// Retry calls fn until it succeeds, the attempts run out, or ctx is done.
// Errors wrapping ErrCircuitOpen are returned immediately.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()

	var zero T
	delay := policy.Delay
	var lastErr error

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) || attempt == policy.Attempts {
			break
		}
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(time.Duration(float64(delay)*policy.Multiplier), policy.MaxDelay)
	}

	return zero, lastErr
}
