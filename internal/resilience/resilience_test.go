package resilience_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/internal/resilience"
)

var errBoom = errors.New("boom")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestCircuitBreaker_Execute(t *testing.T) {
	tests := []struct {
		name          string
		execFunc      func() error
		expectedErr   error
		expectedState resilience.State
	}{
		{
			name:          "successful execution stays closed",
			execFunc:      func() error { return nil },
			expectedState: resilience.StateClosed,
		},
		{
			name:          "single failure stays closed",
			execFunc:      func() error { return errBoom },
			expectedErr:   errBoom,
			expectedState: resilience.StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 3, Timeout: 5 * time.Second})

			err := cb.Execute(tt.execFunc)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedState, cb.State())
		})
	}
}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	transitions := make(chan resilience.State, 8)

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "fleet-store",
		MaxFailures: 2,
		Timeout:     time.Minute,
		HalfOpenMax: 1,
		Clock:       clock.Now,
		OnStateChange: func(name string, from, to resilience.State) {
			transitions <- to
		},
	})

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errBoom })
	}
	assert.Equal(t, resilience.StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	clock.now = clock.now.Add(2 * time.Minute)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, resilience.StateClosed, cb.State())

	seen := []resilience.State{<-transitions, <-transitions, <-transitions}
	assert.ElementsMatch(t, []resilience.State{resilience.StateOpen, resilience.StateHalfOpen, resilience.StateClosed}, seen)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, Clock: clock.Now})

	_ = cb.Execute(func() error { return errBoom })
	clock.now = clock.now.Add(2 * time.Second)

	_ = cb.Execute(func() error { return errBoom })
	assert.Equal(t, resilience.StateOpen, cb.State())
}

func TestCircuitBreaker_CancellationIsNotAFailure(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1})

	err := cb.ExecuteCtx(context.Background(), func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, resilience.StateClosed, cb.State())

	_, failures, _ := cb.Stats()
	assert.Zero(t, failures)
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1})
	_ = cb.Execute(func() error { return errBoom })
	require.Equal(t, resilience.StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestRetry(t *testing.T) {
	var calls atomic.Int32
	var retried []int

	value, err := resilience.Retry(context.Background(), resilience.RetryPolicy{
		Attempts: 3,
		Delay:    time.Millisecond,
		OnRetry:  func(attempt int, err error) { retried = append(retried, attempt) },
	}, func(ctx context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errBoom
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", value)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetry_GivesUp(t *testing.T) {
	_, err := resilience.Retry(context.Background(), resilience.RetryPolicy{Attempts: 2, Delay: time.Millisecond},
		func(ctx context.Context) (int, error) { return 0, errBoom })
	assert.ErrorIs(t, err, errBoom)
}

func TestRetry_StopsOnOpenCircuit(t *testing.T) {
	var calls int
	_, err := resilience.Retry(context.Background(), resilience.RetryPolicy{Attempts: 5, Delay: time.Millisecond},
		func(ctx context.Context) (int, error) {
			calls++
			return 0, resilience.ErrCircuitOpen
		})

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}
