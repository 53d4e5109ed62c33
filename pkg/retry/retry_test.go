package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestDo_SucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errBoom)
		}
		return nil
	}, WithMaxAttempts(5), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ReturnsUnwrappedErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(errBoom)
	}, WithMaxAttempts(2), WithInitialDelay(time.Millisecond))

	assert.Same(t, errBoom, err)
	assert.Equal(t, 2, calls)
}

func TestDo_StopsOnPermanentAndPlainErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errBoom)
	}, WithMaxAttempts(5), WithRetryIf(func(error) bool { return true }))
	assert.Same(t, errBoom, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = Do(context.Background(), func(context.Context) error {
		calls++
		return errBoom
	}, WithMaxAttempts(5))
	assert.Same(t, errBoom, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SleepsOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var delays []time.Duration

	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), func(context.Context) error {
			return Retryable(errBoom)
		},
			WithClock(clock),
			WithMaxAttempts(3),
			WithInitialDelay(time.Second),
			WithJitter(0),
			WithOnRetry(func(_ int, _ error, d time.Duration) { delays = append(delays, d) }),
		)
	}()

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(time.Second)
	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	clock.Advance(2 * time.Second)

	select {
	case err := <-done:
		assert.Same(t, errBoom, err)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not finish")
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithData(t *testing.T) {
	calls := 0
	v, err := DoWithData(context.Background(), func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, Retryable(errBoom)
		}
		return 42, nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCalculateDelay_Capped(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(3*time.Second), WithJitter(0))
	assert.Equal(t, time.Second, r.calculateDelay(1))
	assert.Equal(t, 2*time.Second, r.calculateDelay(2))
	assert.Equal(t, 3*time.Second, r.calculateDelay(5))
}

func TestStartupOptions_RetriesPlainErrors(t *testing.T) {
	calls := 0
	opts := append(StartupOptions(nil), WithInitialDelay(time.Millisecond), WithMaxDelay(time.Millisecond))
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, opts...)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
