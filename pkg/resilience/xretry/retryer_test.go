package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryer(opts ...RetryerOption) *Retryer {
	return NewRetryer(append([]RetryerOption{WithBackoff(NewFixedBackoff(time.Millisecond))}, opts...)...)
}

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	var calls int
	var retried []int
	r := fastRetryer(WithAttempts(5), WithOnRetry(func(attempt int, _ error) {
		retried = append(retried, attempt)
	}))

	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("address already in use")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	var calls int
	last := errors.New("still failing")
	err := fastRetryer(WithAttempts(3)).Do(context.Background(), func(context.Context) error {
		calls++
		return last
	})
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
}

func TestRetryer_PermanentStops(t *testing.T) {
	var calls int
	denied := errors.New("permission denied")
	err := fastRetryer(WithAttempts(5)).Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(denied)
	})
	assert.ErrorIs(t, err, denied)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(Permanent(denied)))
	assert.False(t, IsPermanent(denied))
	assert.NoError(t, Permanent(nil))
}

func TestRetryer_RetryIf(t *testing.T) {
	var calls int
	other := errors.New("other")
	r := fastRetryer(WithAttempts(5), WithRetryIf(func(err error) bool { return !errors.Is(err, other) }))
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return other
	})
	assert.ErrorIs(t, err, other)
	assert.Equal(t, 1, calls)
}

func TestRetryer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := NewRetryer(WithAttempts(0), WithBackoff(NewFixedBackoff(10*time.Millisecond))).
		Do(ctx, func(context.Context) error {
			calls++
			if calls == 2 {
				cancel()
			}
			return errors.New("fail")
		})
	assert.Error(t, err)
	assert.LessOrEqual(t, calls, 3)
}

func TestRetryer_NilGuards(t *testing.T) {
	var r *Retryer
	assert.ErrorIs(t, r.Do(context.Background(), func(context.Context) error { return nil }), ErrNilRetryer)

	r = NewRetryer(nil, WithAttempts(-1), WithBackoff(nil), WithOnRetry(nil), WithRetryIf(nil))
	//nolint:staticcheck // 故意传入 nil context
	assert.ErrorIs(t, r.Do(nil, func(context.Context) error { return nil }), ErrNilContext)
	assert.ErrorIs(t, r.Do(context.Background(), nil), ErrNilFunc)

	_, err := DoWithResult[int](context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNilRetryer)
	//nolint:staticcheck // 故意传入 nil context
	_, err = DoWithResult[int](nil, r, nil)
	assert.ErrorIs(t, err, ErrNilContext)
	_, err = DoWithResult[int](context.Background(), r, nil)
	assert.ErrorIs(t, err, ErrNilFunc)
}

func TestDoWithResult(t *testing.T) {
	var calls int
	v, err := DoWithResult(context.Background(), fastRetryer(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "PONG", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "PONG", v)
}

func TestExponentialBackoff(t *testing.T) {
	b := NewExponentialBackoff(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(50*time.Millisecond),
		WithMultiplier(2),
		WithJitter(0),
		nil,
	)
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 10*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 20*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 40*time.Millisecond, b.NextDelay(3))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(4))
	assert.Equal(t, 50*time.Millisecond, b.NextDelay(10000))

	jittered := NewExponentialBackoff(WithInitialDelay(100*time.Millisecond), WithJitter(5))
	for range 50 {
		d := jittered.NextDelay(1)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}

	clamped := NewExponentialBackoff(WithInitialDelay(time.Minute), WithMaxDelay(time.Second))
	assert.Equal(t, time.Minute, clamped.NextDelay(1))
}

func TestFixedBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), NewFixedBackoff(-time.Second).NextDelay(3))
	assert.Equal(t, time.Second, NewFixedBackoff(time.Second).NextDelay(3))
}
