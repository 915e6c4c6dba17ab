package xcron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob_Errors(t *testing.T) {
	s := New()
	defer func() { require.NoError(t, s.Stop()) }()

	_, err := s.AddFunc("@every 1s", nil)
	assert.ErrorIs(t, err, ErrNilJob)
	_, err = s.AddJob("@every 1s", nil)
	assert.ErrorIs(t, err, ErrNilJob)
	_, err = s.AddFunc("not a spec", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_RunsAndRecordsStats(t *testing.T) {
	s := New(WithSeconds(), WithLocation(time.UTC), WithLogger(nil), WithObserver(nil), nil)
	var runs atomic.Int32
	id, err := s.AddFunc("@every 1s", func(context.Context) error {
		runs.Add(1)
		return nil
	}, WithName("tick"), WithImmediate())
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)

	s.Start()
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
	s.Remove(id)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	st := s.Stats()["tick"]
	assert.GreaterOrEqual(t, st.Runs, int64(2))
	assert.Zero(t, st.Failures)
	assert.Empty(t, st.LastError)
	assert.Empty(t, s.Entries())
}

func TestJob_ErrorAndPanicAreRecorded(t *testing.T) {
	s := New()
	defer func() { require.NoError(t, s.Stop()) }()

	done := make(chan struct{}, 2)
	_, err := s.AddFunc("@every 1h", func(context.Context) error {
		defer func() { done <- struct{}{} }()
		return errors.New("boom")
	}, WithName("fail"), WithImmediate())
	require.NoError(t, err)
	_, err = s.AddFunc("@every 1h", func(context.Context) error {
		defer func() { done <- struct{}{} }()
		panic("oops")
	}, WithName("panic"), WithImmediate())
	require.NoError(t, err)
	<-done
	<-done

	require.Eventually(t, func() bool {
		st := s.Stats()
		return st["fail"].Runs == 1 && st["panic"].Runs == 1
	}, time.Second, 10*time.Millisecond)
	st := s.Stats()
	assert.Equal(t, "boom", st["fail"].LastError)
	assert.Equal(t, int64(1), st["panic"].Failures)
	assert.Contains(t, st["panic"].LastError, "oops")
}

func TestJob_TimeoutCancelsContext(t *testing.T) {
	s := New()
	errCh := make(chan error, 1)
	_, err := s.AddFunc("@every 1h", func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}, WithTimeout(20*time.Millisecond), WithTimeout(0), WithImmediate())
	require.NoError(t, err)
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
	require.NoError(t, s.Stop())
}

func TestStop_CancelsRunningJob(t *testing.T) {
	s := New()
	started := make(chan struct{})
	_, err := s.AddFunc("@every 1h", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, WithImmediate())
	require.NoError(t, err)
	<-started
	require.NoError(t, s.Stop())
}

type denyLocker struct{ calls atomic.Int32 }

func (d *denyLocker) TryLock(context.Context, string, time.Duration) (LockHandle, error) {
	d.calls.Add(1)
	return nil, nil
}

func TestJob_SkippedWhenLockHeld(t *testing.T) {
	l := &denyLocker{}
	s := New(WithLocker(l), WithLocker(nil))
	var runs atomic.Int32
	_, err := s.AddFunc("@every 1h", func(context.Context) error {
		runs.Add(1)
		return nil
	}, WithName("locked"), WithLockTTL(time.Second), WithLockTTL(-1), WithImmediate())
	require.NoError(t, err)
	require.NoError(t, s.Stop())

	assert.Equal(t, int32(1), l.calls.Load())
	assert.Zero(t, runs.Load())
	assert.Equal(t, int64(1), s.Stats()["locked"].Skips)
}

func TestJob_UnnamedSkipsLocker(t *testing.T) {
	l := &denyLocker{}
	s := New(WithLocker(l))
	var runs atomic.Int32
	_, err := s.AddFunc("@every 1h", func(context.Context) error {
		runs.Add(1)
		return nil
	}, WithImmediate())
	require.NoError(t, err)
	require.NoError(t, s.Stop())
	assert.Zero(t, l.calls.Load())
	assert.Equal(t, int32(1), runs.Load())
}
