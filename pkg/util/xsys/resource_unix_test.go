//go:build linux || darwin

package xsys

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestRaiseFileLimit_Invalid(t *testing.T) {
	_, err := RaiseFileLimit(0)
	assert.ErrorIs(t, err, ErrInvalidFileLimit)
}

func TestRaiseFileLimit_NeverLowers(t *testing.T) {
	soft, _, err := FileLimit()
	require.NoError(t, err)

	got, err := RaiseFileLimit(1)
	require.NoError(t, err)
	assert.Equal(t, soft, got)
}

func TestRaiseFileLimit_CapsAtHard(t *testing.T) {
	origGet, origSet := getrlimit, setrlimit
	t.Cleanup(func() { getrlimit, setrlimit = origGet, origSet })

	var applied unix.Rlimit
	getrlimit = func(_ int, rl *unix.Rlimit) error {
		rl.Cur, rl.Max = 1024, 4096
		return nil
	}
	setrlimit = func(_ int, rl *unix.Rlimit) error {
		applied = *rl
		return nil
	}

	got, err := RaiseFileLimit(100000)
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), got)
	assert.Equal(t, uint64(4096), applied.Cur)
	assert.Equal(t, uint64(4096), applied.Max)
}

func TestRaiseFileLimit_Errors(t *testing.T) {
	origGet, origSet := getrlimit, setrlimit
	t.Cleanup(func() { getrlimit, setrlimit = origGet, origSet })

	getrlimit = func(int, *unix.Rlimit) error { return unix.EPERM }
	_, err := RaiseFileLimit(10)
	assert.ErrorIs(t, err, unix.EPERM)
	_, _, err = FileLimit()
	assert.ErrorIs(t, err, unix.EPERM)

	getrlimit = func(_ int, rl *unix.Rlimit) error {
		rl.Cur, rl.Max = 1, 10
		return nil
	}
	setrlimit = func(int, *unix.Rlimit) error { return unix.EINVAL }
	_, err = RaiseFileLimit(10)
	assert.ErrorIs(t, err, unix.EINVAL)
}

func TestListenControl(t *testing.T) {
	assert.Nil(t, ListenControl(false, false))

	lc := net.ListenConfig{Control: ListenControl(true, true)}
	ln1, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln1.Close()

	ln2, err := lc.Listen(context.Background(), "tcp", ln1.Addr().String())
	require.NoError(t, err, "SO_REUSEPORT allows a second listener on the same port")
	require.NoError(t, ln2.Close())
}

func TestListenControl_SetsockoptError(t *testing.T) {
	orig := setsockopt
	t.Cleanup(func() { setsockopt = orig })
	setsockopt = func(int, int, int, int) error { return errors.New("denied") }

	lc := net.ListenConfig{Control: ListenControl(true, false)}
	_, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SO_REUSEADDR")

	lc = net.ListenConfig{Control: ListenControl(false, true)}
	_, err = lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SO_REUSEPORT")
}
