//go:build linux || darwin

package xsys

import (
	"fmt"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// 测试替换以覆盖错误路径，替换时不可 t.Parallel
var (
	getrlimit  = unix.Getrlimit
	setrlimit  = unix.Setrlimit
	setsockopt = unix.SetsockoptInt
)

var fileLimitMu sync.Mutex

// RaiseFileLimit 将 RLIMIT_NOFILE 软限制提升到 want，不超过硬限制，不降低现有值。
// 返回生效后的软限制。
func RaiseFileLimit(want uint64) (uint64, error) {
	if want == 0 {
		return 0, ErrInvalidFileLimit
	}
	fileLimitMu.Lock()
	defer fileLimitMu.Unlock()

	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	target := min(want, rl.Max)
	if target <= rl.Cur {
		return rl.Cur, nil
	}
	rl.Cur = target
	if err := setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("xsys: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return target, nil
}

// FileLimit 返回 RLIMIT_NOFILE 的软、硬限制。
func FileLimit() (soft, hard uint64, err error) {
	var rl unix.Rlimit
	if err := getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, 0, fmt.Errorf("xsys: getrlimit RLIMIT_NOFILE: %w", err)
	}
	return rl.Cur, rl.Max, nil
}

// ListenControl 返回 net.ListenConfig.Control，在 bind 前设置端口复用选项。
// 两者都为 false 时返回 nil。
func ListenControl(reuseAddr, reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reuseAddr && !reusePort {
		return nil
	}
	return func(_, _ string, c syscall.RawConn) error {
		var opErr error
		err := c.Control(func(fd uintptr) {
			if reuseAddr {
				if opErr = setsockopt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); opErr != nil {
					opErr = fmt.Errorf("xsys: SO_REUSEADDR: %w", opErr)
					return
				}
			}
			if reusePort {
				if opErr = setsockopt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); opErr != nil {
					opErr = fmt.Errorf("xsys: SO_REUSEPORT: %w", opErr)
				}
			}
		})
		if err != nil {
			return err
		}
		return opErr
	}
}
