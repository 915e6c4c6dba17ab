//go:build !linux && !darwin

package xsys

import "syscall"

func RaiseFileLimit(want uint64) (uint64, error) {
	if want == 0 {
		return 0, ErrInvalidFileLimit
	}
	return 0, ErrUnsupportedPlatform
}

func FileLimit() (soft, hard uint64, err error) {
	return 0, 0, ErrUnsupportedPlatform
}

// ListenControl 其他平台不设置任何选项。
func ListenControl(bool, bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
