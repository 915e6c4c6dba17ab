package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器，实现必须并发安全。
// Close 之后 Write 与 Rotate 返回 [ErrClosed]。
type Rotator interface {
	io.WriteCloser

	// Rotate 手动触发轮转。
	Rotate() error
}
