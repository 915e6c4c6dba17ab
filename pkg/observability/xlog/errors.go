package xlog

import "errors"

var (
	// ErrNilHandler NewEnrichHandler 的 base 为 nil
	ErrNilHandler = errors.New("xlog: base handler is nil")

	// ErrUnknownLevel 无法识别的级别名
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 格式不是 text 或 json
	ErrUnknownFormat = errors.New("xlog: unknown format")
)
