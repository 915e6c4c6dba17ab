package xsys

import "errors"

var (
	ErrInvalidFileLimit    = errors.New("xsys: file limit must be greater than 0")
	ErrUnsupportedPlatform = errors.New("xsys: unsupported platform")
)
