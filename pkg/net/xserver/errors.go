package xserver

import "errors"

var (
	ErrNilSubmitter = errors.New("xserver: nil submitter")
	ErrNilHandler   = errors.New("xserver: nil handler")
	ErrNilListener  = errors.New("xserver: nil listener")
	ErrNilContext   = errors.New("xserver: nil context")
	ErrNilPages     = errors.New("xserver: nil page source")

	// ErrBadRequest 请求行为空或无法读取
	ErrBadRequest = errors.New("xserver: bad request")
)
