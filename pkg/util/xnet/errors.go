package xnet

import "errors"

var (
	ErrInvalidRange   = errors.New("xnet: invalid IP range")
	ErrInvalidAddress = errors.New("xnet: invalid IP address")
)
