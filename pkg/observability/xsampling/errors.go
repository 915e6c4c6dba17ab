package xsampling

import "errors"

var (
	ErrInvalidRate  = errors.New("xsampling: rate must be within [0, 1]")
	ErrInvalidCount = errors.New("xsampling: count must be positive")
	ErrNilKeyFunc   = errors.New("xsampling: nil key func")
	ErrNoSamplers   = errors.New("xsampling: no samplers")
	ErrNilSampler   = errors.New("xsampling: nil sampler")
)
