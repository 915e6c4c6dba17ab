package xlru

import "errors"

var (
	ErrInvalidSize    = errors.New("xlru: size must be greater than 0")
	ErrSizeExceedsMax = errors.New("xlru: size must not exceed 16777216")
	ErrInvalidTTL     = errors.New("xlru: TTL must not be negative")
	ErrNilLoader      = errors.New("xlru: nil loader")
)
