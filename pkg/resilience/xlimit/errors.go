package xlimit

import "errors"

var (
	ErrInvalidLimit = errors.New("xlimit: rate and period must be positive, burst must not be negative")
	ErrNilClient    = errors.New("xlimit: nil redis client")
	ErrClosed       = errors.New("xlimit: limiter closed")
)
