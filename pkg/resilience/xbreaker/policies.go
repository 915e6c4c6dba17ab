package xbreaker

import "github.com/sony/gobreaker/v2"

type (
	Counts = gobreaker.Counts
	State  = gobreaker.State
)

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// TripPolicy 判定 Closed 是否转为 Open
type TripPolicy interface {
	ReadyToTrip(counts Counts) bool
}

// ConsecutiveFailures 连续失败 threshold 次熔断
type ConsecutiveFailures uint32

func (p ConsecutiveFailures) ReadyToTrip(c Counts) bool {
	return c.ConsecutiveFailures >= uint32(p)
}

// FailureRatio 请求数不少于 MinRequests 且失败率不低于 Ratio 时熔断
type FailureRatio struct {
	Ratio       float64
	MinRequests uint32
}

func (p FailureRatio) ReadyToTrip(c Counts) bool {
	if c.Requests == 0 || c.Requests < p.MinRequests {
		return false
	}
	return float64(c.TotalFailures)/float64(c.Requests) >= p.Ratio
}
