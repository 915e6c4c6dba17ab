package xlimit

import (
	"math"
	"strconv"
	"time"
)

// Limit 每 Period 允许 Rate 次，Burst 为突发上限（0 表示等于 Rate）。
type Limit struct {
	Rate   int           `koanf:"rate"`
	Burst  int           `koanf:"burst"`
	Period time.Duration `koanf:"period"`
}

// PerSecond 便捷构造
func PerSecond(rate int) Limit {
	return Limit{Rate: rate, Burst: rate, Period: time.Second}
}

func (l Limit) validate() error {
	if l.Rate <= 0 || l.Period <= 0 || l.Burst < 0 {
		return ErrInvalidLimit
	}
	return nil
}

func (l Limit) burst() int {
	if l.Burst == 0 {
		return l.Rate
	}
	return l.Burst
}

// Result 一次检查的结果
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration

	// Backend 实际作出判定的后端：local / redis
	Backend string
}

// Headers 返回应附加到响应的限流头，Retry-After 向上取整到秒。
func (r *Result) Headers() map[string]string {
	h := map[string]string{
		"X-RateLimit-Limit":     strconv.Itoa(r.Limit),
		"X-RateLimit-Remaining": strconv.Itoa(max(r.Remaining, 0)),
	}
	if !r.Allowed && r.RetryAfter > 0 {
		h["Retry-After"] = strconv.FormatInt(int64(math.Ceil(r.RetryAfter.Seconds())), 10)
	}
	return h
}
