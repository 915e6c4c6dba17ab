package xlimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/omeyang/xpoolsrv/pkg/util/xlru"
)

type localLimiter struct {
	limit   Limit
	every   rate.Limit
	mu      sync.Mutex
	buckets *xlru.Cache[string, *rate.Limiter]
}

// NewLocal 创建进程内限流器。
func NewLocal(limit Limit, opts ...Option) (Limiter, error) {
	if err := limit.validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	buckets, err := xlru.New[string, *rate.Limiter](xlru.Config{Size: o.maxKeys, TTL: o.idleTTL})
	if err != nil {
		return nil, err
	}
	return &localLimiter{
		limit:   limit,
		every:   rate.Limit(float64(limit.Rate) / limit.Period.Seconds()),
		buckets: buckets,
	}, nil
}

func (l *localLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets.Get(key); ok {
		return b
	}
	b := rate.NewLimiter(l.every, l.limit.burst())
	l.buckets.Set(key, b)
	return b
}

func (l *localLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now()
	b := l.bucket(key)
	res := &Result{Limit: l.limit.Rate, Backend: BackendLocal}

	r := b.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		res.RetryAfter = delay
		return res, nil
	}
	res.Allowed = true
	res.Remaining = int(b.TokensAt(now))
	return res, nil
}

func (l *localLimiter) Close() error {
	l.buckets.Close()
	return nil
}
