package xlimit

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRedis 创建分布式限流器，rdb 由调用方负责关闭。
func NewRedis(rdb redis.UniversalClient, limit Limit, opts ...Option) (Limiter, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}
	if err := limit.validate(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	return &redisLimiter{
		limiter: redis_rate.NewLimiter(rdb),
		limit:   redis_rate.Limit{Rate: limit.Rate, Burst: limit.burst(), Period: limit.Period},
		prefix:  o.prefix,
	}, nil
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := l.limiter.Allow(ctx, l.prefix+key, l.limit)
	if err != nil {
		return nil, err
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      l.limit.Rate,
		Remaining:  res.Remaining,
		RetryAfter: max(res.RetryAfter, 0),
		Backend:    BackendRedis,
	}, nil
}

// Reset 清除某个键的配额记录
func (l *redisLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.prefix+key)
}

func (l *redisLimiter) Close() error { return nil }
