package xlimit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
)

type fallbackLimiter struct {
	primary Limiter
	local   Limiter
	logger  xlog.Logger
}

// NewWithFallback Redis 限流出错时降级到同配额的本地限流。
func NewWithFallback(rdb redis.UniversalClient, limit Limit, opts ...Option) (Limiter, error) {
	primary, err := NewRedis(rdb, limit, opts...)
	if err != nil {
		return nil, err
	}
	local, err := NewLocal(limit, opts...)
	if err != nil {
		return nil, err
	}
	return &fallbackLimiter{primary: primary, local: local, logger: applyOptions(opts).logger}, nil
}

func (f *fallbackLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	res, err := f.primary.Allow(ctx, key)
	if err == nil {
		return res, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	f.logger.Warn(ctx, "xlimit: redis limiter failed; falling back to local",
		slog.String("key", key), xlog.Err(err))
	return f.local.Allow(ctx, key)
}

func (f *fallbackLimiter) Close() error {
	return errors.Join(f.primary.Close(), f.local.Close())
}
