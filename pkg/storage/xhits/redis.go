package xhits

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xbreaker"
)

const DefaultHashKey = "xpoolsrv:hits"

type redisOptions struct {
	hashKey string
	logger  xlog.Logger
	breaker *xbreaker.Breaker
}

// RedisOption 配置 NewRedis
type RedisOption func(*redisOptions)

// WithHashKey 计数所在的哈希 key，默认 DefaultHashKey，空值忽略。
func WithHashKey(key string) RedisOption {
	return func(o *redisOptions) {
		if key != "" {
			o.hashKey = key
		}
	}
}

// WithLogger 降级与熔断状态变化的日志
func WithLogger(l xlog.Logger) RedisOption {
	return func(o *redisOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBreaker 默认连续 5 次失败熔断，10 秒后半开探测。
func WithBreaker(b *xbreaker.Breaker) RedisOption {
	return func(o *redisOptions) {
		if b != nil {
			o.breaker = b
		}
	}
}

// Redis 基于 Redis 哈希的计数
type Redis struct {
	client   redis.UniversalClient
	opts     redisOptions
	fallback *Memory
}

// NewRedis 创建 Redis 计数，client 由调用方关闭。
func NewRedis(client redis.UniversalClient, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := redisOptions{hashKey: DefaultHashKey, logger: xlog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.breaker == nil {
		o.breaker = xbreaker.New("xhits-redis",
			xbreaker.WithTimeout(10*time.Second),
			xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
				o.logger.Warn(context.Background(), "xhits: breaker state changed",
					slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
			}))
	}
	return &Redis{client: client, opts: o, fallback: NewMemory()}, nil
}

// Incr 使用 HINCRBY，Redis 失败时记入本地计数，只有 ctx 错误会返回。
func (r *Redis) Incr(ctx context.Context, key string) error {
	if err := check(ctx, key); err != nil {
		return err
	}
	err := r.opts.breaker.Do(ctx, func(ctx context.Context) error {
		return r.client.HIncrBy(ctx, r.opts.hashKey, key, 1).Err()
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !xbreaker.IsOpen(err) {
		r.opts.logger.Warn(ctx, "xhits: redis incr failed; counting locally", xlog.Err(err))
	}
	return r.fallback.Incr(ctx, key)
}

// Snapshot 合并本地降级计数与 Redis 计数。Redis 不可用时只返回本地计数，
// 非整数字段记录告警后跳过。
func (r *Redis) Snapshot(ctx context.Context) (map[string]int64, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	local, _ := r.fallback.Snapshot(ctx)
	remote, err := xbreaker.Execute(ctx, r.opts.breaker, func(ctx context.Context) (map[string]string, error) {
		return r.client.HGetAll(ctx, r.opts.hashKey).Result()
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !xbreaker.IsOpen(err) {
			r.opts.logger.Warn(ctx, "xhits: redis snapshot failed; returning local counts", xlog.Err(err))
		}
		return local, nil
	}
	for field, raw := range remote {
		n, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			// 外部写入的脏字段不影响其余计数
			r.opts.logger.Warn(ctx, "xhits: skipping non-integer field",
				slog.String("field", field), slog.String("value", raw), xlog.Err(perr))
			continue
		}
		local[field] += n
	}
	return local, nil
}

// Breaker 返回保护 Redis 调用的熔断器
func (r *Redis) Breaker() *xbreaker.Breaker { return r.opts.breaker }

// Close 不关闭外部传入的 client
func (r *Redis) Close() error { return nil }
