package xlimit

import (
	"context"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
)

const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

// Limiter 并发安全的限流器。
// err == nil 时 Result 非 nil。
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Close() error
}

type options struct {
	logger  xlog.Logger
	prefix  string
	maxKeys int
	idleTTL time.Duration
}

type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:  xlog.Default(),
		prefix:  "xpoolsrv:",
		maxKeys: 10000,
		idleTTL: 10 * time.Minute,
	}
}

func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPrefix 设置 Redis 键前缀，默认 "xpoolsrv:"。
func WithPrefix(p string) Option {
	return func(o *options) {
		o.prefix = p
	}
}

// WithMaxKeys 本地限流最多跟踪的键数，超出时淘汰最久未用的键。
func WithMaxKeys(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxKeys = n
		}
	}
}

// WithIdleTTL 本地限流键的空闲过期时间。
func WithIdleTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTTL = d
		}
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
