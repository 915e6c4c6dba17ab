package xserver

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
	"github.com/omeyang/xpoolsrv/pkg/resilience/xlimit"
	"github.com/omeyang/xpoolsrv/pkg/util/xnet"
)

const (
	// DefaultAddr Run 的默认监听地址
	DefaultAddr = "127.0.0.1:7878"
	// DefaultReadTimeout 读取请求的默认超时
	DefaultReadTimeout = 10 * time.Second
	// DefaultBindAttempts 监听失败时的默认尝试次数
	DefaultBindAttempts = 3
)

type options struct {
	addr         string
	logger       xlog.Logger
	observer     xmetrics.Observer
	readTimeout  time.Duration
	maxConns     uint64
	acceptRate   *rate.Limiter
	allowlist    *xnet.Allowlist
	limiter      xlimit.Limiter
	bindAttempts int
	reusePort    bool
}

func defaultOptions() options {
	return options{
		addr:         DefaultAddr,
		logger:       xlog.Default(),
		observer:     xmetrics.NoopObserver{},
		readTimeout:  DefaultReadTimeout,
		bindAttempts: DefaultBindAttempts,
	}
}

// Option 配置 New
type Option func(*options)

// WithAddr Run 使用的监听地址
func WithAddr(addr string) Option {
	return func(o *options) {
		if addr != "" {
			o.addr = addr
		}
	}
}

// WithLogger 默认 xlog.Default()，nil 忽略。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 每个连接一个 xserver/handle 跨度，默认不观测。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithReadTimeout 读取请求的超时，0 表示不设置。
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.readTimeout = d
		}
	}
}

// WithMaxConns 成功提交 n 个连接后停止接受，Serve 返回 nil。0 表示不限。
// 被白名单、限流拒绝或提交失败的连接不计入。
func WithMaxConns(n uint64) Option {
	return func(o *options) { o.maxConns = n }
}

// WithAcceptRate 限制全局接受速率，r<=0 表示不限。
func WithAcceptRate(r float64, burst int) Option {
	return func(o *options) {
		if r <= 0 {
			o.acceptRate = nil
			return
		}
		o.acceptRate = rate.NewLimiter(rate.Limit(r), max(burst, 1))
	}
}

// WithAllowlist 只接受来源地址在白名单中的连接，nil 表示不限。
func WithAllowlist(a *xnet.Allowlist) Option {
	return func(o *options) { o.allowlist = a }
}

// WithLimiter 按客户端 IP 限流，超限的连接收到 429。Server 不负责关闭 l。
func WithLimiter(l xlimit.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithBindAttempts 监听失败的总尝试次数，至少 1。
func WithBindAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bindAttempts = n
		}
	}
}

// WithReusePort 监听时设置 SO_REUSEPORT，多进程共享端口。
func WithReusePort(enable bool) Option {
	return func(o *options) { o.reusePort = enable }
}
