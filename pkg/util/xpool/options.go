package xpool

import (
	"log/slog"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
)

// Option 定义 Pool 可选配置函数类型。
type Option func(*options)

type options struct {
	logger    xlog.Logger
	observer  xmetrics.Observer
	name      string
	queueSize int
	onPanic   func(worker int, recovered any)
}

func defaultOptions() options {
	return options{
		logger:   xlog.Default(),
		observer: xmetrics.NoopObserver{},
	}
}

// WithLogger 设置日志记录器。
// 默认使用 xlog.Default()。传入 nil 将被忽略。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver 设置观测器，每个任务的执行记录为一个跨度。
// 默认为 xmetrics.NoopObserver。传入 nil 将被忽略。
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithName 设置 pool 名称，用于在多实例场景下区分日志来源。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithQueueSize 设置队列容量上限。
// 0（默认）表示无界队列；队列满时 Submit 返回 ErrQueueFull。
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithPanicHandler 设置任务 panic 回调。
// 回调在 worker goroutine 中同步执行，回调自身的 panic 会被吞掉。
func WithPanicHandler(fn func(worker int, recovered any)) Option {
	return func(o *options) {
		o.onPanic = fn
	}
}

// poolLogger 返回带 pool 名称的派生 logger。
func (o *options) poolLogger() xlog.Logger {
	if o.name == "" {
		return o.logger
	}
	return o.logger.With(slog.String("pool", o.name))
}
