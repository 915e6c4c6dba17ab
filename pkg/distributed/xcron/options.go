package xcron

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
)

type schedulerOptions struct {
	locker   Locker
	logger   xlog.Logger
	observer xmetrics.Observer
	location *time.Location
	parser   cron.Parser
}

func defaultSchedulerOptions() *schedulerOptions {
	return &schedulerOptions{
		locker:   NoopLocker(),
		logger:   xlog.Default(),
		observer: xmetrics.NoopObserver{},
		location: time.Local,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

type SchedulerOption func(*schedulerOptions)

func WithLocker(l Locker) SchedulerOption {
	return func(o *schedulerOptions) {
		if l != nil {
			o.locker = l
		}
	}
}

func WithLogger(l xlog.Logger) SchedulerOption {
	return func(o *schedulerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithObserver(obs xmetrics.Observer) SchedulerOption {
	return func(o *schedulerOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithLocation(loc *time.Location) SchedulerOption {
	return func(o *schedulerOptions) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithSeconds 表达式首位为秒
func WithSeconds() SchedulerOption {
	return func(o *schedulerOptions) {
		o.parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	}
}

type jobOptions struct {
	name      string
	lockTTL   time.Duration
	timeout   time.Duration
	immediate bool
}

type JobOption func(*jobOptions)

// WithName 任务名，也是锁键；未命名任务不加锁。
func WithName(name string) JobOption {
	return func(o *jobOptions) { o.name = name }
}

// WithLockTTL 锁的存活时间，默认 1 分钟，应大于任务耗时。
func WithLockTTL(ttl time.Duration) JobOption {
	return func(o *jobOptions) {
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

func WithTimeout(d time.Duration) JobOption {
	return func(o *jobOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithImmediate 注册后立即执行一次
func WithImmediate() JobOption {
	return func(o *jobOptions) { o.immediate = true }
}
