package xcron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
)

const defaultLockTTL = time.Minute

// jobWrapper 实现 cron.Job，为任务加上锁、超时、观测与统计。
type jobWrapper struct {
	job    Job
	opts   jobOptions
	sched  *Scheduler
	logger xlog.Logger
}

func (w *jobWrapper) Run() {
	w.run(w.sched.baseCtx)
}

func (w *jobWrapper) run(base context.Context) {
	ctx, cancel := context.WithCancel(base)
	defer cancel()
	name := w.opts.name

	if name != "" {
		handle, err := w.sched.opts.locker.TryLock(ctx, name, w.opts.lockTTL)
		if err != nil || handle == nil {
			w.sched.stats.skip(name)
			w.logger.Debug(ctx, "xcron: lock not acquired; skipping", slog.String("job", name), xlog.Err(err))
			return
		}
		defer func() {
			unlockCtx, c := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer c()
			if err := handle.Unlock(unlockCtx); err != nil {
				w.logger.Warn(ctx, "xcron: failed to release lock", slog.String("job", name), xlog.Err(err))
			}
		}()
	}

	if w.opts.timeout > 0 {
		var c context.CancelFunc
		ctx, c = context.WithTimeout(ctx, w.opts.timeout)
		defer c()
	}

	ctx, span := xmetrics.Start(ctx, w.sched.opts.observer, xmetrics.SpanOptions{
		Component: "xcron",
		Operation: "job",
		Kind:      xmetrics.KindInternal,
		Attrs:     []xmetrics.Attr{xmetrics.String("job", name)},
	})
	start := time.Now()
	err := w.safeRun(ctx)
	d := time.Since(start)
	span.End(xmetrics.Result{Err: err})
	w.sched.stats.record(name, start, d, err)

	if err != nil {
		w.logger.Error(ctx, "xcron: job failed", slog.String("job", name), xlog.Duration(d), xlog.Err(err))
		return
	}
	w.logger.Debug(ctx, "xcron: job completed", slog.String("job", name), xlog.Duration(d))
}

func (w *jobWrapper) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return w.job.Run(ctx)
}
