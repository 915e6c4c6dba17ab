package xpool

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"
)

// WorkerState 表示 worker 的运行状态。
type WorkerState int32

const (
	// StateWaiting 表示 worker 正在等待出队。
	StateWaiting WorkerState = iota
	// StateExecuting 表示 worker 正在执行任务。
	StateExecuting
	// StateTerminated 表示 worker 已退出循环。
	StateTerminated
)

// String 返回状态的可读名称。
func (s WorkerState) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateExecuting:
		return "Executing"
	case StateTerminated:
		return "Terminated"
	default:
		return "WorkerState(" + strconv.Itoa(int(s)) + ")"
	}
}

// worker 是一个专用 goroutine 及其出队-执行循环。
type worker struct {
	id    int
	pool  *Pool
	log   xlog.Logger
	state atomic.Int32

	// done 在 goroutine 退出时关闭，相当于线程的 join 句柄。
	// joined 保证句柄在关闭流程中只被消费一次。
	done    chan struct{}
	joined  atomic.Bool
	exitErr error // 在 close(done) 之前写入
}

func newWorker(id int, p *Pool) *worker {
	return &worker{
		id:   id,
		pool: p,
		log:  p.log.With(slog.Int("worker", id)),
		done: make(chan struct{}),
	}
}

// start 启动 worker goroutine。
func (w *worker) start() {
	go w.loop()
}

func (w *worker) loop() {
	normal := false
	defer func() {
		w.state.Store(int32(StateTerminated))
		if !normal {
			// 只有 runtime.Goexit 会走到这里：任务 panic 已在 execute 中恢复。
			w.exitErr = fmt.Errorf("%w: worker %d", ErrWorkerAborted, w.id)
			w.log.Error(context.Background(), "xpool: worker aborted by job, not respawned")
		}
		w.pool.workerExited()
		close(w.done)
	}()

	ctx := context.Background()
	for {
		job, ok := w.pool.queue.pop()
		if !ok {
			normal = true
			w.log.Debug(ctx, "xpool: worker disconnected; shutting down")
			return
		}
		w.state.Store(int32(StateExecuting))
		w.log.Debug(ctx, "xpool: worker got a job; executing")
		w.execute(job)
		w.state.Store(int32(StateWaiting))
	}
}

// execute 执行单个任务，捕获 panic 并记录观测结果。
func (w *worker) execute(job Job) {
	p := w.pool
	p.active.Add(1)

	ctx, span := xmetrics.Start(context.Background(), p.opts.observer, xmetrics.SpanOptions{
		Component: "xpool",
		Operation: "job",
		Kind:      xmetrics.KindInternal,
		Attrs:     []xmetrics.Attr{xmetrics.Int("worker", w.id)},
	})

	var result xmetrics.Result
	defer func() {
		if r := recover(); r != nil {
			p.panicked.Add(1)
			result.Err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
			w.log.Stack(ctx, "xpool: job panic recovered", slog.String("panic", fmt.Sprint(r)))
			w.notifyPanic(r)
		}
		p.active.Add(-1)
		span.End(result)
	}()

	job()
	p.completed.Add(1)
}

// notifyPanic 调用 panic 回调，回调自身的 panic 不扩散。
func (w *worker) notifyPanic(r any) {
	fn := w.pool.opts.onPanic
	if fn == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // 回调 panic 无需处理
	fn(w.id, r)
}

func (w *worker) currentState() WorkerState {
	return WorkerState(w.state.Load())
}
