package xpool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xpoolsrv/pkg/observability/xlog"
)

// maxSize worker 数量上限。
const maxSize = 1 << 16

// 编译期断言：Pool 满足 io.Closer。
var _ io.Closer = (*Pool)(nil)

// Job 是提交给 Pool 的单次执行工作单元。
// 任务所需状态应由闭包按值捕获；任务只会被调用一次。
type Job func()

// Pool 持有固定数量的 worker 和任务队列的入队端。
type Pool struct {
	size    int
	queue   *jobQueue
	workers []*worker
	opts    options
	log     xlog.Logger

	closeOnce sync.Once
	alive     atomic.Int32
	allDone   chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	panicked  atomic.Uint64
	active    atomic.Int64
}

// New 创建 Pool 并立即启动 size 个 worker。
//
// size 必须在 [1, 65536] 范围内，否则返回 ErrInvalidSize。
// 如需把非法 size 视为程序错误直接终止，使用 [MustNew]。
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 || size > maxSize {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidSize, size, maxSize)
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.queueSize < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQueueSize, o.queueSize)
	}

	p := &Pool{
		size:    size,
		queue:   newJobQueue(o.queueSize),
		workers: make([]*worker, size),
		opts:    o,
		log:     o.poolLogger(),
		allDone: make(chan struct{}),
	}
	p.alive.Store(int32(size))

	// 先构造全部 worker 再启动，保证 workers 切片在 goroutine 运行前已完整。
	for i := range size {
		p.workers[i] = newWorker(i, p)
	}
	for _, w := range p.workers {
		w.start()
	}

	p.log.Info(context.Background(), "xpool: started",
		slog.Int("workers", size),
		slog.Int("queue_size", o.queueSize),
	)
	return p, nil
}

// MustNew 与 New 相同，但参数无效时 panic。
func MustNew(size int, opts ...Option) *Pool {
	p, err := New(size, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Submit 将任务追加到队尾，不会阻塞。
//
// Shutdown 开始后返回 ErrPoolStopped，任务不会被排队；
// 有界队列已满时返回 ErrQueueFull。
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if err := p.queue.push(job); err != nil {
		if errors.Is(err, ErrQueueFull) {
			p.log.Warn(context.Background(), "xpool: queue full, job rejected",
				slog.Int("queue_size", p.opts.queueSize))
		}
		return err
	}
	p.submitted.Add(1)
	return nil
}

// Shutdown 关闭入队端，然后按创建顺序 join 每个 worker。
//
// 关闭前已接受的任务全部执行完后返回 nil。ctx 先到期时返回 ctx 错误，
// 残留 worker 在后台继续排空队列，可通过 Done() 等待。
// 非正常退出的 worker 以 ErrWorkerAborted 报告。
//
// 重复调用不会再次关闭队列：只继续 join 尚未 join 的 worker，
// 全部 join 后再调用为空操作。
func (p *Pool) Shutdown(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	p.closeOnce.Do(func() {
		p.queue.close()
		p.log.Info(ctx, "xpool: submission closed, draining",
			slog.Int("pending", p.queue.len()))
	})

	var errs []error
	for _, w := range p.workers {
		if w.joined.Load() {
			continue
		}
		p.log.Info(ctx, "xpool: shutting down worker", slog.Int("worker", w.id))
		select {
		case <-w.done:
			// 并发的 Shutdown 只有一个能消费该句柄。
			if w.joined.CompareAndSwap(false, true) && w.exitErr != nil {
				errs = append(errs, w.exitErr)
			}
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("xpool: shutdown interrupted at worker %d: %w", w.id, ctx.Err()))
			return errors.Join(errs...)
		}
	}
	return errors.Join(errs...)
}

// Close 等价于 Shutdown(context.Background())，无限等待所有任务完成。
func (p *Pool) Close() error {
	return p.Shutdown(context.Background())
}

// Done 返回一个在所有 worker 退出后关闭的 channel。
func (p *Pool) Done() <-chan struct{} {
	return p.allDone
}

// Size 返回构造时指定的 worker 数量。
func (p *Pool) Size() int {
	return p.size
}

// Stopped 报告入队端是否已关闭。
func (p *Pool) Stopped() bool {
	return p.queue.isClosed()
}

// WorkerStates 按创建顺序返回每个 worker 的当前状态。
func (p *Pool) WorkerStates() []WorkerState {
	states := make([]WorkerState, len(p.workers))
	for i, w := range p.workers {
		states[i] = w.currentState()
	}
	return states
}

// workerExited 由 worker goroutine 退出时调用。
func (p *Pool) workerExited() {
	if p.alive.Add(-1) == 0 {
		close(p.allDone)
	}
}
