package xpool

import "errors"

var (
	// ErrInvalidSize 表示 worker 数量无效（必须在 [1, 65536] 范围内）。
	ErrInvalidSize = errors.New("xpool: invalid pool size")

	// ErrInvalidQueueSize 表示队列容量无效（不能为负数）。
	ErrInvalidQueueSize = errors.New("xpool: invalid queue size")

	// ErrNilJob 表示提交的任务为 nil。
	ErrNilJob = errors.New("xpool: job cannot be nil")

	// ErrPoolStopped 表示 pool 已开始关闭，无法再提交任务。
	ErrPoolStopped = errors.New("xpool: pool is stopped")

	// ErrQueueFull 表示有界队列已满。
	ErrQueueFull = errors.New("xpool: queue is full")

	// ErrNilContext 表示 context 参数为 nil。
	ErrNilContext = errors.New("xpool: nil context")

	// ErrJobPanicked 表示任务执行期间发生 panic（仅用于观测结果）。
	ErrJobPanicked = errors.New("xpool: job panicked")

	// ErrWorkerAborted 表示 worker goroutine 非正常退出（任务调用了 runtime.Goexit）。
	ErrWorkerAborted = errors.New("xpool: worker aborted")
)
