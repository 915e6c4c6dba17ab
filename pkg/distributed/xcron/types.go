package xcron

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
)

var (
	ErrNilJob      = errors.New("xcron: nil job")
	ErrJobPanicked = errors.New("xcron: job panicked")
	ErrLockNotHeld = errors.New("xcron: lock not held by this instance")
	ErrNilClient   = errors.New("xcron: nil redis client")
)

// JobID 任务标识
type JobID = cron.EntryID

// Job 定时任务，ctx 在超时或调度器停止时取消。
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc 函数适配为 Job
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }
