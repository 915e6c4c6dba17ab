package xcron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron  *cron.Cron
	opts  *schedulerOptions
	stats *stats

	baseCtx    context.Context
	baseCancel context.CancelFunc
	immediate  sync.WaitGroup
	stopOnce   sync.Once
}

// New 默认 NoopLocker、本地时区、分钟级表达式。
func New(opts ...SchedulerOption) *Scheduler {
	o := defaultSchedulerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(o.location), cron.WithParser(o.parser)),
		opts:       o,
		stats:      newStats(),
		baseCtx:    ctx,
		baseCancel: cancel,
	}
}

func (s *Scheduler) AddFunc(spec string, fn func(ctx context.Context) error, opts ...JobOption) (JobID, error) {
	if fn == nil {
		return 0, ErrNilJob
	}
	return s.AddJob(spec, JobFunc(fn), opts...)
}

// AddJob 注册任务，spec 支持 cron 表达式与 @every 等描述符。
func (s *Scheduler) AddJob(spec string, job Job, opts ...JobOption) (JobID, error) {
	if job == nil {
		return 0, ErrNilJob
	}
	jo := jobOptions{lockTTL: defaultLockTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&jo)
		}
	}
	w := &jobWrapper{job: job, opts: jo, sched: s, logger: s.opts.logger}
	id, err := s.cron.AddJob(spec, w)
	if err != nil {
		return 0, fmt.Errorf("xcron: add job %q: %w", spec, err)
	}
	if jo.immediate {
		s.immediate.Add(1)
		go func() {
			defer s.immediate.Done()
			w.run(s.baseCtx)
		}()
	}
	return id, nil
}

func (s *Scheduler) Remove(id JobID) { s.cron.Remove(id) }

// Start 在后台开始调度，不阻塞。
func (s *Scheduler) Start() { s.cron.Start() }

// Stop 停止调度，取消运行中任务的 ctx 并等待其返回。可重复调用。
func (s *Scheduler) Stop() error {
	s.stopOnce.Do(func() {
		s.baseCancel()
		<-s.cron.Stop().Done()
		s.immediate.Wait()
	})
	return nil
}

// Entries 返回已注册任务
func (s *Scheduler) Entries() []cron.Entry { return s.cron.Entries() }

// Stats 返回按任务名汇总的执行统计
func (s *Scheduler) Stats() map[string]JobStats { return s.stats.snapshot() }
