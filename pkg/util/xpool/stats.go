package xpool

import (
	"github.com/omeyang/xpoolsrv/pkg/observability/xmetrics"

	"go.opentelemetry.io/otel/metric"
)

// Stats 是 Pool 运行指标的快照。各字段分别读取，彼此之间不保证原子一致。
type Stats struct {
	Workers   int    // 构造时的 worker 数量
	Alive     int    // 尚未退出的 worker 数量
	Active    int    // 正在执行任务的 worker 数量
	Pending   int    // 队列中等待的任务数
	Submitted uint64 // 累计接受的任务数
	Completed uint64 // 累计正常返回的任务数
	Panicked  uint64 // 累计 panic 的任务数
}

// Stats 返回当前指标快照。
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.size,
		Alive:     int(p.alive.Load()),
		Active:    int(p.active.Load()),
		Pending:   p.queue.len(),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// RegisterGauges 将 pool 指标注册为 OTel observable gauge。
// 返回的函数用于注销回调。
func RegisterGauges(p *Pool, provider metric.MeterProvider) (func() error, error) {
	return xmetrics.RegisterInt64Gauges(provider, map[string]func() int64{
		"xpoolsrv.pool.pending":   func() int64 { return int64(p.queue.len()) },
		"xpoolsrv.pool.active":    func() int64 { return p.active.Load() },
		"xpoolsrv.pool.alive":     func() int64 { return int64(p.alive.Load()) },
		"xpoolsrv.pool.completed": func() int64 { return int64(p.completed.Load()) },
		"xpoolsrv.pool.panicked":  func() int64 { return int64(p.panicked.Load()) },
	})
}
