// Package xpool 提供固定大小的 worker pool，执行任意生产者提交的 [Job]。
//
// Pool 在构造时一次性创建任务队列和 N 个 worker goroutine，之后规模不再变化。
// 支持以下特性：
//   - 多生产者并发 Submit，同一生产者提交的任务按提交顺序出队（FIFO）
//   - 默认无界队列，Submit 永不阻塞；可通过 WithQueueSize 设置容量上限
//   - 优雅关闭：Shutdown 先关闭入队端，再按创建顺序逐个 join worker，
//     关闭前已接受的任务全部执行完毕后才返回
//   - 超时关闭：Shutdown(ctx) 在 ctx 到期时返回，残留 worker 继续排空队列，
//     可通过 Done() 等待最终退出
//   - panic 恢复：单个任务 panic 不影响所属 worker 与其他任务（含堆栈日志）
//   - 可注入 xlog.Logger 与 xmetrics.Observer
//
// # 队列与 worker
//
// 所有 worker 共享同一个出队点，由互斥锁保护；锁只在取任务的瞬间持有，
// 任务执行期间不持锁，因此 N 个 worker 可以真正并发执行 N 个任务。
// 队列关闭后仍会交付已缓冲的任务，排空之后出队返回"已关闭"而非阻塞。
//
// worker 状态：Waiting → Executing → Waiting → ... → Terminated。
//
// # 错误约定
//
//   - New(0) 返回 ErrInvalidSize；MustNew(0) 直接 panic（程序错误）
//   - Shutdown 开始后 Submit 立即返回 ErrPoolStopped，任务不会入队
//   - 任务 panic 被 worker 捕获并记录，不重试、不重新入队
//   - 任务调用 runtime.Goexit 会终止所属 worker，该 worker 不会被补充，
//     Shutdown 以 ErrWorkerAborted 报告
//
// # 注意事项
//
//   - Shutdown/Close 不可在任务内调用，否则会死锁
//   - 任务之间共享的状态由任务构造方自行同步
//   - 已出队的任务无法取消；Pool 不对任务施加超时
package xpool
