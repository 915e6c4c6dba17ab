// Package xrun 管理进程内多个服务的并发运行与协调关闭。
//
// 基于 [errgroup] 构建：任一服务返回错误、收到终止信号或调用 Cancel 时，
// 共享 context 被取消，其余服务应监听 ctx.Done() 后退出。
//
// 典型用法：
//
//	err := xrun.RunWithOptions(ctx, []xrun.Option{
//	    xrun.WithName("xpoolsrv"),
//	    xrun.WithLogger(logger),
//	},
//	    srv.Serve,
//	    xrun.Stoppable(watcher.Start, watcher.Stop),
//	)
//	if errors.Is(err, xrun.ErrSignal) {
//	    // 信号退出
//	}
//
// Wait 的返回值优先保留显式的取消原因（如 *SignalError），
// 普通的 context.Canceled 被过滤为 nil。
//
// [errgroup]: https://pkg.go.dev/golang.org/x/sync/errgroup
package xrun
