// Package xretry 提供带退避的重试执行器，底层使用 [avast/retry-go/v5]。
//
// xpoolsrv 用它在启动阶段重试监听端口绑定与 Redis 连通性检查：
//
//	r := xretry.NewRetryer(
//	    xretry.WithAttempts(5),
//	    xretry.WithBackoff(xretry.NewExponentialBackoff(xretry.WithInitialDelay(50*time.Millisecond))),
//	)
//	err := r.Do(ctx, func(ctx context.Context) error { ... })
//
// 用 Permanent 包装的错误立即终止重试。
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
