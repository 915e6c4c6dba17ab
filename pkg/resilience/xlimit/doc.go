// Package xlimit 按客户端键限流。
//
// 三种实现共享 Limiter 接口：
//   - NewLocal: 进程内令牌桶（golang.org/x/time/rate），按键存于 xlru 缓存，空闲过期
//   - NewRedis: 基于 [redis_rate] 的 GCRA 分布式限流，多实例共享配额
//   - NewWithFallback: Redis 出错时降级到本地限流，ctx 错误原样返回
//
// 被拒绝的请求通过 Result.RetryAfter 与 Result.Headers 告知客户端等待时间。
//
// [redis_rate]: https://github.com/go-redis/redis_rate
package xlimit
