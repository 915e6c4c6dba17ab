// Package xbreaker 基于 [sony/gobreaker/v2] 的熔断器。
//
// xpoolsrv 用它保护 Redis 访问计数：连续失败达到阈值后熔断，
// 熔断期间调用直接返回 *BreakerError，由调用方降级到内存计数。
//
// [sony/gobreaker/v2]: https://github.com/sony/gobreaker
package xbreaker
