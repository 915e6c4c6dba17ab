// Package resilience 提供容错相关的子包。
//
// 子包列表：
//   - xretry: 重试，基于 avast/retry-go
//   - xbreaker: 熔断器，基于 sony/gobreaker
//   - xlimit: 按客户端限流，Redis 与本地两种后端，Redis 出错时降级
package resilience
