// Package xlru 带 TTL 的并发安全 LRU 缓存，封装 [hashicorp/golang-lru/v2/expirable]。
//
// xpoolsrv 中用于页面内容缓存和按客户端的本地限流器表。
// GetOrLoad 在未命中时调用加载函数并写回；Stats 返回命中/未命中计数。
//
// TTL > 0 时底层库会启动清理 goroutine，使用完毕必须调用 Close。
//
// [hashicorp/golang-lru/v2/expirable]: https://pkg.go.dev/github.com/hashicorp/golang-lru/v2/expirable
package xlru
