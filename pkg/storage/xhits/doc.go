// Package xhits 按路由统计访问次数。
//
// NewMemory 为进程内计数；NewRedis 将计数写入 Redis 哈希（HINCRBY/HGETALL），
// 多个实例可共享同一份统计。Redis 调用受 xbreaker 熔断保护，
// 失败或熔断期间计数记在本地，Snapshot 时与 Redis 中的结果合并。
package xhits
