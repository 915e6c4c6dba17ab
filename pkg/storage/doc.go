// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xhits: 路由访问计数，Redis 与进程内两种实现，Redis 故障时熔断降级
//   - xpage: 静态页面加载，内嵌默认页面、可选目录覆盖、LRU 缓存
//
// 设计原则：
//   - 提供统一的接口抽象，支持多种存储后端
//   - 后端故障不影响请求响应
package storage
