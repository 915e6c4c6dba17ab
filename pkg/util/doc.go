// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xlru: LRU 缓存，泛型支持、自动 TTL 过期
//   - xnet: IP 范围解析与客户端白名单，基于 net/netip + go4.org/netipx
//   - xpool: 固定大小线程池，FIFO 队列、panic 隔离、优雅关闭
//   - xsys: 系统资源与 socket 选项，文件描述符上限、SO_REUSEPORT
//
// 设计原则：
//   - 零值或 nil 输入返回明确错误，不 panic
//   - 跨平台兼容，平台相关代码使用构建标签隔离
package util
