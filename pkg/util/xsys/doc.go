// Package xsys 封装服务端需要的少量系统调用，基于 golang.org/x/sys/unix。
//
//   - RaiseFileLimit 按最大连接数提升 RLIMIT_NOFILE 软限制
//   - ListenControl 为 net.ListenConfig 设置 SO_REUSEADDR / SO_REUSEPORT
//
// 其他平台返回 ErrUnsupportedPlatform。
package xsys
