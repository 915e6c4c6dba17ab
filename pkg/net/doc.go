// Package net 提供网络服务相关的子包。
//
// 子包列表：
//   - xserver: TCP 接入层，按连接提交到线程池，按请求行路由
package net
