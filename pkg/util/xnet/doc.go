// Package xnet 提供 IP 范围解析与客户端地址白名单，基于 [go4.org/netipx]。
//
// 范围写法：
//   - 单 IP: "192.168.1.1"
//   - CIDR: "10.0.0.0/8"
//   - 掩码: "192.168.1.0/255.255.255.0"（仅 IPv4）
//   - 区间: "192.168.1.1-192.168.1.100"
//
// [go4.org/netipx]: https://pkg.go.dev/go4.org/netipx
package xnet
