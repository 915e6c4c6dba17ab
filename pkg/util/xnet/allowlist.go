package xnet

import (
	"net"
	"net/netip"

	"go4.org/netipx"
)

// Allowlist 客户端地址白名单，不可变，可并发读。
// 零值与空列表放行所有地址。
type Allowlist struct {
	set *netipx.IPSet
}

// NewAllowlist 由范围列表构建白名单。
func NewAllowlist(specs []string) (*Allowlist, error) {
	if len(specs) == 0 {
		return &Allowlist{}, nil
	}
	set, err := ParseRanges(specs)
	if err != nil {
		return nil, err
	}
	return &Allowlist{set: set}, nil
}

// Contains 判断地址是否放行，IPv4-mapped IPv6 按 IPv4 处理。
func (a *Allowlist) Contains(addr netip.Addr) bool {
	if a == nil || a.set == nil {
		return true
	}
	return a.set.Contains(addr.Unmap())
}

// Allows 判断连接远端地址是否放行，无法解析出 IP 的地址被拒绝。
func (a *Allowlist) Allows(remote net.Addr) bool {
	if a == nil || a.set == nil {
		return true
	}
	ip, ok := AddrOf(remote)
	return ok && a.Contains(ip)
}

// Ranges 返回合并后的范围，放行全部时为 nil。
func (a *Allowlist) Ranges() []netipx.IPRange {
	if a == nil || a.set == nil {
		return nil
	}
	return a.set.Ranges()
}

// AddrOf 从 net.Addr 取出 IP，支持 *net.TCPAddr 与 "host:port" 字符串形式。
func AddrOf(remote net.Addr) (netip.Addr, bool) {
	if remote == nil {
		return netip.Addr{}, false
	}
	if tcp, ok := remote.(*net.TCPAddr); ok {
		ap := tcp.AddrPort()
		return ap.Addr().Unmap(), ap.Addr().IsValid()
	}
	ap, err := netip.ParseAddrPort(remote.String())
	if err != nil {
		return netip.Addr{}, false
	}
	return ap.Addr().Unmap(), true
}
