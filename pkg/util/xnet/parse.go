package xnet

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// ParseRange 解析一个 IP 范围，忽略首尾空白。不支持 IPv6 zone。
func ParseRange(s string) (netipx.IPRange, error) {
	s = strings.TrimSpace(s)
	// netipx 会丢弃 zone，导致白名单误判
	if strings.Contains(s, "%") {
		return netipx.IPRange{}, fmt.Errorf("%w: zone not supported: %s", ErrInvalidRange, s)
	}

	if from, to, ok := strings.Cut(s, "-"); ok {
		start, err1 := netip.ParseAddr(strings.TrimSpace(from))
		end, err2 := netip.ParseAddr(strings.TrimSpace(to))
		if err1 != nil || err2 != nil {
			return netipx.IPRange{}, fmt.Errorf("%w: %s", ErrInvalidRange, s)
		}
		r := netipx.IPRangeFrom(start.Unmap(), end.Unmap())
		if !r.IsValid() {
			return netipx.IPRange{}, fmt.Errorf("%w: %s", ErrInvalidRange, s)
		}
		return r, nil
	}

	if addr, mask, ok := strings.Cut(s, "/"); ok {
		addr, mask = strings.TrimSpace(addr), strings.TrimSpace(mask)
		if strings.Contains(mask, ".") {
			return parseMasked(addr, mask)
		}
		prefix, err := netip.ParsePrefix(addr + "/" + mask)
		if err != nil {
			return netipx.IPRange{}, fmt.Errorf("%w: %w", ErrInvalidRange, err)
		}
		return netipx.RangeOfPrefix(prefix.Masked()), nil
	}

	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netipx.IPRange{}, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	addr = addr.Unmap()
	return netipx.IPRangeFrom(addr, addr), nil
}

// parseMasked 处理 "a.b.c.d/255.255.255.0"，掩码必须连续。
func parseMasked(addrStr, maskStr string) (netipx.IPRange, error) {
	addr, err1 := netip.ParseAddr(addrStr)
	mask, err2 := netip.ParseAddr(maskStr)
	if err1 != nil || err2 != nil {
		return netipx.IPRange{}, fmt.Errorf("%w: %s/%s", ErrInvalidRange, addrStr, maskStr)
	}
	addr, mask = addr.Unmap(), mask.Unmap()
	if !addr.Is4() || !mask.Is4() {
		return netipx.IPRange{}, fmt.Errorf("%w: mask notation only supports IPv4", ErrInvalidRange)
	}

	a, m := addr.As4(), mask.As4()
	au, mu := binary.BigEndian.Uint32(a[:]), binary.BigEndian.Uint32(m[:])
	if inv := ^mu; inv&(inv+1) != 0 {
		return netipx.IPRange{}, fmt.Errorf("%w: non-contiguous mask %s", ErrInvalidRange, maskStr)
	}
	start, end := au&mu, au|^mu
	return netipx.IPRangeFrom(fromUint32(start), fromUint32(end)), nil
}

func fromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

// ParseRanges 解析并合并为 IPSet，空输入得到空集合。
func ParseRanges(specs []string) (*netipx.IPSet, error) {
	var b netipx.IPSetBuilder
	for _, s := range specs {
		r, err := ParseRange(s)
		if err != nil {
			return nil, fmt.Errorf("parse range %q: %w", s, err)
		}
		b.AddRange(r)
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("build IPSet: %w", err)
	}
	return set, nil
}
