// Package iputil parses the address notations accepted in filter expressions.
// Package iputil 解析过滤表达式中接受的地址表示法。
package iputil

import (
	"fmt"
	"net/netip"
	"strings"
)

// ParsePrefix parses a CIDR or a single IP.
// A single IP yields the corresponding /32 or /128 prefix.
// IPv4-mapped IPv6 input is reduced to its IPv4 form.
// ParsePrefix 解析 CIDR 或单个 IP。单个 IP 返回相应的 /32 或 /128 前缀。
// IPv4 映射的 IPv6 输入会被还原为 IPv4 形式。
func ParsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid CIDR %q: %w", s, err)
		}
		if a := p.Addr(); a.Is4In6() && p.Bits() >= 96 {
			return netip.PrefixFrom(a.Unmap(), p.Bits()-96).Masked(), nil
		}
		return p.Masked(), nil
	}

	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid CIDR or IP %q", s)
	}
	a = a.Unmap().WithZone("")
	return netip.PrefixFrom(a, a.BitLen()), nil
}

// Contains reports whether addr lies inside the prefix described by cidr.
// An invalid addr or cidr never matches.
// Contains 报告 addr 是否位于 cidr 描述的前缀内。无效的 addr 或 cidr 永不匹配。
func Contains(cidr string, addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	p, err := ParsePrefix(cidr)
	if err != nil {
		return false
	}
	return p.Contains(addr.Unmap())
}

// IsValidCIDR checks if the string is a valid CIDR or IP.
// IsValidCIDR 检查字符串是否为有效的 CIDR 或 IP。
func IsValidCIDR(s string) bool {
	_, err := ParsePrefix(s)
	return err == nil
}
