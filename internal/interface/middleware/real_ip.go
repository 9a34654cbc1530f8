package middleware

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIPKey is the gin context key holding the resolved client address.
const RealIPKey = "real_ip"

// ParseTrustedProxies accepts CIDRs or bare addresses.
func ParseTrustedProxies(list []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(list))
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", raw)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// RealIP stores the client address under RealIPKey. Proxy headers are only
// read when the socket peer is inside trusted; any other caller is keyed by
// its own address.
func RealIP(trusted []netip.Prefix) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(RealIPKey, resolveIP(c, trusted))
		c.Next()
	}
}

func resolveIP(c *gin.Context, trusted []netip.Prefix) string {
	peer, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return c.RemoteIP()
	}
	peer = peer.Unmap()
	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if addr, ok := parseHeaderAddr(c.GetHeader(h)); ok {
			return addr.String()
		}
	}
	// Each proxy appends its peer, so the right-most untrusted hop is the
	// first address no trusted proxy vouches for.
	hops := strings.Split(c.GetHeader("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, ok := parseHeaderAddr(hops[i])
		if !ok {
			break
		}
		if !isTrusted(addr, trusted) || i == 0 {
			return addr.String()
		}
	}
	return peer.String()
}

func parseHeaderAddr(v string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(v))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
