package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ProxyTrust resolves client addresses. Forwarding headers are only honoured
// when the direct peer is one of the trusted proxies; a nil ProxyTrust trusts
// nobody and always returns the peer address.
type ProxyTrust struct {
	nets []*net.IPNet
}

// NewProxyTrust parses CIDRs or bare IPs.
func NewProxyTrust(proxies []string) (*ProxyTrust, error) {
	p := &ProxyTrust{}
	for _, raw := range proxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", raw)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			raw = fmt.Sprintf("%s/%d", ip.String(), bits)
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		p.nets = append(p.nets, n)
	}
	return p, nil
}

func (p *ProxyTrust) trusted(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return false
	}
	for _, n := range p.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address of the client behind any trusted proxies.
// X-Forwarded-For is walked from the right so hops added by the client
// itself are ignored.
func (p *ProxyTrust) ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !p.trusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !p.trusted(hop) || i == 0 {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return peer
}
