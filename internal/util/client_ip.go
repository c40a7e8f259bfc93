package util

import (
	"fmt"
	"net/http"
	"net/netip"
	"strings"
)

// TrustedProxies is the set of peers whose forwarding headers are believed.
type TrustedProxies struct {
	prefixes []netip.Prefix
}

// NewTrustedProxies parses CIDR or bare IP entries. No usable entries yields
// nil, which trusts nobody.
func NewTrustedProxies(entries []string) (*TrustedProxies, error) {
	var prefixes []netip.Prefix
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	if len(prefixes) == 0 {
		return nil, nil
	}
	return &TrustedProxies{prefixes: prefixes}, nil
}

// Contains reports whether addr belongs to a trusted proxy.
func (t *TrustedProxies) Contains(addr netip.Addr) bool {
	if t == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP returns the caller address used for rate limiting. Forwarding
// headers count only when the direct peer is trusted; the hop chain is then
// walked right to left until the first untrusted address. Forwarded
// (RFC 7239) is preferred over X-Forwarded-For, then X-Real-IP.
func ClientIP(r *http.Request, trusted *TrustedProxies) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !trusted.Contains(peer) {
		return peer.String()
	}

	hops := forwardedHops(r.Header.Values("Forwarded"))
	if len(hops) == 0 {
		hops = forwardedForHops(r.Header.Get("X-Forwarded-For"))
	}
	if len(hops) > 0 {
		hops = append(hops, peer)
		for i := len(hops) - 1; i >= 0; i-- {
			if !trusted.Contains(hops[i]) {
				return hops[i].String()
			}
		}
		return hops[0].String()
	}
	if realIP, ok := parseAddr(r.Header.Get("X-Real-IP")); ok {
		return realIP.String()
	}
	return peer.String()
}

func forwardedForHops(raw string) []netip.Addr {
	var out []netip.Addr
	for _, part := range strings.Split(raw, ",") {
		if addr, ok := parseAddr(part); ok {
			out = append(out, addr)
		}
	}
	return out
}

// forwardedHops extracts for= addresses from Forwarded header values, e.g.
// `for=192.0.2.60;proto=https, for="[2001:db8::1]:4711"`.
func forwardedHops(values []string) []netip.Addr {
	var out []netip.Addr
	for _, value := range values {
		for _, element := range strings.Split(value, ",") {
			for _, pair := range strings.Split(element, ";") {
				key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
				if !ok || !strings.EqualFold(key, "for") {
					continue
				}
				val = strings.Trim(val, `"`)
				if addr, ok := peerAddr(val); ok {
					out = append(out, addr)
				}
			}
		}
	}
	return out
}

// peerAddr accepts "ip", "ip:port", "[v6]" and "[v6]:port".
func peerAddr(raw string) (netip.Addr, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil {
		return ap.Addr().Unmap(), true
	}
	return parseAddr(strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]"))
}

func parseAddr(raw string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
