package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/JonMunkholm/dftlab/internal/core"
)

// TrustedRealIP resolves the client address and stores it in the request
// context (core.ClientIPFromContext). X-Real-IP and X-Forwarded-For are only
// believed when the connection comes from one of the trusted prefixes;
// everyone else is identified by the socket address.
func TrustedRealIP(trusted []string) func(http.Handler) http.Handler {
	prefixes := parsePrefixes(trusted)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, prefixes)
			if ip.IsValid() {
				r.RemoteAddr = ip.String()
				r = r.WithContext(core.ContextWithClientIP(r.Context(), ip.String()))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the best guess at the client address for r.
func ClientIP(r *http.Request, trusted []netip.Prefix) netip.Addr {
	remote := parseAddr(r.RemoteAddr)
	if !remote.IsValid() || !contains(trusted, remote) {
		return remote
	}

	if rip := parseAddr(r.Header.Get("X-Real-IP")); rip.IsValid() {
		return rip
	}
	// First entry is the original client.
	xff, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if fwd := parseAddr(xff); fwd.IsValid() {
		return fwd
	}
	return remote
}

// parsePrefixes accepts CIDRs and bare addresses. Invalid entries are logged
// and skipped.
func parsePrefixes(list []string) []netip.Prefix {
	var out []netip.Prefix
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		slog.Warn("realip: invalid trusted proxy, skipping", "cidr", s)
	}
	return out
}

// parseAddr reads "host:port" or a bare address.
func parseAddr(s string) netip.Addr {
	s = strings.TrimSpace(s)
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}
	}
	return a.Unmap()
}

func contains(prefixes []netip.Prefix, a netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
