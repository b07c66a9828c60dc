package engine

import (
	"net"
	"strings"
)

// Resolver performs reverse DNS lookups for topology node identities.
type Resolver interface {
	LookupAddr(addr string) ([]string, error)
}

// SystemResolver resolves through the host's resolver.
type SystemResolver struct{}

// LookupAddr calls net.LookupAddr.
func (SystemResolver) LookupAddr(addr string) ([]string, error) {
	return net.LookupAddr(addr)
}

// isSentinel reports whether ref is a placeholder rather than an address.
func isSentinel(ref string) bool {
	switch strings.TrimSpace(ref) {
	case "", unknownValue, SentinelNone, SentinelSelf, SentinelDisabled:
		return true
	}
	return false
}

// NormalizeRef reduces a host reference (URI, host:port, FQDN or IP) to a
// node identity: the lowercased short hostname, or the raw IP when reverse
// DNS is unavailable. A nil resolver disables lookups.
func NormalizeRef(ref string, resolver Resolver) string {
	host := strings.TrimSpace(ref)
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		return ""
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() == nil || resolver == nil {
			return host
		}
		names, err := resolver.LookupAddr(host)
		if err != nil || len(names) == 0 {
			return host
		}
		name := strings.TrimSuffix(strings.TrimSpace(names[0]), ".")
		if name == "" || net.ParseIP(name) != nil {
			return host
		}
		return shortName(name)
	}
	return shortName(host)
}

func shortName(host string) string {
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}
