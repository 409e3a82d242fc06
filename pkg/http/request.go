package http

import (
	"net"
	"net/http"
	"strings"
)

// IPConfig holds configuration for IP extraction and validation
type IPConfig struct {
	TrustedProxies []string // CIDR ranges of trusted proxies
}

// ClientIdentifier returns a stable identifier for the caller, used as the
// per-client rate limit key. Authenticated requests should prefer the user
// ID; this is the anonymous fallback based on the client IP.
//
// Forwarding headers are only honored when the request arrives from a
// trusted proxy, so clients cannot spoof their way out of a rate bucket.
func ClientIdentifier(r *http.Request, config *IPConfig) string {
	ip := ExtractClientIP(r, config)
	if ip == "" {
		return "unknown"
	}
	return ip
}

// ExtractClientIP extracts the real client IP address from the request.
// It validates X-Forwarded-For and X-Real-IP headers only from trusted
// proxies to prevent spoofing via header manipulation.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	if config != nil && isTrustedProxy(remoteIP, config.TrustedProxies) {
		// X-Forwarded-For may hold multiple IPs; take the first valid one
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			for _, ip := range strings.Split(xff, ",") {
				ip = strings.TrimSpace(ip)
				if isValidIP(ip) {
					return ip
				}
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if isValidIP(xri) {
				return xri
			}
		}
	}

	return remoteIP
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr != "" {
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}
	return "unknown"
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	if len(trustedProxies) == 0 {
		return false
	}

	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}

func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
