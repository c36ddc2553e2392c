package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the client's IP address for an HTTP request.
// See FromHeaders for the lookup order.
func GetIP(r *http.Request) string {
	return FromHeaders(r.Header, r.RemoteAddr)
}

// FromHeaders resolves the client IP from proxy headers, falling back to the
// transport address. Order:
//  1. X-Real-IP (the reverse proxy in front of the API sets it)
//  2. X-Forwarded-For (first valid entry)
//  3. CF-Connecting-IP
//  4. remoteAddr (host:port or bare ip)
//
// Invalid header values are skipped. Returns "" when nothing parses.
func FromHeaders(h http.Header, remoteAddr string) string {
	if ip := parseIP(h.Get("X-Real-IP")); ip != "" {
		return ip
	}

	if forwarded := h.Get("X-Forwarded-For"); forwarded != "" {
		for candidate := range strings.SplitSeq(forwarded, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(h.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return parseIP(remoteAddr)
	}
	return parseIP(host)
}

// parseIP validates and normalizes an IP address string.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
