package handler

import (
	"net"
	"net/http"
	"strings"
)

// UnknownClient groups requests whose origin cannot be determined.
const UnknownClient = "unknown"

// ClientIdentifier derives the best-effort client identifier for rate
// limiting: the first X-Forwarded-For entry, then X-Real-IP, then the peer
// address, then UnknownClient. The value is not authenticated.
func ClientIdentifier(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if r.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		if host != "" {
			return host
		}
	}
	return UnknownClient
}
