package web

import (
	"net"
	"net/http"
	"strings"
)

// creatorID returns the user identity set by the gateway, if any.
func creatorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

// clientIP strips the port from RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
