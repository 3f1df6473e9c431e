package transport

import (
	"context"
	"net"
	"net/http"
)

const unknownIP = "unknown"

type clientIPKey struct{}

// WithClientIP stores the resolved client address on ctx.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the address resolved by the client IP middleware, or the
// peer address when the middleware is not mounted.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return RemoteHost(r)
}

// RemoteHost is the host part of r.RemoteAddr.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr == "" {
			return unknownIP
		}
		return r.RemoteAddr
	}
	return host
}
