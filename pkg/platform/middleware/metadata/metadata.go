// Package metadata records the caller's network address and User-Agent on the
// request context.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"drip/pkg/requestcontext"
)

// unknownIP is stored when the request carries no usable address.
const unknownIP = "unknown"

// ClientMetadata stores RemoteAddr as the client IP and ignores forwarding
// headers. Use Middleware(true) behind a proxy that overwrites them.
func ClientMetadata(next http.Handler) http.Handler {
	return Middleware(false)(next)
}

// Middleware returns ClientMetadata with forwarding headers honoured when
// trustProxyHeaders is set.
func Middleware(trustProxyHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxyHeaders)
			ctx := requestcontext.WithClientMetadata(r.Context(), ip, r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP resolves the address the throttle keys on. Forwarding headers are
// client controlled, so they count only when trustProxyHeaders is set.
func ClientIP(r *http.Request, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	if r.RemoteAddr == "" {
		return unknownIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
