// Package requestcontext carries request-scoped values without net/http.
//
// Middleware stores the verified signer, client metadata, request ID and the
// trusted request time; services read them back:
//
//	caller := requestcontext.Caller(ctx)
//	now := requestcontext.Now(ctx)
package requestcontext

import (
	"context"
	"time"

	"drip/pkg/domain"
)

type (
	callerKey      struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// lookup returns the value stored under key, or T's zero value.
func lookup[T any](ctx context.Context, key any) (T, bool) {
	v, ok := ctx.Value(key).(T)
	return v, ok
}

// Caller is the verified signer, or the zero address for unsigned requests.
func Caller(ctx context.Context) domain.Address {
	caller, _ := lookup[domain.Address](ctx, callerKey{})
	return caller
}

func WithCaller(ctx context.Context, caller domain.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func ClientIP(ctx context.Context) string {
	ip, _ := lookup[string](ctx, clientIPKey{})
	return ip
}

func UserAgent(ctx context.Context) string {
	ua, _ := lookup[string](ctx, userAgentKey{})
	return ua
}

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

func RequestID(ctx context.Context) string {
	id, _ := lookup[string](ctx, requestIDKey{})
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now is the trusted request time. Cooldown and accrual read it instead
// of the wall clock; outside a request it falls back to time.Now.
func Now(ctx context.Context) time.Time {
	if t, ok := lookup[time.Time](ctx, requestTimeKey{}); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
