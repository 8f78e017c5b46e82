// Package middleware refuses requests from clients that exceed a per-IP
// sliding-window budget.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"drip/internal/ratelimit/metrics"
	"drip/internal/ratelimit/models"
	audit "drip/pkg/platform/audit"
	"drip/pkg/platform/httputil"
	"drip/pkg/requestcontext"
)

// BucketStore counts requests per key.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

// AuditPublisher receives request_throttled events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Middleware struct {
	store    BucketStore
	limit    int
	window   time.Duration
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the throttle into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(m *Middleware) {
		m.auditor = p
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(store BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.disabled {
		m.logger.Info("request throttling disabled")
	}
	return m
}

// Throttle wraps next. It relies on metadata.ClientMetadata having stored the
// client IP. Store failures let the request through.
func (m *Middleware) Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.store.Allow(ctx, models.ThrottleKey(ip), m.limit, m.window)
		if err != nil {
			m.logger.ErrorContext(ctx, "throttle check failed", "error", err)
			if m.metrics != nil {
				m.metrics.StoreErrors.Inc()
			}
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.refuse(ctx, w, r, ip, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) refuse(ctx context.Context, w http.ResponseWriter, r *http.Request, ip string, result *models.Result) {
	if m.metrics != nil {
		m.metrics.Throttled.Inc()
	}
	m.logger.WarnContext(ctx, "request throttled",
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(ctx),
	)
	if m.auditor != nil {
		err := m.auditor.Emit(ctx, audit.Event{
			Action:    string(audit.EventThrottled),
			Subject:   ip,
			Decision:  "denied",
			Reason:    r.Method + " " + r.URL.Path,
			RequestID: requestcontext.RequestID(ctx),
		})
		if err != nil {
			m.logger.WarnContext(ctx, "failed to emit throttle audit event", "error", err)
		}
	}

	secs := int(math.Ceil(result.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limited",
		Message:    "Too many requests from this address. Please try again later.",
		RetryAfter: secs,
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
