package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"drip/pkg/platform/middleware/request"
	"drip/pkg/requestcontext"
)

type echoModule struct{}

func (echoModule) Register(r chi.Router) {
	r.Get("/echo", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		_, _ = io.WriteString(w, requestcontext.ClientIP(ctx)+"|"+requestcontext.Now(ctx).UTC().Format(time.RFC3339))
	})
}

func newRouter(health map[string]HealthCheck) http.Handler {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewRouter(Options{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "metrics") }),
		Health:  health,
		Clock:   func() time.Time { return fixed },
	}, echoModule{})
}

func TestRouterSharedMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/echo", nil)
	req.RemoteAddr = "198.51.100.4:5000"
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "198.51.100.4|2026-01-01T00:00:00Z", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(request.HeaderRequestID))
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(map[string]HealthCheck{"store": func(context.Context) error { return nil }}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	})

	t.Run("degraded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newRouter(map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("dial tcp: refused") }}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "refused")
	})
}

func TestMetricsMounted(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "metrics", rec.Body.String())
}
