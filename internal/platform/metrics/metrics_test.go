package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "drip_test_total", Help: "test"}).Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "drip_test_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHandlerMergesExtraGatherers(t *testing.T) {
	reg := NewRegistry()
	other := prometheus.NewRegistry()
	promauto.With(other).NewGauge(prometheus.GaugeOpts{Name: "drip_other_gauge", Help: "test"}).Set(3)

	rec := httptest.NewRecorder()
	Handler(reg, other).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Contains(t, rec.Body.String(), "drip_other_gauge 3")
}
