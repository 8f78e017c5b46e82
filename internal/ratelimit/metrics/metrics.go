package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Throttled   prometheus.Counter
	StoreErrors prometheus.Counter
}

// New registers the throttle collectors on reg, or on the default registry
// when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Throttled: f.NewCounter(prometheus.CounterOpts{
			Name: "drip_throttled_requests_total",
			Help: "Requests refused by the per-IP throttle",
		}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "drip_throttle_store_errors_total",
			Help: "Throttle checks that failed open because the bucket store errored",
		}),
	}
}
