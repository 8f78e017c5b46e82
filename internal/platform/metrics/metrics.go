// Package metrics exposes the process Prometheus registry over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format, merged with any
// extra gatherers such as prometheus.DefaultGatherer for promauto collectors.
func Handler(reg *prometheus.Registry, extra ...prometheus.Gatherer) http.Handler {
	gatherers := append(prometheus.Gatherers{reg}, extra...)
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{Registry: reg})
}
