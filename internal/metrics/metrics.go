// Package metrics holds the Prometheus collectors for request handling.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcp_memory"

// Recorder counts JSON-RPC requests and their latency per method and outcome.
type Recorder struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	connections *prometheus.GaugeVec
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "JSON-RPC requests handled, by method and result code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "JSON-RPC request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_connections",
			Help:      "Open transport connections.",
		}, []string{"transport"}),
	}
	r.registry.MustRegister(
		r.requests,
		r.duration,
		r.connections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one handled request. code is 0 for success.
func (r *Recorder) Observe(method string, code int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, codeLabel(code)).Inc()
	r.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ConnOpened marks a connection opened on transport and returns the matching
// close callback.
func (r *Recorder) ConnOpened(transport string) func() {
	if r == nil {
		return func() {}
	}
	g := r.connections.WithLabelValues(transport)
	g.Inc()
	return g.Dec
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func codeLabel(code int) string {
	switch code {
	case 0:
		return "ok"
	case -32600:
		return "invalid_request"
	case -32601:
		return "method_not_found"
	case -32602:
		return "invalid_params"
	case -32004:
		return "not_found"
	}
	return "internal_error"
}
