package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector owns the Prometheus registry and all router metrics.
//
// Metrics:
//   - <ns>_requests_total: request count by backend, rpc_method, status
//   - <ns>_request_duration_seconds: dispatch duration histogram by backend
//   - <ns>_upstream_failures_total: transport failures by backend, reason
//   - <ns>_healthy_backends: pool backends currently in rotation
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamFailures *prometheus.CounterVec
}

// NewCollector creates a collector with a private registry, standard Go
// process collectors, and all router metrics registered under the given
// namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{
		registry:  registry,
		namespace: namespace,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of proxied requests by outcome",
			},
			[]string{"backend", "rpc_method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of request dispatch in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend"},
		),

		upstreamFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_failures_total",
				Help:      "Total number of upstream transport failures",
			},
			[]string{"backend", "reason"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.upstreamFailures,
	)

	return c
}

// RecordRequest records one completed dispatch.
//
// backend is the chosen backend label (or "none" when rejected before
// selection), rpcMethod the extracted JSON-RPC method (or "unknown"), and
// status the terminal outcome ("success", "unauthorized", "bad_gateway",
// "timeout", "unavailable").
func (c *Collector) RecordRequest(backend, rpcMethod, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(backend, rpcMethod, status).Inc()
	c.requestDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordUpstreamFailure records one transport-level forwarding failure.
// reason is "timeout" or "transport".
func (c *Collector) RecordUpstreamFailure(backend, reason string) {
	c.upstreamFailures.WithLabelValues(backend, reason).Inc()
}

// RegisterHealthyBackends registers a gauge that reports the number of pool
// backends currently in rotation. The function is evaluated at scrape time.
func (c *Collector) RegisterHealthyBackends(fn func() float64) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "healthy_backends",
			Help:      "Number of pool backends currently healthy",
		},
		fn,
	))
}
