// Package metrics exposes Prometheus instrumentation for the spool
// export pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline's Prometheus collectors on a private
// registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	ExportsTotal  *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
}

// New creates a metrics instance with all collectors registered
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataspool",
			Name:      "fetches_total",
			Help:      "Completed fetches by selection and status.",
		}, []string{"selection", "status"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dataspool",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of one fetch, including all retrieval batches.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dataspool",
			Name:      "exports_total",
			Help:      "Serialized export buffers by format.",
		}, []string{"format"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dataspool",
			Name:      "cache_hits_total",
			Help:      "Fetches served from the memoization cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dataspool",
			Name:      "cache_misses_total",
			Help:      "Fetches that required a database round-trip.",
		}),
	}

	m.registry.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.ExportsTotal,
		m.CacheHits,
		m.CacheMisses,
	)

	return m
}

// Handler returns the HTTP handler serving the registry in the
// Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
