package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
// Each instance owns its registry so tests can build as many as they like
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Datastore Metrics
	DatastoreOpsTotal   *prometheus.CounterVec
	DatastoreOpDuration *prometheus.HistogramVec

	// Lookup Metrics
	LookupsTotal          *prometheus.CounterVec
	LookupErrors          *prometheus.CounterVec
	UpstreamDuration      *prometheus.HistogramVec
	CacheResults          *prometheus.CounterVec
	CacheEntries          prometheus.Gauge
	HistoryEntries        prometheus.Gauge
	StaleLookupsDiscarded prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "endpoint", "status"},
		),

		// Datastore Metrics
		DatastoreOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "datastore_operations_total",
				Help: "Total number of persistence operations",
			},
			[]string{"datastore", "operation", "status"},
		),

		DatastoreOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "datastore_operation_duration_seconds",
				Help:    "Persistence operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"datastore", "operation"},
		),

		// Lookup Metrics
		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookups_total",
				Help: "Total number of lookups by outcome",
			},
			[]string{"outcome"},
		),

		LookupErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookup_errors_total",
				Help: "Total number of failed lookups by error class",
			},
			[]string{"class"},
		),

		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upstream_request_duration_seconds",
				Help:    "Geolocation API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),

		CacheResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "result_cache_lookups_total",
				Help: "Total number of result cache hits vs misses",
			},
			[]string{"result"},
		),

		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "result_cache_entries",
				Help: "Number of entries in the result cache",
			},
		),

		HistoryEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "search_history_entries",
				Help: "Number of entries in the search history",
			},
		),

		StaleLookupsDiscarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "stale_lookups_discarded_total",
				Help: "Lookups whose rendering was dropped because a newer lookup started",
			},
		),
	}
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
