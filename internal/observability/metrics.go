package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_dashboard"

// Metrics holds the Prometheus collectors for the dataset pipeline and HTTP surface.
type Metrics struct {
	// Dataset loading.
	DatasetLoads     *prometheus.CounterVec // labels: source={fresh-cache,remote,stale-cache,unavailable}
	DatasetRows      prometheus.Gauge
	DatasetLocations prometheus.Gauge
	CacheAgeSeconds  prometheus.Gauge
	CacheWriteErrors prometheus.Counter
	FetchDuration    prometheus.Histogram

	// Per-selection views.
	ViewsComputed *prometheus.CounterVec // labels: outcome={ok,no_data,invalid}
	Notices       *prometheus.CounterVec // labels: code

	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route, status
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := build(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return build(false)
}

func build(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      help("Dataset load attempts by resolved source."),
		}, []string{"source"}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      help("Records held by the loaded dataset."),
		}),
		DatasetLocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_locations",
			Help:      help("Allow-listed locations present in the loaded dataset."),
		}),
		CacheAgeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_age_seconds",
			Help:      help("Age of the cache file when the dataset was resolved."),
		}),
		CacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      help("Failed attempts to replace the cache file."),
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      help("Remote download and decode duration."),
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ViewsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_computed_total",
			Help:      help("Dashboard views computed by outcome."),
		}, []string{"outcome"}),
		Notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_notices_total",
			Help:      help("Sections omitted from a view, by notice code."),
		}, []string{"code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      help("HTTP request duration by route and status."),
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DatasetLoads,
		m.DatasetRows,
		m.DatasetLocations,
		m.CacheAgeSeconds,
		m.CacheWriteErrors,
		m.FetchDuration,
		m.ViewsComputed,
		m.Notices,
		m.HTTPRequestDuration,
	}
}
