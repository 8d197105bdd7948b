package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "qsomap"

// Metrics holds the Prometheus counters and histograms for ingest and rendering.
type Metrics struct {
	Uploads               *prometheus.CounterVec // labels: outcome={ok,no_file,invalid,read_error,too_large}
	RecordsParsed         prometheus.Counter
	RecordsSkipped        prometheus.Counter // records without a usable QSO_DATE
	ConnectionsUnresolved prometheus.Counter
	RecordsPublished      prometheus.Counter

	RenderDuration prometheus.Histogram

	// Base map metrics.
	GeometryRequests *prometheus.CounterVec // labels: outcome={success,error}
	GeometryCache    *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "ADIF uploads by outcome.",
		}, []string{"outcome"}),
		RecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Total QSO records parsed from uploads.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records left off the timeline for a missing or malformed QSO_DATE.",
		}),
		ConnectionsUnresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_unresolved_total",
			Help:      "Records omitted from a rendered map because a station location could not be resolved.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Contacts written to the Kafka topic.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of building and writing one map frame.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		GeometryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_requests_total",
			Help:      "Base map fetches by outcome.",
		}, []string{"outcome"}),
		GeometryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geometry_cache_total",
			Help:      "Base map cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Uploads,
		m.RecordsParsed,
		m.RecordsSkipped,
		m.ConnectionsUnresolved,
		m.RecordsPublished,
		m.RenderDuration,
		m.GeometryRequests,
		m.GeometryCache,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered nowhere, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewMetricsWithRegistry registers the metrics on reg instead of the default
// registry, so a test can gather them.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}
