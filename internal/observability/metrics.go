package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for a pipeline run.
type Metrics struct {
	OutagesFetched   *prometheus.CounterVec // label: kind={planned,unplanned}
	FeedErrors       prometheus.Counter
	CandidatesFound  prometheus.Counter
	RecordsMerged    prometheus.Counter
	RecordsDuplicate prometheus.Counter
	RunDuration      prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // label: outcome={success,rejected,empty,error}
	GeocodeCache       *prometheus.CounterVec // label: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Migration metrics.
	FilesMigrated prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.OutagesFetched,
		m.FeedErrors,
		m.CandidatesFound,
		m.RecordsMerged,
		m.RecordsDuplicate,
		m.RunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.FilesMigrated,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct fresh instances without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		OutagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "outages_fetched_total",
			Help:      "Announcements fetched from the feed by outage kind.",
		}, []string{"kind"}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "feed_errors_total",
			Help:      "Failed region/kind fetches skipped by the run.",
		}),
		CandidatesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "candidates_extracted_total",
			Help:      "Street-name candidates extracted from announcements.",
		}),
		RecordsMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "records_merged_total",
			Help:      "New records added to day files.",
		}),
		RecordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "records_duplicate_total",
			Help:      "Records discarded because their identity already existed.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "outage_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete pipeline run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider calls by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "geocode_cache_total",
			Help:      "Geocode cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "outage_etl",
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FilesMigrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "outage_etl",
			Name:      "day_files_migrated_total",
			Help:      "Day files rewritten by the schema migration pass.",
		}),
	}
}
