package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outbreak_trends"

// Metrics holds the Prometheus counters, histograms, and gauges for report
// loading, reconciliation, and chart rendering.
type Metrics struct {
	ReportsProcessed prometheus.Counter
	ReportsSkipped   *prometheus.CounterVec // labels: reason={outside_window,unreadable}
	RowsParsed       prometheus.Counter
	RowErrors        prometheus.Counter
	RegionsLoaded    prometheus.Gauge
	LoadDuration     prometheus.Histogram

	// Reconciliation metrics.
	ObservationsRepaired *prometheus.CounterVec // labels: metric={confirmed,deaths,recovered}, kind={merged,clamped}

	// Output metrics.
	ChartsRendered  *prometheus.CounterVec // labels: format={png,svg}
	RenderCache     *prometheus.CounterVec // labels: result={hit,miss}
	SeriesPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsProcessed,
		m.ReportsSkipped,
		m.RowsParsed,
		m.RowErrors,
		m.RegionsLoaded,
		m.LoadDuration,
		m.ObservationsRepaired,
		m.ChartsRendered,
		m.RenderCache,
		m.SeriesPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_processed_total",
			Help:      "Total report files parsed.",
		}),
		ReportsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_skipped_total",
			Help:      "Report files skipped by reason.",
		}, []string{"reason"}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Total report rows accepted.",
		}),
		RowErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "row_errors_total",
			Help:      "Total report rows rejected.",
		}),
		RegionsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regions_loaded",
			Help:      "Number of regions in the most recent load.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete load-and-reconcile pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ObservationsRepaired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_repaired_total",
			Help:      "Observations merged or clamped during reconciliation.",
		}, []string{"metric", "kind"}),
		ChartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Charts rendered by output format.",
		}, []string{"format"}),
		RenderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_cache_total",
			Help:      "Rendered chart cache lookups by result.",
		}, []string{"result"}),
		SeriesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_published_total",
			Help:      "Region series written to the sink topic.",
		}),
	}
}
