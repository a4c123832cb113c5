package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gauge_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the analysis pipeline.
type Metrics struct {
	StationsAnalyzed prometheus.Counter
	StationErrors    *prometheus.CounterVec // labels: reason={format,date,value,empty,other}
	ReportsDelivered *prometheus.CounterVec // labels: sink
	DeliveryErrors   *prometheus.CounterVec // labels: sink
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	StationDuration         prometheus.Histogram

	// Analysis cache metrics.
	AnalysisCache *prometheus.CounterVec // labels: result={hit,miss}

	// HTTP upload metrics.
	Uploads *prometheus.CounterVec // labels: outcome={ok,rejected,failed}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		StationsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_analyzed_total",
			Help:      "Total station files analyzed successfully.",
		}),
		StationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "station_errors_total",
			Help:      "Station files that failed analysis, by reason.",
		}, []string{"reason"}),
		ReportsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_delivered_total",
			Help:      "Station reports handed to a sink.",
		}, []string{"sink"}),
		DeliveryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_errors_total",
			Help:      "Failed report deliveries, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a batch is being processed, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of station files per batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete analyze-and-deliver batch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		StationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "station_analysis_duration_seconds",
			Help:      "Duration of a single station analysis.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		AnalysisCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_cache_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "HTTP analysis uploads by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.StationsAnalyzed,
		m.StationErrors,
		m.ReportsDelivered,
		m.DeliveryErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.StationDuration,
		m.AnalysisCache,
		m.Uploads,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StationsAnalyzed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "stations_analyzed_total"}),
		StationErrors:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "station_errors_total"}, []string{"reason"}),
		ReportsDelivered:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "reports_delivered_total"}, []string{"sink"}),
		DeliveryErrors:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "delivery_errors_total"}, []string{"sink"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		StationDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "station_analysis_duration_seconds"}),
		AnalysisCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "analysis_cache_total"}, []string{"result"}),
		Uploads:                 prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "uploads_total"}, []string{"outcome"}),
	}
}
