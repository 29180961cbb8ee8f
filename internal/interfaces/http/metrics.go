package http

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MetricsRegistry holds all Prometheus metrics for the synthesis pipeline.
type MetricsRegistry struct {
	registry *prometheus.Registry

	// Synthesis outcomes
	SynthesisTotal    *prometheus.CounterVec
	SynthesisDuration prometheus.Histogram
	Disqualifications prometheus.Counter

	// Layer pipeline
	AnalyzerErrors *prometheus.CounterVec
	LayerScore     *prometheus.GaugeVec

	// History persistence
	SnapshotWrites prometheus.Counter
	SnapshotErrors prometheus.Counter
}

// NewMetricsRegistry creates a registry with all pipeline metrics registered
// on a dedicated Prometheus registry, so independent instances never collide.
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		registry: prometheus.NewRegistry(),

		SynthesisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markettruth_synthesis_total",
				Help: "Total synthesis runs by resulting conviction",
			},
			[]string{"conviction"},
		),

		SynthesisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "markettruth_synthesis_duration_seconds",
				Help:    "Duration of one full analysis run in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
			},
		),

		Disqualifications: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "markettruth_disqualifications_total",
				Help: "Total synthesis runs ending in structural disqualification",
			},
		),

		AnalyzerErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markettruth_analyzer_errors_total",
				Help: "Analyzer failures collapsed to empty layers, by layer",
			},
			[]string{"layer"},
		),

		LayerScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "markettruth_layer_score",
				Help: "Most recent raw layer score by layer name",
			},
			[]string{"layer"},
		),

		SnapshotWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "markettruth_snapshot_writes_total",
				Help: "Snapshots appended to the temporal history store",
			},
		),

		SnapshotErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "markettruth_snapshot_errors_total",
				Help: "History store failures (reported, never propagated)",
			},
		),
	}

	m.registry.MustRegister(
		m.SynthesisTotal,
		m.SynthesisDuration,
		m.Disqualifications,
		m.AnalyzerErrors,
		m.LayerScore,
		m.SnapshotWrites,
		m.SnapshotErrors,
	)

	return m
}

// CounterValue reads the current value of a counter, mainly for tests and
// the health endpoint.
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
