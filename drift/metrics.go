package drift

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for drift processing.
type Metrics struct {
	FilesProcessed        *prometheus.CounterVec // labels: outcome={processed,skipped,failed}
	ObservationsProcessed prometheus.Counter
	ScenesProcessed       prometheus.Counter
	Categories            *prometheus.CounterVec // labels: category={00..31}
	PassesPerScene        prometheus.Histogram
	SceneDuration         prometheus.Histogram
}

// NewMetrics creates the drift metrics and registers them with reg. A nil reg
// leaves them unregistered, which keeps tests free of duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icedrift",
			Name:      "files_total",
			Help:      "Drift files handled, by outcome.",
		}, []string{"outcome"}),
		ObservationsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icedrift",
			Name:      "observations_processed_total",
			Help:      "Drift observations run through outlier detection.",
		}),
		ScenesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "icedrift",
			Name:      "scenes_processed_total",
			Help:      "Scenes (File1, File2 pairs) classified.",
		}),
		Categories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "icedrift",
			Name:      "outlier_category_total",
			Help:      "Final outlier category assignments.",
		}, []string{"category"}),
		PassesPerScene: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "icedrift",
			Name:      "passes_per_scene",
			Help:      "Classification passes run before a scene converged or hit the pass limit.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		}),
		SceneDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "icedrift",
			Name:      "scene_detection_duration_seconds",
			Help:      "Duration of outlier detection for one scene.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FilesProcessed,
			m.ObservationsProcessed,
			m.ScenesProcessed,
			m.Categories,
			m.PassesPerScene,
			m.SceneDuration,
		)
	}

	return m
}
