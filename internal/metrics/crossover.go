package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "xover"

// Crossover search Prometheus metrics.
var (
	DaysProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "days_processed_total",
			Help:      "Total number of processed days",
		},
		[]string{"status"}, // "ok" / "error" / "invalid"
	)

	DayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "day_duration_seconds",
			Help:      "Time to load, search and write one day",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"satellites"},
	)

	CrossoversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crossovers_total",
			Help:      "Total crossovers written",
		},
		[]string{"satellites"},
	)

	PairEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_evaluations_total",
			Help:      "Candidate pass pairs handed to the geometry engine",
		},
		[]string{"outcome"}, // "found" / "rejected"
	)

	AnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Unexpected but tolerated search conditions",
		},
		[]string{"kind"}, // "multiple_sign_changes" / "day_overflow"
	)

	WindowSamples = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "window_samples",
			Help:      "Samples loaded into a track window",
			Buckets:   prometheus.ExponentialBuckets(1000, 4, 8),
		},
		[]string{"satellite"},
	)
)

// Anomaly kinds.
const (
	AnomalyMultipleSignChanges = "multiple_sign_changes"
	AnomalyDayOverflow         = "day_overflow"
)

var registerCrossoverOnce sync.Once

// RegisterCrossoverMetrics registers the crossover metrics. Call once from main; repeated calls are no-ops.
func RegisterCrossoverMetrics() {
	registerCrossoverOnce.Do(func() {
		prometheus.MustRegister(
			DaysProcessedTotal,
			DayDuration,
			CrossoversTotal,
			PairEvaluationsTotal,
			AnomaliesTotal,
			WindowSamples,
		)
	})
}
