// Package middleware provides cross-cutting concerns for the orchestrator:
// Prometheus metrics, OpenTelemetry spans around combinations and the
// HTTP endpoint that exposes metrics during a run.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-gambit/internal/ports"
)

const namespace = "gambit"

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It tracks combination throughput, failures and durations per game.
type PrometheusMetrics struct {
	combinationDuration *prometheus.HistogramVec
	combinationSize     *prometheus.HistogramVec
	combinations        *prometheus.CounterVec
	operationLatency    *prometheus.HistogramVec
	operationCounter    *prometheus.CounterVec
	runGauges           *prometheus.GaugeVec
	values              *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all metrics with reg. A nil reg uses the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		// Combination-specific metrics.
		combinationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "combination_duration_seconds",
				Help:      "Time spent in the tournament engine per combination.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
			},
			[]string{"game", "status"},
		),
		combinationSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "combination_size",
				Help:      "Number of strategies in each played combination.",
				Buckets:   prometheus.LinearBuckets(2, 1, 15),
			},
			[]string{"game", "status"},
		),
		combinations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "combinations_finished_total",
				Help:      "Combinations finished, by outcome.",
			},
			[]string{"game", "status"},
		),

		// General metrics for everything else.
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of other orchestrator operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of other counted operations.",
			},
			[]string{"operation"},
		),
		runGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_state",
				Help:      "Current run state values.",
			},
			[]string{"metric", "game"},
		),
		values: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "observed_values",
				Help:      "Other observed values.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	if operation == ports.OperationCombination {
		pm.combinationDuration.WithLabelValues(label(labels, "game"), label(labels, "status")).
			Observe(duration.Seconds())
		return
	}
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case ports.MetricCombinationsCompleted:
		pm.combinations.WithLabelValues(label(labels, "game"), "ok").Add(value)
	case ports.MetricCombinationsFailed:
		pm.combinations.WithLabelValues(label(labels, "game"), "failed").Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.runGauges.WithLabelValues(metric, label(labels, "game")).Set(value)
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == ports.MetricCombinationSize {
		pm.combinationSize.WithLabelValues(label(labels, "game"), label(labels, "status")).Observe(value)
		return
	}
	pm.values.WithLabelValues(metric).Observe(value)
}

func label(labels map[string]string, key string) string {
	if v, ok := labels[key]; ok {
		return v
	}
	return "unknown"
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
