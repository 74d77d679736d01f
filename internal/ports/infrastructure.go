package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-gambit/internal/domain"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like completed or failed
	// combinations.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// CombinationObserver is notified around every combination the driver runs.
// Calls for different combinations may happen concurrently when the driver
// runs with more than one worker; implementations keep per-combination
// state in the returned context, never on the receiver.
type CombinationObserver interface {
	// PreRun is called before strategies are instantiated. The returned
	// context is passed to the engine and to PostRun.
	PreRun(ctx context.Context, seq int, combo domain.Combination, cfg domain.TournamentConfig) context.Context

	// PostRun is called once the combination has been played and ranked,
	// or has failed with err.
	PostRun(ctx context.Context, seq int, combo domain.Combination, elapsed time.Duration, err error)
}

// ResultStore archives runs, combinations and standings.
// The store is write-only from the orchestrator's point of view; nothing
// read back from it influences a run.
type ResultStore interface {
	// BeginRun records the start of a run.
	BeginRun(ctx context.Context, run domain.RunRecord) error

	// RecordCombination records one finished or failed combination.
	RecordCombination(ctx context.Context, rec domain.CombinationRecord) error

	// FinishRun records the final counts of a run.
	FinishRun(ctx context.Context, runID string, stats domain.RunStats) error

	// Close releases the underlying resources.
	Close() error
}

// Metric and operation names recorded around combinations.
const (
	// MetricCombinationsTotal is a gauge holding the combination count of
	// the current run.
	MetricCombinationsTotal = "combinations_total"
	// MetricCombinationsCompleted counts combinations that played and
	// ranked.
	MetricCombinationsCompleted = "combinations_completed"
	// MetricCombinationsFailed counts combinations that failed.
	MetricCombinationsFailed = "combinations_failed"
	// MetricCombinationSize is a histogram of lineup sizes.
	MetricCombinationSize = "combination_size"
	// OperationCombination is the latency operation for one combination.
	OperationCombination = "combination"
)
