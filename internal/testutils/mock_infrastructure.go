package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// MockMetricsCollector implements ports.MetricsCollector by accumulating
// values in memory.
type MockMetricsCollector struct {
	mu         sync.Mutex
	Counters   map[string]float64
	Gauges     map[string]float64
	Histograms map[string][]float64
	Latencies  map[string][]time.Duration
}

// Verify interface compliance at compile time.
var _ ports.MetricsCollector = (*MockMetricsCollector)(nil)

// NewMockMetricsCollector creates an empty collector.
func NewMockMetricsCollector() *MockMetricsCollector {
	return &MockMetricsCollector{
		Counters:   make(map[string]float64),
		Gauges:     make(map[string]float64),
		Histograms: make(map[string][]float64),
		Latencies:  make(map[string][]time.Duration),
	}
}

// RecordLatency appends d under operation.
func (m *MockMetricsCollector) RecordLatency(operation string, d time.Duration, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Latencies[operation] = append(m.Latencies[operation], d)
}

// RecordCounter adds value to metric.
func (m *MockMetricsCollector) RecordCounter(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[metric] += value
}

// RecordGauge sets metric to value.
func (m *MockMetricsCollector) RecordGauge(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gauges[metric] = value
}

// RecordHistogram appends value under metric.
func (m *MockMetricsCollector) RecordHistogram(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Histograms[metric] = append(m.Histograms[metric], value)
}

// Counter returns the accumulated value of metric.
func (m *MockMetricsCollector) Counter(metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counters[metric]
}

// ObserverEvent is one PreRun or PostRun notification.
type ObserverEvent struct {
	Phase       string
	Seq         int
	Combination string
	Err         error
}

// RecordingObserver implements ports.CombinationObserver by recording
// every notification.
type RecordingObserver struct {
	mu     sync.Mutex
	events []ObserverEvent
}

// Verify interface compliance at compile time.
var _ ports.CombinationObserver = (*RecordingObserver)(nil)

// PreRun records the call and returns ctx unchanged.
func (o *RecordingObserver) PreRun(ctx context.Context, seq int, combo domain.Combination, _ domain.TournamentConfig) context.Context {
	o.record(ObserverEvent{Phase: "pre", Seq: seq, Combination: combo.String()})
	return ctx
}

// PostRun records the call.
func (o *RecordingObserver) PostRun(_ context.Context, seq int, combo domain.Combination, _ time.Duration, err error) {
	o.record(ObserverEvent{Phase: "post", Seq: seq, Combination: combo.String(), Err: err})
}

func (o *RecordingObserver) record(e ObserverEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

// Events returns a copy of the recorded events.
func (o *RecordingObserver) Events() []ObserverEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ObserverEvent, len(o.events))
	copy(out, o.events)
	return out
}

// MemoryStore implements ports.ResultStore in memory.
type MemoryStore struct {
	mu           sync.Mutex
	Runs         []domain.RunRecord
	Combinations []domain.CombinationRecord
	Stats        map[string]domain.RunStats
	closed       bool
	// FailBegin, when set, is returned by BeginRun.
	FailBegin error
}

// Verify interface compliance at compile time.
var _ ports.ResultStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Stats: make(map[string]domain.RunStats)}
}

// BeginRun records run.
func (s *MemoryStore) BeginRun(_ context.Context, run domain.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.ErrStoreClosed
	}
	if s.FailBegin != nil {
		return s.FailBegin
	}
	s.Runs = append(s.Runs, run)
	return nil
}

// RecordCombination records rec.
func (s *MemoryStore) RecordCombination(_ context.Context, rec domain.CombinationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.ErrStoreClosed
	}
	s.Combinations = append(s.Combinations, rec)
	return nil
}

// FinishRun records stats for runID.
func (s *MemoryStore) FinishRun(_ context.Context, runID string, stats domain.RunStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.ErrStoreClosed
	}
	s.Stats[runID] = stats
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
