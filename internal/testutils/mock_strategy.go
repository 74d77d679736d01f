package testutils

import (
	"sync/atomic"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// MockStrategy implements ports.Strategy with a fixed move.
// It counts calls so tests can check that instances are fresh and reset.
type MockStrategy struct {
	// name is the strategy name reported by Name.
	name string
	// move is the move returned by every Move call.
	move domain.Move
	// err, when set, is returned by every Move call.
	err error

	moves  atomic.Int64
	resets atomic.Int64
}

// Verify interface compliance at compile time.
var _ ports.Strategy = (*MockStrategy)(nil)

// NewMockStrategy creates a MockStrategy that always plays move.
func NewMockStrategy(name string, move domain.Move) *MockStrategy {
	return &MockStrategy{name: name, move: move}
}

// NewFailingMockStrategy creates a MockStrategy whose Move always fails.
func NewFailingMockStrategy(name string, err error) *MockStrategy {
	return &MockStrategy{name: name, err: err}
}

// Name returns the configured name.
func (m *MockStrategy) Name() string { return m.name }

// Move returns the configured move or error.
func (m *MockStrategy) Move(_, _ []domain.Move) (domain.Move, error) {
	m.moves.Add(1)
	if m.err != nil {
		return 0, m.err
	}
	return m.move, nil
}

// Reset counts the call.
func (m *MockStrategy) Reset() { m.resets.Add(1) }

// Moves returns how many times Move was called.
func (m *MockStrategy) Moves() int64 { return m.moves.Load() }

// Resets returns how many times Reset was called.
func (m *MockStrategy) Resets() int64 { return m.resets.Load() }

// CountingFactory returns a factory producing MockStrategy instances and a
// function reporting how many instances were built.
func CountingFactory(name string, move domain.Move) (ports.StrategyFactory, func() int64) {
	var built atomic.Int64
	factory := func() (ports.Strategy, error) {
		built.Add(1)
		return NewMockStrategy(name, move), nil
	}
	return factory, built.Load
}
