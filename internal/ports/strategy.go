// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"github.com/ahrav/go-gambit/internal/domain"
)

// Strategy is a playable participant in a tournament.
// Strategies are stateful: an instance remembers whatever it needs between
// rounds of a match. Instances are not safe for concurrent use and must
// never be shared between tournaments that run at the same time.
type Strategy interface {
	// Name returns the strategy name the instance was created under.
	Name() string

	// Move chooses the next action given both players' histories.
	// own and opponent have equal length; both are empty in the first
	// round. Implementations must not retain or modify the slices.
	Move(own, opponent []domain.Move) (domain.Move, error)

	// Reset clears any per-match state so the instance can start a new
	// match against a different opponent.
	Reset()
}

// StrategyFactory constructs a fresh Strategy with no arguments.
// Each call must return an independent instance.
type StrategyFactory func() (Strategy, error)

// StrategyRegistry maps strategy names to factories.
// Built-in strategies and compiled plugins are both registered here; the
// loader resolves every allowed name through a registry.
type StrategyRegistry interface {
	// Register adds or replaces the factory for name.
	Register(name string, factory StrategyFactory) error

	// Factory returns the registered factory for name.
	Factory(name string) (StrategyFactory, bool)

	// Names returns every registered name in sorted order.
	Names() []string
}

// PluginCompiler turns a plugin file into a strategy factory.
// A compiler is selected by file extension. Compile must fail with a
// *domain.PluginLoadError when the file does not define a constructible
// strategy named after the file.
type PluginCompiler interface {
	// Extension returns the file extension handled, including the dot.
	Extension() string

	// Compile parses the file at path and returns a factory for name.
	Compile(name, path string) (StrategyFactory, error)
}
