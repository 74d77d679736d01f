package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-gambit/infrastructure/strategies"
	"github.com/ahrav/go-gambit/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.StrategyRegistry = (*DefaultStrategyRegistry)(nil)

// DefaultStrategyRegistry implements the StrategyRegistry interface,
// mapping strategy names to zero-argument factories.
// Built-in strategies and compiled plugins share the same table; a plugin
// registered under a built-in's name replaces it.
type DefaultStrategyRegistry struct {
	// factories maps strategy names to their factory functions.
	factories map[string]ports.StrategyFactory
	// builtin records which names currently resolve to a built-in.
	builtin map[string]bool
	// mu protects concurrent access to both maps.
	mu sync.RWMutex
}

// NewStrategyRegistry creates an empty registry.
func NewStrategyRegistry() *DefaultStrategyRegistry {
	return &DefaultStrategyRegistry{
		factories: make(map[string]ports.StrategyFactory),
		builtin:   make(map[string]bool),
	}
}

// NewDefaultStrategyRegistry creates a registry with the built-in
// strategies pre-registered.
func NewDefaultStrategyRegistry() *DefaultStrategyRegistry {
	registry := NewStrategyRegistry()
	registry.registerBuiltinFactories()
	return registry
}

// registerBuiltinFactories registers the strategies compiled into the
// binary.
// Built-in names are valid constants, so registration cannot fail.
func (r *DefaultStrategyRegistry) registerBuiltinFactories() {
	if err := strategies.Register(r); err != nil {
		panic(fmt.Sprintf("registering built-in strategies: %v", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range strategies.Names() {
		r.builtin[name] = true
	}
}

// Register adds or replaces the factory for name.
// Register returns an error if name is empty or starts with a dot, or if
// factory is nil.
func (r *DefaultStrategyRegistry) Register(name string, factory ports.StrategyFactory) error {
	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if name[0] == '.' {
		return fmt.Errorf("strategy name cannot start with a dot: %s", name)
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
	delete(r.builtin, name)
	return nil
}

// Factory returns the registered factory for name.
func (r *DefaultStrategyRegistry) Factory(name string) (ports.StrategyFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	return f, ok
}

// Names returns every registered name in sorted order.
func (r *DefaultStrategyRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsBuiltin reports whether name currently resolves to a built-in.
func (r *DefaultStrategyRegistry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.builtin[name]
}

// BuiltinNames returns the names that resolve to built-ins, sorted.
func (r *DefaultStrategyRegistry) BuiltinNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builtin))
	for name := range r.builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
