package application

import (
	"errors"
	"slices"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// Roster is the read-only result of a load: the effective allow-list, a
// factory for every name that resolved and the load error of every allowed
// plugin that did not compile. A Roster is safe for concurrent
// use because nothing mutates it after Load returns.
type Roster struct {
	allowed   domain.AllowedSet
	factories map[string]ports.StrategyFactory
	sources   map[string]string
	broken    map[string]*domain.PluginLoadError
}

// NewRoster builds a Roster directly from factories, for callers that do
// not load from disk. Names in allowed without a factory stay unresolved.
func NewRoster(allowed domain.AllowedSet, factories map[string]ports.StrategyFactory) *Roster {
	r := &Roster{
		allowed:   slices.Clone(allowed),
		factories: make(map[string]ports.StrategyFactory, len(factories)),
		sources:   make(map[string]string, len(factories)),
	}
	for name, f := range factories {
		r.factories[name] = f
		r.sources[name] = builtinSource
	}
	return r
}

// Allowed returns a copy of the effective allow-list.
func (r *Roster) Allowed() domain.AllowedSet { return slices.Clone(r.allowed) }

// Resolved reports whether name has a factory.
func (r *Roster) Resolved(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// LoadError returns the error that kept name from loading, or nil.
func (r *Roster) LoadError(name string) error {
	if err, ok := r.broken[name]; ok {
		return err
	}
	return nil
}

// Source returns the plugin path a name was loaded from, or "builtin".
func (r *Roster) Source(name string) string { return r.sources[name] }

// Instantiate projects the roster onto combo and builds one fresh strategy
// per member, in combination order.
// Instantiate returns the *domain.PluginLoadError of the first member that
// failed to load or whose factory fails, or a *domain.ResolutionError
// naming the first member without a factory.
func (r *Roster) Instantiate(combo domain.Combination) ([]ports.Strategy, error) {
	for _, name := range combo {
		if err := r.LoadError(name); err != nil {
			return nil, err
		}
		if !r.Resolved(name) {
			return nil, domain.NewResolutionError(combo, name)
		}
	}

	lineup := make([]ports.Strategy, 0, len(combo))
	for _, name := range combo {
		s, err := r.factories[name]()
		if err != nil {
			var loadErr *domain.PluginLoadError
			if !errors.As(err, &loadErr) {
				err = domain.NewPluginLoadError(name, r.pluginPath(name), err)
			}
			return nil, err
		}
		lineup = append(lineup, s)
	}
	return lineup, nil
}

func (r *Roster) pluginPath(name string) string {
	if src := r.sources[name]; src != builtinSource {
		return src
	}
	return ""
}
