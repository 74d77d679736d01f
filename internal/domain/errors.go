package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors that can occur while loading strategies and running
// tournaments.
var (
	// ErrUnknownGame indicates that a game name is not supported.
	ErrUnknownGame = errors.New("unknown game")

	// ErrInvalidMove indicates that a strategy returned something that is
	// not a move.
	ErrInvalidMove = errors.New("invalid move")

	// ErrUnknownStrategy indicates that a strategy name has no factory.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrClassNotFound indicates that a plugin file does not define a class
	// or constructor named after the file.
	ErrClassNotFound = errors.New("class not found")

	// ErrNotConstructible indicates that the plugin's named binding exists
	// but cannot be instantiated without arguments.
	ErrNotConstructible = errors.New("not constructible")

	// ErrMoveNotFunction indicates that a plugin instance has no callable
	// move method.
	ErrMoveNotFunction = errors.New("move is not a function")

	// ErrTooFewStrategies indicates that a tournament was requested with
	// fewer than two participants.
	ErrTooFewStrategies = errors.New("a tournament needs at least two strategies")

	// ErrInvalidConfiguration indicates that configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// DiscoveryError reports that the plugin directory could not be scanned.
type DiscoveryError struct {
	// Dir is the directory that was being scanned.
	Dir string

	// Err is the underlying filesystem error.
	Err error
}

// Error implements the error interface for DiscoveryError.
func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("plugin discovery error: dir=%s, err=%v", e.Dir, e.Err)
}

// Unwrap returns the underlying error.
func (e *DiscoveryError) Unwrap() error { return e.Err }

// NewDiscoveryError creates a new DiscoveryError.
func NewDiscoveryError(dir string, err error) *DiscoveryError {
	return &DiscoveryError{Dir: dir, Err: err}
}

// PluginLoadError reports that a plugin file did not yield a constructible
// strategy.
type PluginLoadError struct {
	// Name is the strategy name derived from the file.
	Name string

	// Path is the plugin file path; empty for built-ins.
	Path string

	// Err is the underlying compile, lookup or construction error.
	Err error
}

// Error implements the error interface for PluginLoadError.
func (e *PluginLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("plugin load error: strategy=%s, err=%v", e.Name, e.Err)
	}
	return fmt.Sprintf("plugin load error: strategy=%s, file=%s, err=%v", e.Name, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PluginLoadError) Unwrap() error { return e.Err }

// NewPluginLoadError creates a new PluginLoadError.
func NewPluginLoadError(name, path string, err error) *PluginLoadError {
	return &PluginLoadError{Name: name, Path: path, Err: err}
}

// ResolutionError reports that a combination references a strategy that
// is not in the loaded roster.
type ResolutionError struct {
	// Combination is the combination being resolved.
	Combination Combination

	// Name is the first member that could not be resolved.
	Name string
}

// Error implements the error interface for ResolutionError.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error: combination=[%s], strategy=%s: %v",
		e.Combination, e.Name, ErrUnknownStrategy)
}

// Unwrap returns ErrUnknownStrategy so callers can match with errors.Is.
func (e *ResolutionError) Unwrap() error { return ErrUnknownStrategy }

// NewResolutionError creates a new ResolutionError.
func NewResolutionError(combo Combination, name string) *ResolutionError {
	return &ResolutionError{Combination: combo, Name: name}
}

// MissingStrategiesError lists requested strategies that were found neither
// on disk nor among the built-ins.
type MissingStrategiesError struct {
	// Names lists the missing strategies in request order.
	Names []string

	// Suggestions maps a missing name to the closest known name, if any.
	Suggestions map[string]string
}

// Error implements the error interface for MissingStrategiesError.
func (e *MissingStrategiesError) Error() string {
	parts := make([]string, 0, len(e.Names))
	for _, n := range e.Names {
		if s, ok := e.Suggestions[n]; ok {
			parts = append(parts, fmt.Sprintf("%s (did you mean %s?)", n, s))
			continue
		}
		parts = append(parts, n)
	}
	return fmt.Sprintf("%v: %s", ErrUnknownStrategy, strings.Join(parts, ", "))
}

// Unwrap returns ErrUnknownStrategy so callers can match with errors.Is.
func (e *MissingStrategiesError) Unwrap() error { return ErrUnknownStrategy }

// StrategyError reports a failure inside a strategy while it was choosing
// a move.
type StrategyError struct {
	// Name is the strategy that failed.
	Name string

	// Round is the 1-based round in which the failure happened.
	Round int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StrategyError.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy error: strategy=%s, round=%d, err=%v", e.Name, e.Round, e.Err)
}

// Unwrap returns the underlying error.
func (e *StrategyError) Unwrap() error { return e.Err }

// NewStrategyError creates a new StrategyError.
func NewStrategyError(name string, round int, err error) *StrategyError {
	return &StrategyError{Name: name, Round: round, Err: err}
}

// EngineError reports a failure surfaced by the tournament or leaderboard
// engine for one combination.
type EngineError struct {
	// Game is the game being played.
	Game Game

	// Combination is the combination being played.
	Combination Combination

	// Operation is "play" or "leaderboard".
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for EngineError.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error: operation=%s, game=%s, combination=[%s], err=%v",
		e.Operation, e.Game, e.Combination, e.Err)
}

// Unwrap returns the underlying error.
func (e *EngineError) Unwrap() error { return e.Err }

// NewEngineError creates a new EngineError.
func NewEngineError(game Game, combo Combination, op string, err error) *EngineError {
	return &EngineError{Game: game, Combination: combo, Operation: op, Err: err}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
