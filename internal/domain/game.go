package domain

import (
	"fmt"
	"strconv"
)

// Game identifies which two-player matrix game a tournament is played on.
// The payoffs behind each game belong to the tournament engine; the
// orchestrator only carries the identifier through.
type Game string

// Supported games.
const (
	// Prison is the iterated prisoner's dilemma.
	Prison Game = "prison"
	// StagHunt is the stag hunt coordination game.
	StagHunt Game = "staghunt"
	// Chicken is the game of chicken (hawk-dove).
	Chicken Game = "chicken"
	// Pennies is matching pennies, a zero-sum game.
	Pennies Game = "pennies"
)

// Games returns every supported game in a stable order.
func Games() []Game {
	return []Game{Prison, StagHunt, Chicken, Pennies}
}

// Valid reports whether g is one of the supported games.
func (g Game) Valid() bool {
	switch g {
	case Prison, StagHunt, Chicken, Pennies:
		return true
	default:
		return false
	}
}

// String returns the game identifier.
func (g Game) String() string { return string(g) }

// ParseGame converts a user-supplied name into a Game.
// ParseGame returns ErrUnknownGame wrapped with the offending name if the
// name is not supported.
func ParseGame(name string) (Game, error) {
	g := Game(name)
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q (choose from %v)", ErrUnknownGame, name, Games())
	}
	return g, nil
}

// Move is a single action taken by a strategy in one round.
// Every supported game is a two-action game, so a move is either
// cooperation or defection. In pennies, Cooperate stands for heads and
// Defect for tails.
type Move uint8

const (
	// Cooperate is the cooperative action ("C").
	Cooperate Move = iota
	// Defect is the defecting action ("D").
	Defect
)

// String returns the single-letter form used by script plugins.
func (m Move) String() string {
	switch m {
	case Cooperate:
		return "C"
	case Defect:
		return "D"
	default:
		return "Move(" + strconv.Itoa(int(m)) + ")"
	}
}

// Valid reports whether m is a known move.
func (m Move) Valid() bool { return m == Cooperate || m == Defect }

// Opposite returns the other action.
func (m Move) Opposite() Move {
	if m == Cooperate {
		return Defect
	}
	return Cooperate
}

// ParseMove accepts the single-letter and long forms of a move, in either
// case, as returned by script strategies.
func ParseMove(s string) (Move, error) {
	switch s {
	case "C", "c", "cooperate", "COOPERATE", "Cooperate", "heads", "H", "h":
		return Cooperate, nil
	case "D", "d", "defect", "DEFECT", "Defect", "tails", "T", "t":
		return Defect, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
}

// EngineChosenRounds is the RoundDirective sentinel that leaves the round
// count to the engine (nominally 1000 plus a random jitter).
const EngineChosenRounds RoundDirective = -1

// MaxRounds is the largest explicit round count a match may last.
const MaxRounds RoundDirective = 1_000_000

// RoundDirective tells the engine how many rounds each match lasts.
// It is either a count in [1, MaxRounds] or EngineChosenRounds.
type RoundDirective int

// IsEngineChosen reports whether the directive is the engine-chosen sentinel.
func (r RoundDirective) IsEngineChosen() bool { return r == EngineChosenRounds }

// Valid reports whether r is a count in [1, MaxRounds] or the sentinel.
func (r RoundDirective) Valid() bool {
	return r == EngineChosenRounds || (r > 0 && r <= MaxRounds)
}

// String renders the directive the way progress lines show it: the
// literal "1000 + X" for the sentinel, the decimal count otherwise.
func (r RoundDirective) String() string {
	if r.IsEngineChosen() {
		return "1000 + X"
	}
	return strconv.Itoa(int(r))
}

// TournamentConfig holds the per-run parameters handed to the engine for
// every combination.
type TournamentConfig struct {
	// Game selects the payoff structure.
	Game Game
	// Iterations is how many independent repetitions of the round robin
	// are played for one combination.
	Iterations int
	// Rounds is the per-match round directive.
	Rounds RoundDirective
}

// DefaultIterations is the iteration count used when none is configured.
const DefaultIterations = 100

// Validate checks that the configuration can be handed to an engine.
func (c TournamentConfig) Validate() error {
	verr := NewValidationError("TournamentConfig")
	if !c.Game.Valid() {
		verr.AddError(fmt.Sprintf("unknown game %q", c.Game))
	}
	if c.Iterations < 1 {
		verr.AddError(fmt.Sprintf("iterations must be positive, got %d", c.Iterations))
	}
	if !c.Rounds.Valid() {
		verr.AddError(fmt.Sprintf("rounds must be between 1 and %d or %d, got %d", MaxRounds, EngineChosenRounds, c.Rounds))
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
