// Package strategies provides the strategies compiled into the binary.
// Every built-in decides from the two move histories alone, so instances
// carry no state beyond what Reset clears.
package strategies

import (
	"math/rand/v2"
	"slices"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// Names of the built-in strategies.
const (
	AlwaysCooperate     = "always_cooperate"
	AlwaysDefect        = "always_defect"
	TitForTat           = "tit_for_tat"
	TitForTwoTats       = "tit_for_two_tats"
	SuspiciousTitForTat = "suspicious_tit_for_tat"
	Grudger             = "grudger"
	Pavlov              = "pavlov"
	Random              = "random"
)

// decideFunc picks a move from the histories of the strategy and its
// opponent.
type decideFunc func(own, opponent []domain.Move) domain.Move

// Verify interface compliance at compile time.
var _ ports.Strategy = (*historyStrategy)(nil)

// historyStrategy adapts a decideFunc to ports.Strategy.
type historyStrategy struct {
	name   string
	decide decideFunc
}

// Name returns the registered name.
func (s *historyStrategy) Name() string { return s.name }

// Move delegates to the decision function. Built-ins never fail.
func (s *historyStrategy) Move(own, opponent []domain.Move) (domain.Move, error) {
	return s.decide(own, opponent), nil
}

// Reset is a no-op; history lives with the engine.
func (s *historyStrategy) Reset() {}

var builtins = map[string]decideFunc{
	AlwaysCooperate: func(_, _ []domain.Move) domain.Move { return domain.Cooperate },
	AlwaysDefect:    func(_, _ []domain.Move) domain.Move { return domain.Defect },
	TitForTat: func(_, opp []domain.Move) domain.Move {
		if len(opp) == 0 {
			return domain.Cooperate
		}
		return opp[len(opp)-1]
	},
	SuspiciousTitForTat: func(_, opp []domain.Move) domain.Move {
		if len(opp) == 0 {
			return domain.Defect
		}
		return opp[len(opp)-1]
	},
	TitForTwoTats: func(_, opp []domain.Move) domain.Move {
		n := len(opp)
		if n >= 2 && opp[n-1] == domain.Defect && opp[n-2] == domain.Defect {
			return domain.Defect
		}
		return domain.Cooperate
	},
	Grudger: func(_, opp []domain.Move) domain.Move {
		if slices.Contains(opp, domain.Defect) {
			return domain.Defect
		}
		return domain.Cooperate
	},
	// Win-stay, lose-shift: cooperate when both players made the same
	// move last round.
	Pavlov: func(own, opp []domain.Move) domain.Move {
		if len(own) == 0 {
			return domain.Cooperate
		}
		if own[len(own)-1] == opp[len(opp)-1] {
			return domain.Cooperate
		}
		return domain.Defect
	},
	Random: func(_, _ []domain.Move) domain.Move {
		if rand.IntN(2) == 0 {
			return domain.Cooperate
		}
		return domain.Defect
	},
}

// Names returns the built-in strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Factory returns the factory for a built-in, or false if name is not
// built in.
func Factory(name string) (ports.StrategyFactory, bool) {
	decide, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return func() (ports.Strategy, error) {
		return &historyStrategy{name: name, decide: decide}, nil
	}, true
}

// Register adds every built-in to registry.
func Register(registry ports.StrategyRegistry) error {
	for _, name := range Names() {
		factory, _ := Factory(name)
		if err := registry.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}
