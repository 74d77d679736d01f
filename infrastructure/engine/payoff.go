package engine

import (
	"fmt"

	"github.com/ahrav/go-gambit/internal/domain"
)

// Payoff is a two-player payoff matrix indexed by [moveA][moveB]. Each
// cell holds the scores of A and B.
type Payoff [2][2][2]int

// Score returns the scores of both players for one round.
func (p Payoff) Score(a, b domain.Move) (int, int) {
	cell := p[a][b]
	return cell[0], cell[1]
}

var payoffs = map[domain.Game]Payoff{
	// T=5 R=3 P=1 S=0.
	domain.Prison: {
		{{3, 3}, {0, 5}},
		{{5, 0}, {1, 1}},
	},
	// Mutual stag beats hunting hare alone.
	domain.StagHunt: {
		{{4, 4}, {0, 3}},
		{{3, 0}, {2, 2}},
	},
	// Swerving is Cooperate; a crash is the worst outcome for both.
	domain.Chicken: {
		{{3, 3}, {1, 4}},
		{{4, 1}, {0, 0}},
	},
	// A is the matcher: it wins when both sides show the same face.
	domain.Pennies: {
		{{1, -1}, {-1, 1}},
		{{-1, 1}, {1, -1}},
	},
}

// PayoffFor returns the matrix for game.
func PayoffFor(game domain.Game) (Payoff, error) {
	p, ok := payoffs[game]
	if !ok {
		return Payoff{}, fmt.Errorf("%w: %q", domain.ErrUnknownGame, game)
	}
	return p, nil
}
