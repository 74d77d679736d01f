package ports

import (
	"context"

	"github.com/ahrav/go-gambit/internal/domain"
)

// TournamentEngine plays one round-robin tournament for a fixed lineup.
// The engine owns payoffs, round-count jitter and iteration; the
// orchestrator only decides who plays.
type TournamentEngine interface {
	// PlayTournament runs cfg.Iterations iterations over lineup, which
	// holds at least two strategies in combination order.
	// Implementations should observe ctx between matches and return
	// ctx.Err() when it is cancelled.
	PlayTournament(
		ctx context.Context,
		cfg domain.TournamentConfig,
		lineup []Strategy,
	) (*domain.TournamentResult, error)
}

// LeaderboardEngine turns a tournament result into a ready-to-print
// ranking.
type LeaderboardEngine interface {
	// Standings ranks the participants of result.
	Standings(game domain.Game, result *domain.TournamentResult) ([]domain.Standing, error)

	// Leaderboard renders the ranking as text.
	Leaderboard(game domain.Game, result *domain.TournamentResult) (string, error)
}
