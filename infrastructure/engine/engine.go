// Package engine is the reference tournament engine and leaderboard.
// It plays every pairing of a lineup for a number of rounds, repeats the
// round robin for the configured iterations and ranks strategies by total
// payoff. Other engines can replace it behind the ports interfaces.
package engine

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

const (
	// BaseRounds is the round count before jitter when the engine chooses.
	BaseRounds = 1000

	// MaxJitter is the largest jitter added to BaseRounds.
	MaxJitter = 100
)

// Verify interface compliance at compile time.
var _ ports.TournamentEngine = (*RoundRobinEngine)(nil)

// RoundRobinEngine plays iterated two-action games. It is safe for
// concurrent use; every call derives its own random source.
type RoundRobinEngine struct {
	logger   *zap.Logger
	seed     uint64
	progress *rate.Sometimes
}

// NewRoundRobinEngine creates an engine. A zero seed picks a time-based
// seed, so engine-chosen round counts differ between runs.
func NewRoundRobinEngine(logger *zap.Logger, seed uint64) *RoundRobinEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RoundRobinEngine{
		logger:   logger,
		seed:     seed,
		progress: &rate.Sometimes{Interval: 2 * time.Second},
	}
}

// PlayTournament plays cfg.Iterations round robins over lineup.
// Strategy failures are returned as *domain.StrategyError.
func (e *RoundRobinEngine) PlayTournament(
	ctx context.Context,
	cfg domain.TournamentConfig,
	lineup []ports.Strategy,
) (*domain.TournamentResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(lineup) < 2 {
		return nil, domain.ErrTooFewStrategies
	}
	payoff, err := PayoffFor(cfg.Game)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(lineup))
	for i, s := range lineup {
		names[i] = s.Name()
	}
	rng := e.rngFor(names)

	result := &domain.TournamentResult{
		Game:         cfg.Game,
		Participants: names,
		Iterations:   make([]domain.IterationResult, 0, cfg.Iterations),
	}

	for it := range cfg.Iterations {
		rounds := int(cfg.Rounds)
		if cfg.Rounds.IsEngineChosen() {
			rounds = BaseRounds + rng.IntN(MaxJitter+1)
		}

		iteration := domain.IterationResult{Rounds: rounds}
		for i := 0; i < len(lineup); i++ {
			for j := i + 1; j < len(lineup); j++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				match, err := playMatch(payoff, lineup[i], lineup[j], rounds)
				if err != nil {
					return nil, err
				}
				iteration.Matches = append(iteration.Matches, match)
			}
		}
		result.Iterations = append(result.Iterations, iteration)

		e.progress.Do(func() {
			e.logger.Debug("tournament progress",
				zap.String("game", cfg.Game.String()),
				zap.Strings("lineup", names),
				zap.Int("iteration", it+1),
				zap.Int("iterations", cfg.Iterations))
		})
	}

	return result, nil
}

// rngFor seeds a source from the engine seed and the lineup, so the same
// lineup replays identically for a fixed seed regardless of scheduling.
func (e *RoundRobinEngine) rngFor(names []string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(names, "\x00")))
	return rand.New(rand.NewPCG(e.seed, h.Sum64()))
}

// playMatch resets both strategies and plays rounds rounds between them.
func playMatch(payoff Payoff, a, b ports.Strategy, rounds int) (domain.MatchResult, error) {
	a.Reset()
	b.Reset()

	histA := make([]domain.Move, 0, rounds)
	histB := make([]domain.Move, 0, rounds)
	match := domain.MatchResult{A: a.Name(), B: b.Name(), Rounds: rounds}

	for r := range rounds {
		ma, err := a.Move(histA, histB)
		if err != nil {
			return match, domain.NewStrategyError(a.Name(), r+1, err)
		}
		mb, err := b.Move(histB, histA)
		if err != nil {
			return match, domain.NewStrategyError(b.Name(), r+1, err)
		}
		if !ma.Valid() {
			return match, domain.NewStrategyError(a.Name(), r+1, domain.ErrInvalidMove)
		}
		if !mb.Valid() {
			return match, domain.NewStrategyError(b.Name(), r+1, domain.ErrInvalidMove)
		}

		sa, sb := payoff.Score(ma, mb)
		match.ScoreA += sa
		match.ScoreB += sb
		histA = append(histA, ma)
		histB = append(histB, mb)
	}
	return match, nil
}
