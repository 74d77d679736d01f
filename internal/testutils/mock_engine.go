package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// MockEngine implements ports.TournamentEngine and ports.LeaderboardEngine.
// It records the lineups it is asked to play and renders a leaderboard
// that lists the participants, so tests can match output to combinations.
type MockEngine struct {
	mu sync.Mutex
	// calls holds one lineup per PlayTournament call, in call order.
	calls [][]string
	// configs holds the config passed with each call.
	configs []domain.TournamentConfig
	// failures maps a combination key to the error PlayTournament returns.
	failures map[string]error
	// leaderboardFailures maps a combination key to a Leaderboard error.
	leaderboardFailures map[string]error
	// delays maps a combination key to an artificial play duration.
	delays map[string]time.Duration
}

// Verify interface compliance at compile time.
var (
	_ ports.TournamentEngine  = (*MockEngine)(nil)
	_ ports.LeaderboardEngine = (*MockEngine)(nil)
)

// NewMockEngine creates a MockEngine that succeeds for every lineup.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		failures:            make(map[string]error),
		leaderboardFailures: make(map[string]error),
		delays:              make(map[string]time.Duration),
	}
}

// FailOn makes PlayTournament fail with err for the given members.
func (m *MockEngine) FailOn(err error, members ...string) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[domain.Combination(members).Key()] = err
	return m
}

// FailLeaderboardOn makes Leaderboard fail with err for the given members.
func (m *MockEngine) FailLeaderboardOn(err error, members ...string) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderboardFailures[domain.Combination(members).Key()] = err
	return m
}

// DelayOn makes PlayTournament sleep for d for the given members.
func (m *MockEngine) DelayOn(d time.Duration, members ...string) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[domain.Combination(members).Key()] = d
	return m
}

// PlayTournament records the lineup and returns an empty result.
func (m *MockEngine) PlayTournament(
	ctx context.Context,
	cfg domain.TournamentConfig,
	lineup []ports.Strategy,
) (*domain.TournamentResult, error) {
	names := make([]string, len(lineup))
	for i, s := range lineup {
		names[i] = s.Name()
	}
	key := domain.Combination(names).Key()

	m.mu.Lock()
	m.calls = append(m.calls, names)
	m.configs = append(m.configs, cfg)
	err := m.failures[key]
	delay := m.delays[key]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &domain.TournamentResult{Game: cfg.Game, Participants: names}, nil
}

// Standings returns one zero standing per participant.
func (m *MockEngine) Standings(game domain.Game, result *domain.TournamentResult) ([]domain.Standing, error) {
	if err := m.leaderboardErr(result); err != nil {
		return nil, err
	}
	out := make([]domain.Standing, len(result.Participants))
	for i, name := range result.Participants {
		out[i] = domain.Standing{Rank: i + 1, Strategy: name}
	}
	return out, nil
}

// Leaderboard renders "board(<game>): a, b".
func (m *MockEngine) Leaderboard(game domain.Game, result *domain.TournamentResult) (string, error) {
	if err := m.leaderboardErr(result); err != nil {
		return "", err
	}
	return fmt.Sprintf("board(%s): %s\n", game, strings.Join(result.Participants, ", ")), nil
}

func (m *MockEngine) leaderboardErr(result *domain.TournamentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaderboardFailures[domain.Combination(result.Participants).Key()]
}

// Calls returns a copy of the recorded lineups.
func (m *MockEngine) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Configs returns a copy of the recorded configs.
func (m *MockEngine) Configs() []domain.TournamentConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TournamentConfig, len(m.configs))
	copy(out, m.configs)
	return out
}
