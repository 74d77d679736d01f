package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ahrav/go-gambit/internal/domain"
)

func sampleResult() *domain.TournamentResult {
	return &domain.TournamentResult{
		Game:         domain.Prison,
		Participants: []string{"a", "b", "c"},
		Iterations: []domain.IterationResult{
			{
				Rounds: 10,
				Matches: []domain.MatchResult{
					{A: "a", B: "b", ScoreA: 30, ScoreB: 30, Rounds: 10},
					{A: "a", B: "c", ScoreA: 0, ScoreB: 50, Rounds: 10},
					{A: "b", B: "c", ScoreA: 20, ScoreB: 10, Rounds: 10},
				},
			},
		},
	}
}

func TestStandings(t *testing.T) {
	lb := NewTotalPayoffLeaderboard(language.English)

	got, err := lb.Standings(domain.Prison, sampleResult())
	require.NoError(t, err)

	want := []domain.Standing{
		{Rank: 1, Strategy: "c", Total: 60, PerRound: 3, Wins: 1, Losses: 1},
		{Rank: 2, Strategy: "b", Total: 50, PerRound: 2.5, Wins: 1, Draws: 1},
		{Rank: 3, Strategy: "a", Total: 30, PerRound: 1.5, Draws: 1, Losses: 1},
	}
	assert.Equal(t, want, got)
}

func TestStandings_TiesShareRank(t *testing.T) {
	lb := NewTotalPayoffLeaderboard(language.English)
	res := &domain.TournamentResult{
		Game:         domain.Prison,
		Participants: []string{"z", "y", "x"},
		Iterations: []domain.IterationResult{{
			Rounds: 1,
			Matches: []domain.MatchResult{
				{A: "z", B: "y", ScoreA: 3, ScoreB: 3, Rounds: 1},
				{A: "z", B: "x", ScoreA: 3, ScoreB: 5, Rounds: 1},
				{A: "y", B: "x", ScoreA: 3, ScoreB: 3, Rounds: 1},
			},
		}},
	}

	got, err := lb.Standings(domain.Prison, res)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "x", got[0].Strategy)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, []string{"y", "z"}, []string{got[1].Strategy, got[2].Strategy})
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, 2, got[2].Rank)
}

func TestStandings_Errors(t *testing.T) {
	lb := NewTotalPayoffLeaderboard(language.English)

	_, err := lb.Standings(domain.Prison, nil)
	assert.Error(t, err)

	_, err = lb.Standings(domain.Chicken, sampleResult())
	assert.ErrorContains(t, err, "not chicken")

	res := sampleResult()
	res.Iterations[0].Matches[0].B = "ghost"
	_, err = lb.Standings(domain.Prison, res)
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestLeaderboard(t *testing.T) {
	lb := NewTotalPayoffLeaderboard(language.English)
	res := sampleResult()
	res.Iterations[0].Matches[1].ScoreB = 12345

	text, err := lb.Leaderboard(domain.Prison, res)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Strategy")
	assert.Contains(t, lines[1], "c")
	assert.Contains(t, lines[1], "12,355")
}
