package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var started = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func testRun(id string) domain.RunRecord {
	return domain.RunRecord{
		ID: id,
		Config: domain.TournamentConfig{
			Game:       domain.Prison,
			Iterations: 10,
			Rounds:     domain.EngineChosenRounds,
		},
		Allowed:      domain.AllowedSet{"a", "b", "c"},
		Combinations: 4,
		StartedAt:    started,
	}
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	require.NoError(t, s.BeginRun(ctx, testRun("r1")))

	require.NoError(t, s.RecordCombination(ctx, domain.CombinationRecord{
		RunID:       "r1",
		Seq:         1,
		Combination: domain.Combination{"a", "b"},
		Duration:    1500 * time.Millisecond,
		Standings: []domain.Standing{
			{Rank: 1, Strategy: "a", Total: 30, PerRound: 3, Wins: 1},
			{Rank: 2, Strategy: "b", Total: 10, PerRound: 1, Losses: 1},
		},
	}))
	require.NoError(t, s.RecordCombination(ctx, domain.CombinationRecord{
		RunID:       "r1",
		Seq:         2,
		Combination: domain.Combination{"a", "c"},
		Err:         "strategy error: strategy=c",
	}))
	require.NoError(t, s.RecordCombination(ctx, domain.CombinationRecord{
		RunID:       "r1",
		Seq:         3,
		Combination: domain.Combination{"b", "c"},
		Standings: []domain.Standing{
			{Rank: 1, Strategy: "b", Total: 20, Draws: 1},
			{Rank: 1, Strategy: "c", Total: 20, Draws: 1},
		},
	}))

	require.NoError(t, s.FinishRun(ctx, "r1", domain.RunStats{
		Completed:  2,
		Failed:     1,
		Elapsed:    3 * time.Second,
		FinishedAt: started.Add(3 * time.Second),
	}))

	info, err := s.Run(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.Prison, info.Game)
	assert.Equal(t, uint64(4), info.Combinations)
	assert.Equal(t, 2, info.Completed)
	assert.Equal(t, 1, info.Failed)
	assert.Equal(t, 3*time.Second, info.Elapsed)
	assert.True(t, started.Equal(info.StartedAt))

	totals, err := s.StrategyTotals(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []StrategyTotal{
		{Strategy: "a", Combinations: 1, Firsts: 1, Total: 30, Wins: 1},
		{Strategy: "b", Combinations: 2, Firsts: 1, Total: 30, Draws: 1, Losses: 1},
		{Strategy: "c", Combinations: 1, Firsts: 1, Total: 20, Draws: 1},
	}, totals)
}

func TestSQLiteStore_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		run  func(t *testing.T, s *SQLiteStore) error
		op   string
	}{
		{
			name: "duplicate run",
			run: func(t *testing.T, s *SQLiteStore) error {
				require.NoError(t, s.BeginRun(ctx, testRun("dup")))
				return s.BeginRun(ctx, testRun("dup"))
			},
			op: "begin_run",
		},
		{
			name: "combination for unknown run",
			run: func(t *testing.T, s *SQLiteStore) error {
				return s.RecordCombination(ctx, domain.CombinationRecord{
					RunID: "ghost", Seq: 1, Combination: domain.Combination{"a", "b"},
				})
			},
			op: "record_combination",
		},
		{
			name: "duplicate standing rolls back combination",
			run: func(t *testing.T, s *SQLiteStore) error {
				require.NoError(t, s.BeginRun(ctx, testRun("r")))
				err := s.RecordCombination(ctx, domain.CombinationRecord{
					RunID: "r", Seq: 1, Combination: domain.Combination{"a", "b"},
					Standings: []domain.Standing{{Strategy: "a"}, {Strategy: "a"}},
				})
				var n int
				require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM combinations`).Scan(&n))
				assert.Zero(t, n)
				return err
			},
			op: "record_combination",
		},
		{
			name: "finish unknown run",
			run: func(t *testing.T, s *SQLiteStore) error {
				return s.FinishRun(ctx, "ghost", domain.RunStats{})
			},
			op: "finish_run",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(t, openMemory(t))
			require.Error(t, err)

			var serr *ports.StoreError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.op, serr.Operation)
		})
	}

	t.Run("unknown run lookup", func(t *testing.T) {
		_, err := openMemory(t).Run(ctx, "ghost")
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestSQLiteStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Close(), ports.ErrStoreClosed)
	assert.ErrorIs(t, s.BeginRun(ctx, testRun("x")), ports.ErrStoreClosed)
	assert.ErrorIs(t, s.RecordCombination(ctx, domain.CombinationRecord{RunID: "x"}), ports.ErrStoreClosed)
	assert.ErrorIs(t, s.FinishRun(ctx, "x", domain.RunStats{}), ports.ErrStoreClosed)
	_, err = s.StrategyTotals(ctx, "x")
	assert.ErrorIs(t, err, ports.ErrStoreClosed)
}

func TestOpen_ReopensFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gambit.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.BeginRun(ctx, testRun("persisted")))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	info, err := s.Run(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted", info.ID)
}
