// Package store archives runs, combinations and standings in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// SQLiteStore implements ports.ResultStore on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ ports.ResultStore = (*SQLiteStore)(nil)

// migrations run in order on every open; each must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		game TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		rounds INTEGER NOT NULL,
		allowed TEXT NOT NULL,
		combinations INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		completed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		elapsed_ms INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS combinations (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		members TEXT NOT NULL,
		size INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	)`,
	`CREATE TABLE IF NOT EXISTS standings (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		total INTEGER NOT NULL,
		per_round REAL NOT NULL,
		wins INTEGER NOT NULL,
		draws INTEGER NOT NULL,
		losses INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq, strategy),
		FOREIGN KEY (run_id, seq) REFERENCES combinations(run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_standings_strategy ON standings(run_id, strategy)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC)`,
}

// Open opens or creates the database at path and applies migrations.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// BeginRun inserts the run row.
func (s *SQLiteStore) BeginRun(ctx context.Context, run domain.RunRecord) error {
	if s.closed.Load() {
		return ports.NewStoreError(run.ID, "begin_run", ports.ErrStoreClosed)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, game, iterations, rounds, allowed, combinations, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Config.Game), run.Config.Iterations, int(run.Config.Rounds),
		strings.Join(run.Allowed, ","), int64(run.Combinations), run.StartedAt.UTC(),
	)
	if err != nil {
		return ports.NewStoreError(run.ID, "begin_run", err)
	}
	return nil
}

// RecordCombination stores one combination and its standings atomically.
func (s *SQLiteStore) RecordCombination(ctx context.Context, rec domain.CombinationRecord) error {
	if s.closed.Load() {
		return ports.NewStoreError(rec.RunID, "record_combination", ports.ErrStoreClosed)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO combinations (run_id, seq, members, size, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.RunID, rec.Seq, rec.Combination.Key(), rec.Combination.Size(),
			rec.Duration.Milliseconds(), rec.Err,
		); err != nil {
			return err
		}
		if len(rec.Standings) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO standings (run_id, seq, rank, strategy, total, per_round, wins, draws, losses)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, st := range rec.Standings {
			if _, err := stmt.ExecContext(ctx,
				rec.RunID, rec.Seq, st.Rank, st.Strategy, st.Total, st.PerRound,
				st.Wins, st.Draws, st.Losses,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ports.NewStoreError(rec.RunID, "record_combination", err)
	}
	return nil
}

// FinishRun updates the run row with its final counts.
func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, stats domain.RunStats) error {
	if s.closed.Load() {
		return ports.NewStoreError(runID, "finish_run", ports.ErrStoreClosed)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, completed = ?, failed = ?, elapsed_ms = ? WHERE id = ?`,
		stats.FinishedAt.UTC(), stats.Completed, stats.Failed, stats.Elapsed.Milliseconds(), runID,
	)
	if err != nil {
		return ports.NewStoreError(runID, "finish_run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ports.NewStoreError(runID, "finish_run", sql.ErrNoRows)
	}
	return nil
}

// Close closes the database. Later calls return ErrStoreClosed.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ports.ErrStoreClosed
	}
	return s.db.Close()
}

// RunInfo is the archived header of one run.
type RunInfo struct {
	ID           string
	Game         domain.Game
	Combinations uint64
	Completed    int
	Failed       int
	Elapsed      time.Duration
	StartedAt    time.Time
}

// Run returns the archived header of runID.
func (s *SQLiteStore) Run(ctx context.Context, runID string) (RunInfo, error) {
	if s.closed.Load() {
		return RunInfo{}, ports.ErrStoreClosed
	}
	var (
		info      RunInfo
		game      string
		combos    int64
		elapsedMS int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, game, combinations, completed, failed, elapsed_ms, started_at FROM runs WHERE id = ?`,
		runID,
	).Scan(&info.ID, &game, &combos, &info.Completed, &info.Failed, &elapsedMS, &info.StartedAt)
	if err != nil {
		return RunInfo{}, ports.NewStoreError(runID, "run", err)
	}
	info.Game = domain.Game(game)
	info.Combinations = uint64(combos)
	info.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return info, nil
}

// StrategyTotal aggregates one strategy's standings across a run.
type StrategyTotal struct {
	Strategy     string
	Combinations int
	Firsts       int
	Total        int64
	Wins         int
	Draws        int
	Losses       int
}

// StrategyTotals sums every strategy's standings over the successful
// combinations of runID, best total first.
func (s *SQLiteStore) StrategyTotals(ctx context.Context, runID string) ([]StrategyTotal, error) {
	if s.closed.Load() {
		return nil, ports.ErrStoreClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT strategy, COUNT(*), SUM(CASE WHEN rank = 1 THEN 1 ELSE 0 END),
		        SUM(total), SUM(wins), SUM(draws), SUM(losses)
		 FROM standings WHERE run_id = ?
		 GROUP BY strategy
		 ORDER BY SUM(total) DESC, strategy ASC`,
		runID,
	)
	if err != nil {
		return nil, ports.NewStoreError(runID, "strategy_totals", err)
	}
	defer rows.Close()

	var out []StrategyTotal
	for rows.Next() {
		var t StrategyTotal
		if err := rows.Scan(&t.Strategy, &t.Combinations, &t.Firsts, &t.Total,
			&t.Wins, &t.Draws, &t.Losses); err != nil {
			return nil, ports.NewStoreError(runID, "strategy_totals", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.NewStoreError(runID, "strategy_totals", err)
	}
	return out, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
