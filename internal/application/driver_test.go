package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
	"github.com/ahrav/go-gambit/internal/testutils"
)

var testConfig = domain.TournamentConfig{
	Game:       domain.Prison,
	Iterations: 100,
	Rounds:     domain.EngineChosenRounds,
}

func mockRoster(names ...string) *Roster {
	factories := make(map[string]ports.StrategyFactory, len(names))
	for _, n := range names {
		factories[n], _ = testutils.CountingFactory(n, domain.Cooperate)
	}
	return NewRoster(domain.AllowedSet(names), factories)
}

func successBlock(seq, total int, names ...string) string {
	combo := strings.Join(names, ", ")
	return fmt.Sprintf("[%d/%d] %s\n", seq, total, combo) +
		"Running 100 iterations with 1000 + X rounds of a Round-Robin Tournament of prison...\n" +
		"Finished. Tournament took 0.0 seconds to run.\n" +
		"Calculating results...\n\nLeaderboard:\n" +
		"board(prison): " + combo + "\n"
}

func newTestDriver(t *testing.T, roster *Roster, engine *testutils.MockEngine, out *bytes.Buffer, opts ...DriverOption) *Driver {
	t.Helper()
	opts = append([]DriverOption{WithLogger(zaptest.NewLogger(t))}, opts...)
	d, err := NewDriver(roster, engine, engine, out, opts...)
	require.NoError(t, err)
	return d
}

func TestNewDriver(t *testing.T) {
	engine := testutils.NewMockEngine()
	roster := mockRoster("a", "b")
	var out bytes.Buffer

	tests := []struct {
		name    string
		roster  *Roster
		engine  ports.TournamentEngine
		lb      ports.LeaderboardEngine
		out     *bytes.Buffer
		wantErr string
	}{
		{"valid", roster, engine, engine, &out, ""},
		{"nil roster", nil, engine, engine, &out, "roster cannot be nil"},
		{"nil engine", roster, nil, engine, &out, "tournament engine cannot be nil"},
		{"nil leaderboard", roster, engine, nil, &out, "leaderboard engine cannot be nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDriver(tt.roster, tt.engine, tt.lb, tt.out)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	_, err := NewDriver(roster, engine, engine, nil)
	assert.EqualError(t, err, "output writer cannot be nil")
}

func TestDriver_RunSequential(t *testing.T) {
	engine := testutils.NewMockEngine()
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b", "c"), engine, &out)

	summary, err := d.Run(context.Background(), testConfig, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}, {"a", "c"}, {"b", "c"}, {"a", "b", "c"}}, engine.Calls())
	assert.Equal(t,
		successBlock(1, 4, "a", "b")+
			successBlock(2, 4, "a", "c")+
			successBlock(3, 4, "b", "c")+
			successBlock(4, 4, "a", "b", "c"),
		out.String())

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, uint64(4), summary.Total)
	assert.Equal(t, 4, summary.Completed)
	assert.Zero(t, summary.Failed)
	for _, cfg := range engine.Configs() {
		assert.Equal(t, testConfig, cfg)
	}
}

func TestDriver_RunUsesExplicitAllowed(t *testing.T) {
	engine := testutils.NewMockEngine()
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b", "c"), engine, &out)

	summary, err := d.Run(context.Background(), testConfig, domain.AllowedSet{"c", "a"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"c", "a"}}, engine.Calls())
	assert.Equal(t, uint64(1), summary.Total)
}

func TestDriver_RunTooFewStrategies(t *testing.T) {
	engine := testutils.NewMockEngine()
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("solo"), engine, &out)

	summary, err := d.Run(context.Background(), testConfig, nil)
	require.NoError(t, err)
	assert.Empty(t, engine.Calls())
	assert.Empty(t, out.String())
	assert.Zero(t, summary.Total)
}

func TestDriver_RunContinuesAfterFailures(t *testing.T) {
	boom := errors.New("boom")
	engine := testutils.NewMockEngine().
		FailOn(boom, "a", "c").
		FailLeaderboardOn(errors.New("no ranking"), "b", "c")
	roster := NewRoster(domain.AllowedSet{"a", "b", "c", "ghost"}, mockRoster("a", "b", "c").factories)
	var out bytes.Buffer
	d := newTestDriver(t, roster, engine, &out)

	summary, err := d.Run(context.Background(), testConfig, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(11), summary.Total)
	assert.Equal(t, 11, summary.Completed+summary.Failed)
	// ghost appears in 7 of the 11 combinations.
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 9, summary.Failed)

	text := out.String()
	assert.Contains(t, text, "combination a, c failed: engine error: operation=play, game=prison, combination=[a, c], err=boom\n")
	assert.Contains(t, text, "combination b, c failed: engine error: operation=leaderboard")
	assert.Contains(t, text, "[3/11] a, ghost\ncombination a, ghost failed: resolution error")

	require.Len(t, summary.Failures, 9)
	assert.Equal(t, 2, summary.Failures[0].Seq)
	var eerr *domain.EngineError
	require.ErrorAs(t, summary.Failures[0].Err, &eerr)
	assert.ErrorIs(t, eerr, boom)
	var rerr *domain.ResolutionError
	assert.ErrorAs(t, summary.Failures[1].Err, &rerr)
	for i := 1; i < len(summary.Failures); i++ {
		assert.Less(t, summary.Failures[i-1].Seq, summary.Failures[i].Seq)
	}
}

func TestDriver_RunParallelPreservesOrder(t *testing.T) {
	names := []string{"a", "b", "c", "d"}

	var sequential bytes.Buffer
	_, err := newTestDriver(t, mockRoster(names...), testutils.NewMockEngine(), &sequential).
		Run(context.Background(), testConfig, nil)
	require.NoError(t, err)

	// Early combinations finish last.
	engine := testutils.NewMockEngine().
		DelayOn(25*time.Millisecond, "a", "b").
		DelayOn(20*time.Millisecond, "a", "c").
		DelayOn(15*time.Millisecond, "a", "d").
		FailOn(errors.New("boom"), "b", "c")
	var parallel bytes.Buffer
	summary, err := newTestDriver(t, mockRoster(names...), engine, &parallel, WithWorkers(4)).
		Run(context.Background(), testConfig, nil)
	require.NoError(t, err)

	assert.Len(t, engine.Calls(), 11)
	assert.Equal(t, 10, summary.Completed)
	assert.Equal(t, 1, summary.Failed)

	want := strings.Replace(sequential.String(),
		"Finished. Tournament took 0.0 seconds to run.\nCalculating results...\n\nLeaderboard:\nboard(prison): b, c\n",
		"combination b, c failed: engine error: operation=play, game=prison, combination=[b, c], err=boom\n", 1)
	assert.Equal(t, want, parallel.String())
}

func TestDriver_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := testutils.NewMockEngine()
	store := testutils.NewMemoryStore()
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b", "c"), engine, &out, WithStore(store))

	summary, err := d.Run(ctx, testConfig, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Completed+summary.Failed)
	assert.Empty(t, engine.Calls())
	assert.Contains(t, store.Stats, summary.RunID, "run is closed in the archive even when cancelled")
}

func TestDriver_RunInvalidConfig(t *testing.T) {
	engine := testutils.NewMockEngine()
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b"), engine, &out)

	_, err := d.Run(context.Background(), domain.TournamentConfig{Game: "poker", Iterations: 1, Rounds: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	assert.Empty(t, engine.Calls())
}

func TestDriver_RunHooks(t *testing.T) {
	engine := testutils.NewMockEngine().FailOn(errors.New("boom"), "a", "c")
	observer := &testutils.RecordingObserver{}
	metrics := testutils.NewMockMetricsCollector()
	store := testutils.NewMemoryStore()
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b", "c"), engine, &out,
		WithObserver(observer), WithMetrics(metrics), WithStore(store))

	summary, err := d.Run(context.Background(), testConfig, nil)
	require.NoError(t, err)

	events := observer.Events()
	require.Len(t, events, 8)
	assert.Equal(t, testutils.ObserverEvent{Phase: "pre", Seq: 1, Combination: "a, b"}, events[0])
	assert.Equal(t, "post", events[3].Phase)
	assert.Equal(t, "a, c", events[3].Combination)
	assert.Error(t, events[3].Err)

	assert.Equal(t, float64(3), metrics.Counter(ports.MetricCombinationsCompleted))
	assert.Equal(t, float64(1), metrics.Counter(ports.MetricCombinationsFailed))
	assert.Equal(t, float64(4), metrics.Gauges[ports.MetricCombinationsTotal])
	assert.Len(t, metrics.Latencies[ports.OperationCombination], 4)
	assert.Equal(t, []float64{2, 2, 2, 3}, metrics.Histograms[ports.MetricCombinationSize])

	require.Len(t, store.Runs, 1)
	assert.Equal(t, summary.RunID, store.Runs[0].ID)
	assert.Equal(t, domain.AllowedSet{"a", "b", "c"}, store.Runs[0].Allowed)
	require.Len(t, store.Combinations, 4)
	assert.Equal(t, "a, c", store.Combinations[1].Combination.String())
	assert.Contains(t, store.Combinations[1].Err, "boom")
	assert.Empty(t, store.Combinations[1].Standings)
	assert.Len(t, store.Combinations[3].Standings, 3)
	assert.Equal(t, 3, store.Stats[summary.RunID].Completed)
	assert.Equal(t, 1, store.Stats[summary.RunID].Failed)
}

func TestDriver_ArchiveFailureIsNotFatal(t *testing.T) {
	store := testutils.NewMemoryStore()
	store.FailBegin = errors.New("disk full")
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b"), testutils.NewMockEngine(), &out, WithStore(store))

	summary, err := d.Run(context.Background(), testConfig, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
}

func TestDriver_Summary(t *testing.T) {
	var out bytes.Buffer
	d := newTestDriver(t, mockRoster("a", "b"), testutils.NewMockEngine(), &out)

	require.NoError(t, d.Summary(&RunSummary{Total: 1, Completed: 1}))
	assert.Equal(t, "Completed 1 of 1 combinations (0 failed) in 0.0 seconds.\n", out.String())
}
