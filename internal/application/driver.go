package application

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// CombinationFailure records one failed combination.
type CombinationFailure struct {
	Seq         int
	Combination domain.Combination
	Err         error
}

// RunSummary describes a finished run.
type RunSummary struct {
	// RunID identifies the run in logs, traces and the archive.
	RunID string
	// Total is the number of combinations the allow-list yields.
	Total uint64
	// Completed counts combinations that played and ranked.
	Completed int
	// Failed counts combinations that failed.
	Failed int
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
	// Failures lists failed combinations in enumeration order.
	Failures []CombinationFailure
}

// Driver runs one tournament per combination of the allow-list.
// By default combinations run one at a time in enumeration order. With
// more than one worker they run concurrently, but each combination's
// output is buffered and written in enumeration order.
type Driver struct {
	roster      *Roster
	engine      ports.TournamentEngine
	leaderboard ports.LeaderboardEngine
	reporter    *Reporter
	out         io.Writer

	workers  int
	observer ports.CombinationObserver
	metrics  ports.MetricsCollector
	store    ports.ResultStore
	logger   *zap.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithWorkers sets how many combinations may run at once. Values below one
// are treated as one.
func WithWorkers(n int) DriverOption {
	return func(d *Driver) { d.workers = max(1, n) }
}

// WithObserver registers an observer notified around every combination.
func WithObserver(o ports.CombinationObserver) DriverOption {
	return func(d *Driver) { d.observer = o }
}

// WithMetrics registers a metrics collector.
func WithMetrics(m ports.MetricsCollector) DriverOption {
	return func(d *Driver) { d.metrics = m }
}

// WithStore registers an archive for runs and standings.
func WithStore(s ports.ResultStore) DriverOption {
	return func(d *Driver) { d.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// NewDriver creates a Driver writing reports to out.
func NewDriver(
	roster *Roster,
	engine ports.TournamentEngine,
	leaderboard ports.LeaderboardEngine,
	out io.Writer,
	opts ...DriverOption,
) (*Driver, error) {
	if roster == nil {
		return nil, fmt.Errorf("roster cannot be nil")
	}
	if engine == nil {
		return nil, fmt.Errorf("tournament engine cannot be nil")
	}
	if leaderboard == nil {
		return nil, fmt.Errorf("leaderboard engine cannot be nil")
	}
	if out == nil {
		return nil, fmt.Errorf("output writer cannot be nil")
	}

	d := &Driver{
		roster:      roster,
		engine:      engine,
		leaderboard: leaderboard,
		reporter:    NewReporter(),
		out:         out,
		workers:     1,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run plays every combination of allowed, or of the roster's allow-list
// when allowed is nil.
// Per-combination failures are reported and counted; the run continues.
// Run returns an error only for an invalid config or a cancelled context,
// in which case the summary covers the combinations that were started.
func (d *Driver) Run(ctx context.Context, cfg domain.TournamentConfig, allowed domain.AllowedSet) (*RunSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if allowed == nil {
		allowed = d.roster.Allowed()
	}

	start := time.Now()
	summary := &RunSummary{
		RunID: uuid.NewString(),
		Total: CombinationCount(len(allowed)),
	}
	logger := d.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("starting run",
		zap.String("game", cfg.Game.String()),
		zap.Int("iterations", cfg.Iterations),
		zap.Stringer("rounds", cfg.Rounds),
		zap.Strings("allowed", allowed),
		zap.Uint64("combinations", summary.Total),
		zap.Int("workers", d.workers))

	d.gauge(ports.MetricCombinationsTotal, float64(summary.Total), cfg.Game)
	d.archive(logger, "BeginRun", func() error {
		return d.store.BeginRun(ctx, domain.RunRecord{
			ID:           summary.RunID,
			Config:       cfg,
			Allowed:      allowed,
			Combinations: summary.Total,
			StartedAt:    start,
		})
	})

	var mu sync.Mutex
	record := func(seq int, combo domain.Combination, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, CombinationFailure{Seq: seq, Combination: combo, Err: err})
			return
		}
		summary.Completed++
	}

	run := runner{d: d, runID: summary.RunID, total: summary.Total, cfg: cfg, logger: logger}
	if d.workers == 1 {
		d.runSequential(ctx, run, allowed, record)
	} else {
		d.runParallel(ctx, run, allowed, record)
	}

	summary.Elapsed = time.Since(start)
	slices.SortFunc(summary.Failures, func(a, b CombinationFailure) int { return cmp.Compare(a.Seq, b.Seq) })

	d.archive(logger, "FinishRun", func() error {
		return d.store.FinishRun(context.WithoutCancel(ctx), summary.RunID, domain.RunStats{
			Completed:  summary.Completed,
			Failed:     summary.Failed,
			Elapsed:    summary.Elapsed,
			FinishedAt: time.Now(),
		})
	})
	logger.Info("run finished",
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// Summary writes the closing line for s.
func (d *Driver) Summary(s *RunSummary) error { return d.reporter.Summary(d.out, s) }

func (d *Driver) runSequential(
	ctx context.Context,
	run runner,
	allowed domain.AllowedSet,
	record func(int, domain.Combination, error),
) {
	seq := 0
	for combo := range Combinations(allowed) {
		if ctx.Err() != nil {
			return
		}
		seq++
		err := run.play(ctx, seq, combo, d.out)
		record(seq, combo, err)
	}
}

func (d *Driver) runParallel(
	ctx context.Context,
	run runner,
	allowed domain.AllowedSet,
	record func(int, domain.Combination, error),
) {
	var (
		mu      sync.Mutex
		pending = make(map[int][]byte)
		next    = 1
	)
	flush := func(seq int, out []byte) {
		mu.Lock()
		defer mu.Unlock()
		pending[seq] = out
		for {
			buf, ok := pending[next]
			if !ok {
				return
			}
			if _, err := d.out.Write(buf); err != nil {
				run.logger.Error("failed to write report", zap.Int("seq", next), zap.Error(err))
			}
			delete(pending, next)
			next++
		}
	}

	var g errgroup.Group
	g.SetLimit(d.workers)

	seq := 0
	for combo := range Combinations(allowed) {
		if ctx.Err() != nil {
			break
		}
		seq++
		n := seq
		g.Go(func() error {
			var buf bytes.Buffer
			err := run.play(ctx, n, combo, &buf)
			record(n, combo, err)
			flush(n, buf.Bytes())
			return nil
		})
	}
	_ = g.Wait()
}

// runner carries the per-run values shared by every combination.
type runner struct {
	d      *Driver
	runID  string
	total  uint64
	cfg    domain.TournamentConfig
	logger *zap.Logger
}

// play runs one combination and writes its report to w.
func (r runner) play(ctx context.Context, seq int, combo domain.Combination, w io.Writer) (err error) {
	d := r.d
	rep := Report{Seq: seq, Total: r.total, Config: r.cfg, Combination: combo}

	if d.observer != nil {
		ctx = d.observer.PreRun(ctx, seq, combo, r.cfg)
	}
	var standings []domain.Standing
	defer func() {
		rep.Err = err
		d.finish(ctx, r, rep, standings)
		if werr := d.reporter.Finish(w, rep); werr != nil {
			r.logger.Error("failed to write report", zap.Int("seq", seq), zap.Error(werr))
		}
	}()

	if werr := d.reporter.Start(w, rep); werr != nil {
		r.logger.Error("failed to write report", zap.Int("seq", seq), zap.Error(werr))
	}

	lineup, err := d.roster.Instantiate(combo)
	if err != nil {
		return err
	}

	if werr := d.reporter.Running(w, rep); werr != nil {
		r.logger.Error("failed to write report", zap.Int("seq", seq), zap.Error(werr))
	}

	start := time.Now()
	result, err := d.engine.PlayTournament(ctx, r.cfg, lineup)
	rep.Duration = time.Since(start)
	if err != nil {
		return domain.NewEngineError(r.cfg.Game, combo, "play", err)
	}

	rep.Leaderboard, err = d.leaderboard.Leaderboard(r.cfg.Game, result)
	if err != nil {
		return domain.NewEngineError(r.cfg.Game, combo, "leaderboard", err)
	}
	if d.store != nil {
		standings, err = d.leaderboard.Standings(r.cfg.Game, result)
		if err != nil {
			return domain.NewEngineError(r.cfg.Game, combo, "leaderboard", err)
		}
	}
	return nil
}

// finish notifies the observer, metrics and archive about one combination.
func (d *Driver) finish(ctx context.Context, r runner, rep Report, standings []domain.Standing) {
	status := "ok"
	if rep.Err != nil {
		status = "failed"
		r.logger.Warn("combination failed",
			zap.Int("seq", rep.Seq),
			zap.Strings("combination", rep.Combination),
			zap.Error(rep.Err))
	}

	if d.observer != nil {
		d.observer.PostRun(ctx, rep.Seq, rep.Combination, rep.Duration, rep.Err)
	}

	if d.metrics != nil {
		labels := map[string]string{"game": r.cfg.Game.String(), "status": status}
		d.metrics.RecordLatency(ports.OperationCombination, rep.Duration, labels)
		d.metrics.RecordHistogram(ports.MetricCombinationSize, float64(rep.Combination.Size()), labels)
		if rep.Err != nil {
			d.metrics.RecordCounter(ports.MetricCombinationsFailed, 1, map[string]string{"game": r.cfg.Game.String()})
		} else {
			d.metrics.RecordCounter(ports.MetricCombinationsCompleted, 1, map[string]string{"game": r.cfg.Game.String()})
		}
	}

	rec := domain.CombinationRecord{
		RunID:       r.runID,
		Seq:         rep.Seq,
		Combination: rep.Combination,
		Duration:    rep.Duration,
		Standings:   standings,
	}
	if rep.Err != nil {
		rec.Err = rep.Err.Error()
	}
	d.archive(r.logger, "RecordCombination", func() error {
		return d.store.RecordCombination(context.WithoutCancel(ctx), rec)
	})
}

func (d *Driver) gauge(metric string, v float64, game domain.Game) {
	if d.metrics != nil {
		d.metrics.RecordGauge(metric, v, map[string]string{"game": game.String()})
	}
}

// archive runs fn against the store, if any. Archive failures are logged
// and never fail a combination.
func (d *Driver) archive(logger *zap.Logger, op string, fn func() error) {
	if d.store == nil {
		return
	}
	if err := fn(); err != nil {
		logger.Error("archive write failed", zap.String("operation", op), zap.Error(err))
	}
}
