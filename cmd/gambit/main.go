// Command gambit plays a round-robin tournament for every combination of
// two or more strategies and prints a leaderboard for each.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/ahrav/go-gambit/infrastructure/engine"
	"github.com/ahrav/go-gambit/infrastructure/logging"
	"github.com/ahrav/go-gambit/infrastructure/middleware"
	"github.com/ahrav/go-gambit/infrastructure/script"
	"github.com/ahrav/go-gambit/infrastructure/store"
	"github.com/ahrav/go-gambit/infrastructure/telemetry"
	"github.com/ahrav/go-gambit/internal/application"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Environ())
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
// Reports go to stdout; logs and errors go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, environ []string) int {
	cli, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(cli, environ)
	if err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	loader, err := newLoader(cfg, logger)
	if err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitUsage
	}

	if cli.list {
		if err := listStrategies(stdout, loader, cfg.StrategiesDir); err != nil {
			fmt.Fprintln(stderr, "gambit:", err)
			return exitFailed
		}
		return exitOK
	}

	if err := validate(&cfg); err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitUsage
	}

	return play(ctx, cfg, loader, logger, stdout, stderr)
}

// loadConfig layers defaults, the optional YAML file, GAMBIT_* variables
// and the given flags, in that order.
func loadConfig(cli *cliArgs, environ []string) (application.RunConfig, error) {
	cfg := application.DefaultRunConfig()
	cl, err := application.NewConfigLoader()
	if err != nil {
		return cfg, err
	}
	if cli.conf != "" {
		if err := cl.ApplyFile(&cfg, cli.conf); err != nil {
			return cfg, err
		}
	}
	if err := cl.ApplyEnvMap(&cfg, envMap(environ)); err != nil {
		return cfg, err
	}
	cli.apply(&cfg)
	return cfg, nil
}

func validate(cfg *application.RunConfig) error {
	cl, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	return cl.Validate(cfg)
}

func newLoader(cfg application.RunConfig, logger *zap.Logger) (*application.PluginLoader, error) {
	policy, err := cfg.MissingPolicy()
	if err != nil {
		return nil, err
	}

	var registry *application.DefaultStrategyRegistry
	if cfg.Builtins {
		registry = application.NewDefaultStrategyRegistry()
	} else {
		registry = application.NewStrategyRegistry()
	}

	return application.NewPluginLoader(registry, policy, logger,
		script.NewCompiler(logger.Named("script"), cfg.CallTimeout))
}

func listStrategies(w io.Writer, loader *application.PluginLoader, dir string) error {
	infos, err := loader.Available(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\n", info.Name, info.Source)
	}
	return tw.Flush()
}

// play loads the roster once and drives every combination.
func play(
	ctx context.Context,
	cfg application.RunConfig,
	loader *application.PluginLoader,
	logger *zap.Logger,
	stdout, stderr io.Writer,
) int {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint, version)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("flushing spans", zap.Error(err))
		}
	}()

	allowed, err := cfg.AllowedSet()
	if err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitUsage
	}
	roster, err := loader.Load(ctx, cfg.StrategiesDir, allowed)
	if err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitFailed
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewPrometheusMetrics(reg)
	if cfg.MetricsAddr != "" {
		srv, err := middleware.StartMetricsServer(cfg.MetricsAddr, reg, logger.Named("metrics"))
		if err != nil {
			fmt.Fprintln(stderr, "gambit:", err)
			return exitFailed
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	opts := []application.DriverOption{
		application.WithWorkers(cfg.Workers),
		application.WithObserver(middleware.NewOTelCombinationObserver(nil)),
		application.WithMetrics(metrics),
		application.WithLogger(logger.Named("driver")),
	}

	var archive *store.SQLiteStore
	if cfg.DBPath != "" {
		archive, err = store.Open(ctx, cfg.DBPath)
		if err != nil {
			fmt.Fprintln(stderr, "gambit:", err)
			return exitFailed
		}
		defer func() { _ = archive.Close() }()
		opts = append(opts, application.WithStore(archive))
	}

	driver, err := application.NewDriver(
		roster,
		engine.NewRoundRobinEngine(logger.Named("engine"), cfg.Seed),
		engine.NewTotalPayoffLeaderboard(language.English),
		stdout,
		opts...,
	)
	if err != nil {
		fmt.Fprintln(stderr, "gambit:", err)
		return exitFailed
	}

	summary, runErr := driver.Run(ctx, cfg.TournamentConfig(), roster.Allowed())
	if summary == nil {
		fmt.Fprintln(stderr, "gambit:", runErr)
		return exitUsage
	}
	if err := driver.Summary(summary); err != nil {
		logger.Error("writing summary", zap.Error(err))
	}
	if archive != nil {
		if err := writeOverall(ctx, stdout, archive, summary.RunID); err != nil {
			logger.Warn("reading archived totals", zap.Error(err))
		}
	}

	if runErr != nil {
		fmt.Fprintln(stderr, "gambit:", runErr)
		return exitFailed
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(stderr, "gambit: [%d/%d] %s: %v\n", f.Seq, summary.Total, f.Combination, f.Err)
	}
	if summary.Failed > 0 {
		return exitFailed
	}
	return exitOK
}

// writeOverall prints every strategy's totals summed across the run.
func writeOverall(ctx context.Context, w io.Writer, archive *store.SQLiteStore, runID string) error {
	totals, err := archive.StrategyTotals(context.WithoutCancel(ctx), runID)
	if err != nil || len(totals) == 0 {
		return err
	}

	fmt.Fprintf(w, "\nOverall (run %s):\n", runID)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Strategy\tCombinations\tFirsts\tTotal\tW\tD\tL\t")
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			t.Strategy, t.Combinations, t.Firsts, t.Total, t.Wins, t.Draws, t.Losses)
	}
	return tw.Flush()
}

// envMap converts KEY=VALUE pairs into a map.
func envMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
