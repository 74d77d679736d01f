package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ahrav/go-gambit/internal/application"
	"github.com/ahrav/go-gambit/internal/domain"
)

// listFlag collects comma-separated values across repeated flags.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*l = append(*l, name)
		}
	}
	return nil
}

// cliArgs holds the parsed command line. set records which canonical
// flags were given, so only those override file and environment values.
type cliArgs struct {
	conf         string
	list         bool
	game         string
	rounds       int
	iterations   int
	strategies   string
	focus        bool
	strategyList listFlag
	workers      int
	missing      string
	builtins     bool
	seed         uint64
	callTimeout  time.Duration
	db           string
	metricsAddr  string
	otelEndpoint string
	logLevel     string

	set map[string]bool
}

// aliases maps short flag names to their canonical long names.
var aliases = map[string]string{
	"n":  "rounds",
	"i":  "iterations",
	"s":  "strategies",
	"f":  "focus",
	"sl": "strategylist",
}

func newFlagSet(a *cliArgs, stderr io.Writer) *flag.FlagSet {
	def := application.DefaultRunConfig()
	fs := flag.NewFlagSet("gambit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: gambit <%s> [flags] [strategy names...]\n\n",
			strings.Join(gameNames(), "|"))
		fs.PrintDefaults()
	}

	for _, name := range []string{"n", "rounds"} {
		fs.IntVar(&a.rounds, name, def.Rounds, "rounds per match; -1 lets the engine choose 1000 + X")
	}
	for _, name := range []string{"i", "iterations"} {
		fs.IntVar(&a.iterations, name, def.Iterations, "iterations per combination")
	}
	for _, name := range []string{"s", "strategies"} {
		fs.StringVar(&a.strategies, name, def.StrategiesDir, "strategy plugin directory")
	}
	for _, name := range []string{"f", "focus"} {
		fs.BoolVar(&a.focus, name, false, "play only the two strategies given with -sl")
	}
	for _, name := range []string{"sl", "strategylist"} {
		fs.Var(&a.strategyList, name, "allowed strategies, comma separated and repeatable")
	}

	fs.StringVar(&a.conf, "conf", "", "YAML configuration file")
	fs.BoolVar(&a.list, "list", false, "list available strategies and exit")
	fs.IntVar(&a.workers, "workers", def.Workers, "combinations played in parallel")
	fs.StringVar(&a.missing, "missing", def.Missing, "policy for unknown strategy names: strict, prune or skip")
	fs.BoolVar(&a.builtins, "builtins", def.Builtins, "include the built-in strategies")
	fs.Uint64Var(&a.seed, "seed", def.Seed, "engine random seed; 0 is time based")
	fs.DurationVar(&a.callTimeout, "call-timeout", def.CallTimeout, "time limit for one script strategy call")
	fs.StringVar(&a.db, "db", "", "SQLite file archiving the run")
	fs.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.StringVar(&a.otelEndpoint, "otel-endpoint", "", "OTLP/HTTP endpoint receiving combination spans")
	fs.StringVar(&a.logLevel, "log-level", def.LogLevel, "log level: debug, info, warn or error")
	return fs
}

// parseArgs parses args (without the program name). Flags may appear
// before or after the positional game; positionals after the game are
// appended to the strategy list.
func parseArgs(args []string, stderr io.Writer) (*cliArgs, error) {
	a := &cliArgs{set: make(map[string]bool)}
	fs := newFlagSet(a, stderr)

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		a.set[name] = true
	})

	if len(positional) > 0 {
		a.game = positional[0]
		a.set["game"] = true
	}
	if len(positional) > 1 {
		a.strategyList = append(a.strategyList, positional[1:]...)
		a.set["strategylist"] = true
	}
	return a, nil
}

// apply overlays the flags that were given onto cfg.
func (a *cliArgs) apply(cfg *application.RunConfig) {
	if a.set["game"] {
		cfg.Game = a.game
	}
	if a.set["rounds"] {
		cfg.Rounds = a.rounds
	}
	if a.set["iterations"] {
		cfg.Iterations = a.iterations
	}
	if a.set["strategies"] {
		cfg.StrategiesDir = a.strategies
	}
	if a.set["focus"] {
		cfg.Focus = a.focus
	}
	if a.set["strategylist"] {
		cfg.StrategyList = []string(a.strategyList)
	}
	if a.set["workers"] {
		cfg.Workers = a.workers
	}
	if a.set["missing"] {
		cfg.Missing = a.missing
	}
	if a.set["builtins"] {
		cfg.Builtins = a.builtins
	}
	if a.set["seed"] {
		cfg.Seed = a.seed
	}
	if a.set["call-timeout"] {
		cfg.CallTimeout = a.callTimeout
	}
	if a.set["db"] {
		cfg.DBPath = a.db
	}
	if a.set["metrics-addr"] {
		cfg.MetricsAddr = a.metricsAddr
	}
	if a.set["otel-endpoint"] {
		cfg.OTelEndpoint = a.otelEndpoint
	}
	if a.set["log-level"] {
		cfg.LogLevel = a.logLevel
	}
}

func gameNames() []string {
	games := domain.Games()
	names := make([]string, len(games))
	for i, g := range games {
		names[i] = g.String()
	}
	return names
}
