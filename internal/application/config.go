package application

import (
	"time"

	"github.com/ahrav/go-gambit/internal/domain"
)

// RunConfig is the complete configuration of one orchestrator run.
// Values are layered: DefaultRunConfig, then an optional YAML file, then
// GAMBIT_* environment variables, then command-line flags.
type RunConfig struct {
	// Game selects the payoff structure the engine plays.
	Game string `yaml:"game" env:"GAMBIT_GAME" validate:"required,game"`
	// Rounds is the per-match round count, or -1 to let the engine choose
	// 1000 plus a random jitter.
	Rounds int `yaml:"rounds" env:"GAMBIT_ROUNDS" validate:"rounddirective"`
	// Iterations is how many times the round robin is repeated for each
	// combination.
	Iterations int `yaml:"iterations" env:"GAMBIT_ITERATIONS" validate:"min=1,max=1000000"`
	// StrategiesDir is the directory scanned for plugin files.
	StrategiesDir string `yaml:"strategies_dir" env:"GAMBIT_STRATEGIES_DIR" validate:"required"`
	// StrategyList is the allow-list. Empty means every available
	// strategy.
	StrategyList []string `yaml:"strategy_list" env:"GAMBIT_STRATEGY_LIST" envSeparator:"," validate:"omitempty,unique,dive,strategyname"`
	// Focus restricts the run to the two strategies in StrategyList.
	Focus bool `yaml:"focus" env:"GAMBIT_FOCUS"`
	// Workers bounds how many combinations run at once.
	Workers int `yaml:"workers" env:"GAMBIT_WORKERS" validate:"min=1,max=256"`
	// Missing is the policy for allow-listed names that cannot be found.
	Missing string `yaml:"missing" env:"GAMBIT_MISSING" validate:"omitempty,oneof=strict prune skip"`
	// Builtins includes the strategies compiled into the binary.
	Builtins bool `yaml:"builtins" env:"GAMBIT_BUILTINS"`
	// Seed seeds the engine's random source; 0 picks a time-based seed.
	Seed uint64 `yaml:"seed" env:"GAMBIT_SEED"`
	// CallTimeout bounds a single script strategy call.
	CallTimeout time.Duration `yaml:"call_timeout" env:"GAMBIT_CALL_TIMEOUT" validate:"min=0,max=1m"`
	// DBPath enables the SQLite run archive when set.
	DBPath string `yaml:"db" env:"GAMBIT_DB"`
	// MetricsAddr serves Prometheus metrics on this address when set.
	MetricsAddr string `yaml:"metrics_addr" env:"GAMBIT_METRICS_ADDR" validate:"omitempty,hostname_port"`
	// OTelEndpoint exports combination spans over OTLP/HTTP when set.
	OTelEndpoint string `yaml:"otel_endpoint" env:"GAMBIT_OTEL_ENDPOINT" validate:"omitempty,url"`
	// LogLevel is the minimum level written to stderr.
	LogLevel string `yaml:"log_level" env:"GAMBIT_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// Defaults for RunConfig.
const (
	DefaultStrategiesDir = "./strategies"
	DefaultCallTimeout   = time.Second
	DefaultLogLevel      = "warn"
)

// DefaultRunConfig returns the configuration used when nothing else is
// set. Game has no default.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Rounds:        int(domain.EngineChosenRounds),
		Iterations:    domain.DefaultIterations,
		StrategiesDir: DefaultStrategiesDir,
		Workers:       1,
		Missing:       string(MissingStrict),
		Builtins:      true,
		CallTimeout:   DefaultCallTimeout,
		LogLevel:      DefaultLogLevel,
	}
}

// TournamentConfig returns the engine-facing part of the configuration.
func (c RunConfig) TournamentConfig() domain.TournamentConfig {
	return domain.TournamentConfig{
		Game:       domain.Game(c.Game),
		Iterations: c.Iterations,
		Rounds:     domain.RoundDirective(c.Rounds),
	}
}

// AllowedSet returns the allow-list, or nil when every available strategy
// should take part.
func (c RunConfig) AllowedSet() (domain.AllowedSet, error) {
	if len(c.StrategyList) == 0 {
		return nil, nil
	}
	return domain.NewAllowedSet(c.StrategyList)
}

// MissingPolicy returns the parsed missing-name policy.
func (c RunConfig) MissingPolicy() (MissingPolicy, error) {
	return ParseMissingPolicy(c.Missing)
}
