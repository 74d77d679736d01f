package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// MissingPolicy decides what happens to allowed names that are found
// neither on disk nor in the registry.
type MissingPolicy string

const (
	// MissingStrict fails the load with a MissingStrategiesError.
	MissingStrict MissingPolicy = "strict"
	// MissingPrune drops missing names from the allowed set.
	MissingPrune MissingPolicy = "prune"
	// MissingSkip keeps missing names; every combination that contains
	// one fails with a ResolutionError.
	MissingSkip MissingPolicy = "skip"
)

// MissingPolicies lists the accepted policies.
func MissingPolicies() []MissingPolicy {
	return []MissingPolicy{MissingStrict, MissingPrune, MissingSkip}
}

// ParseMissingPolicy converts s into a MissingPolicy. An empty string
// selects MissingStrict.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(s); p {
	case "":
		return MissingStrict, nil
	case MissingStrict, MissingPrune, MissingSkip:
		return p, nil
	default:
		return "", fmt.Errorf("%w: unknown missing policy %q (choose from %v)",
			domain.ErrInvalidConfiguration, s, MissingPolicies())
	}
}

// PluginFile is a strategy file found during discovery.
type PluginFile struct {
	// Name is the base name without extension.
	Name string
	// Path is the path to the file.
	Path string
	// Ext is the file extension, including the dot.
	Ext string
}

// StrategyInfo describes an available strategy for listings.
type StrategyInfo struct {
	// Name is the strategy name.
	Name string
	// Source is the plugin path, or "builtin".
	Source string
}

// builtinSource is the Source reported for compiled-in strategies.
const builtinSource = "builtin"

// builtinLister is implemented by registries that track built-ins.
type builtinLister interface {
	BuiltinNames() []string
	IsBuiltin(name string) bool
}

// PluginLoader discovers strategy files, compiles the allowed ones and
// resolves names to factories.
// PluginLoader never changes process-wide state; compiled factories are
// registered only in its own registry.
type PluginLoader struct {
	// registry receives compiled plugins and supplies built-ins.
	registry ports.StrategyRegistry
	// compilers maps a file extension to its compiler.
	compilers map[string]ports.PluginCompiler
	// policy governs missing allowed names.
	policy MissingPolicy
	logger *zap.Logger
}

// NewPluginLoader creates a loader that compiles files with compilers and
// registers them in registry.
// NewPluginLoader returns an error if two compilers claim the same
// extension.
func NewPluginLoader(
	registry ports.StrategyRegistry,
	policy MissingPolicy,
	logger *zap.Logger,
	compilers ...ports.PluginCompiler,
) (*PluginLoader, error) {
	if registry == nil {
		return nil, fmt.Errorf("strategy registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == "" {
		policy = MissingStrict
	}

	byExt := make(map[string]ports.PluginCompiler, len(compilers))
	for _, c := range compilers {
		ext := c.Extension()
		if _, dup := byExt[ext]; dup {
			return nil, fmt.Errorf("duplicate compiler for extension %s", ext)
		}
		byExt[ext] = c
	}

	return &PluginLoader{
		registry:  registry,
		compilers: byExt,
		policy:    policy,
		logger:    logger,
	}, nil
}

// Discover walks dir in lexical order and returns every file with a
// compilable extension whose name does not start with a dot. Hidden
// directories are walked like any other. When two files share a base name
// the first one found wins.
// Discover returns a *domain.DiscoveryError if dir cannot be walked.
func (l *PluginLoader) Discover(dir string) ([]PluginFile, error) {
	var files []PluginFile
	seen := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, ".") {
			return nil
		}

		ext := filepath.Ext(name)
		if _, ok := l.compilers[ext]; !ok {
			return nil
		}
		base := strings.TrimSuffix(name, ext)
		if base == "" {
			return nil
		}
		if first, dup := seen[base]; dup {
			l.logger.Warn("duplicate strategy file ignored",
				zap.String("strategy", base),
				zap.String("kept", first),
				zap.String("ignored", path))
			return nil
		}
		seen[base] = path
		files = append(files, PluginFile{Name: base, Path: path, Ext: ext})
		return nil
	})
	if err != nil {
		return nil, domain.NewDiscoveryError(dir, err)
	}

	return files, nil
}

// Available lists every strategy that Load could resolve: plugin files in
// walk order, then built-ins not shadowed by a file, sorted.
func (l *PluginLoader) Available(dir string) ([]StrategyInfo, error) {
	files, err := l.discoverTolerant(dir)
	if err != nil {
		return nil, err
	}
	return l.available(files), nil
}

func (l *PluginLoader) available(files []PluginFile) []StrategyInfo {
	out := make([]StrategyInfo, 0, len(files))
	onDisk := make(map[string]bool, len(files))
	for _, f := range files {
		out = append(out, StrategyInfo{Name: f.Name, Source: f.Path})
		onDisk[f.Name] = true
	}
	for _, name := range l.builtinNames() {
		if !onDisk[name] {
			out = append(out, StrategyInfo{Name: name, Source: builtinSource})
		}
	}
	return out
}

// Load discovers dir, compiles the plugin files named in allowed and
// returns a Roster resolving every allowed name.
// A nil allowed means every available strategy, in the order of
// Available. Files not in allowed are never compiled, so their errors
// cannot fail the load. An allowed file that does not compile is logged
// and kept in the Roster as broken: every combination containing it fails
// with its *domain.PluginLoadError while the others still run.
// Load returns a *domain.MissingStrategiesError for missing names under
// MissingStrict.
func (l *PluginLoader) Load(ctx context.Context, dir string, allowed domain.AllowedSet) (*Roster, error) {
	files, err := l.discoverTolerant(dir)
	if err != nil {
		return nil, err
	}

	if allowed == nil {
		infos := l.available(files)
		names := make([]string, len(infos))
		for i, info := range infos {
			names[i] = info.Name
		}
		if allowed, err = domain.NewAllowedSet(names); err != nil {
			return nil, err
		}
	}

	sources := make(map[string]string, len(allowed))
	broken := make(map[string]*domain.PluginLoadError)
	for _, f := range files {
		if !allowed.Contains(f.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sources[f.Name] = f.Path
		factory, err := l.compilers[f.Ext].Compile(f.Name, f.Path)
		if err == nil {
			if l.isBuiltin(f.Name) {
				l.logger.Warn("plugin file shadows built-in strategy",
					zap.String("strategy", f.Name),
					zap.String("path", f.Path))
			}
			err = l.registry.Register(f.Name, factory)
		}
		if err != nil {
			loadErr := asPluginLoadError(f, err)
			broken[f.Name] = loadErr
			l.logger.Warn("strategy plugin failed to load; combinations containing it will fail",
				zap.String("strategy", f.Name),
				zap.String("path", f.Path),
				zap.Error(loadErr))
			continue
		}
		l.logger.Debug("loaded strategy plugin", zap.String("strategy", f.Name), zap.String("path", f.Path))
	}

	factories := make(map[string]ports.StrategyFactory, len(allowed))
	var missing []string
	for _, name := range allowed {
		if _, ok := broken[name]; ok {
			continue
		}
		factory, ok := l.registry.Factory(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		factories[name] = factory
		if _, ok := sources[name]; !ok {
			sources[name] = builtinSource
		}
	}

	if len(missing) > 0 {
		switch l.policy {
		case MissingPrune:
			l.logger.Warn("pruning unknown strategies from the allow-list", zap.Strings("strategies", missing))
			allowed = allowed.Without(missing...)
		case MissingSkip:
			l.logger.Warn("unknown strategies kept; combinations containing them will fail",
				zap.Strings("strategies", missing))
		default:
			return nil, &domain.MissingStrategiesError{
				Names:       missing,
				Suggestions: suggest(missing, l.knownNames(files)),
			}
		}
	}

	return &Roster{
		allowed:   allowed,
		factories: factories,
		sources:   sources,
		broken:    broken,
	}, nil
}

func asPluginLoadError(f PluginFile, err error) *domain.PluginLoadError {
	var loadErr *domain.PluginLoadError
	if errors.As(err, &loadErr) {
		return loadErr
	}
	return domain.NewPluginLoadError(f.Name, f.Path, err)
}

// discoverTolerant is Discover, except that a missing directory is not an
// error while built-ins are available.
func (l *PluginLoader) discoverTolerant(dir string) ([]PluginFile, error) {
	files, err := l.Discover(dir)
	if err == nil {
		return files, nil
	}
	if errors.Is(err, os.ErrNotExist) && len(l.builtinNames()) > 0 {
		l.logger.Info("strategy directory not found; using built-ins only", zap.String("dir", dir))
		return nil, nil
	}
	return nil, err
}

func (l *PluginLoader) builtinNames() []string {
	if b, ok := l.registry.(builtinLister); ok {
		return b.BuiltinNames()
	}
	return nil
}

func (l *PluginLoader) isBuiltin(name string) bool {
	if b, ok := l.registry.(builtinLister); ok {
		return b.IsBuiltin(name)
	}
	return false
}

// knownNames returns the names a missing strategy could have meant.
func (l *PluginLoader) knownNames(files []PluginFile) []string {
	names := l.registry.Names()
	for _, f := range files {
		names = append(names, f.Name)
	}
	return names
}

// suggest maps each missing name to the closest known name within a small
// edit distance.
func suggest(missing, known []string) map[string]string {
	out := make(map[string]string)
	for _, m := range missing {
		best, bestDist := "", -1
		limit := max(2, len(m)/3)
		for _, k := range known {
			d := levenshtein.ComputeDistance(m, k)
			if d > limit {
				continue
			}
			if bestDist < 0 || d < bestDist || (d == bestDist && k < best) {
				best, bestDist = k, d
			}
		}
		if bestDist >= 0 {
			out[m] = best
		}
	}
	return out
}
