// Package script compiles JavaScript strategy files into strategy
// factories. A plugin file must declare a class (or constructor function)
// with the same name as the file; instances need a move(own, opponent)
// method and may define reset().
//
//	class tit_for_tat {
//	  move(own, opponent) {
//	    return opponent.length ? opponent[opponent.length - 1] : "C";
//	  }
//	}
//
// Histories are passed as arrays of "C" and "D". move returns "C" or "D"
// (long forms and heads/tails are accepted), or a boolean where true means
// cooperate.
package script

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/ahrav/go-gambit/internal/domain"
	"github.com/ahrav/go-gambit/internal/ports"
)

// Extension is the file extension handled by Compiler.
const Extension = ".js"

const (
	// DefaultCallTimeout bounds a single move or reset call.
	DefaultCallTimeout = time.Second

	// initTimeoutFactor scales the call timeout for top-level evaluation.
	initTimeoutFactor = 2
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Verify interface compliance at compile time.
var _ ports.PluginCompiler = (*Compiler)(nil)

// Compiler turns .js files into strategy factories. It holds no per-file
// state and is safe for concurrent use.
type Compiler struct {
	logger      *zap.Logger
	callTimeout time.Duration
}

// NewCompiler creates a Compiler. A nil logger is replaced with a no-op
// logger and a non-positive timeout with DefaultCallTimeout.
func NewCompiler(logger *zap.Logger, callTimeout time.Duration) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Compiler{logger: logger, callTimeout: callTimeout}
}

// Extension returns ".js".
func (c *Compiler) Extension() string { return Extension }

// Compile reads and parses path once, then probes it by building one
// instance so that a missing class or move method fails at load time
// instead of in the middle of a run.
func (c *Compiler) Compile(name, path string) (ports.StrategyFactory, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewPluginLoadError(name, path, err)
	}

	prog, err := goja.Compile(path, string(src), true)
	if err != nil {
		return nil, domain.NewPluginLoadError(name, path, fmt.Errorf("compile: %w", err))
	}

	factory := func() (ports.Strategy, error) {
		return c.instantiate(name, path, prog)
	}

	if _, err := factory(); err != nil {
		return nil, err
	}
	c.logger.Debug("compiled script strategy", zap.String("strategy", name), zap.String("path", path))

	return factory, nil
}

// instantiate evaluates prog in a fresh runtime and constructs the named
// class.
func (c *Compiler) instantiate(name, path string, prog *goja.Program) (*Strategy, error) {
	rt := goja.New()
	s := &Strategy{
		name:    name,
		rt:      rt,
		timeout: c.callTimeout,
	}
	c.sandbox(rt, name)

	if err := s.guard(c.callTimeout*initTimeoutFactor, func() error {
		_, err := rt.RunProgram(prog)
		return err
	}); err != nil {
		return nil, domain.NewPluginLoadError(name, path, fmt.Errorf("evaluate: %w", err))
	}

	// Class declarations are lexical bindings, not properties of the
	// global object, so the name is resolved by evaluating it.
	if !identRe.MatchString(name) {
		return nil, domain.NewPluginLoadError(name, path,
			fmt.Errorf("%w: %q is not a valid identifier", domain.ErrClassNotFound, name))
	}
	ctor, err := rt.RunString(name)
	if err != nil || ctor == nil || goja.IsUndefined(ctor) || goja.IsNull(ctor) {
		return nil, domain.NewPluginLoadError(name, path, domain.ErrClassNotFound)
	}
	if _, ok := goja.AssertConstructor(ctor); !ok {
		return nil, domain.NewPluginLoadError(name, path, domain.ErrNotConstructible)
	}
	s.ctor = ctor

	if err := s.construct(); err != nil {
		return nil, domain.NewPluginLoadError(name, path, err)
	}
	return s, nil
}

// sandbox removes host access and routes console.log to the logger.
func (c *Compiler) sandbox(rt *goja.Runtime, name string) {
	logger := c.logger.With(zap.String("strategy", name))
	console := rt.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}
		logger.Debug("script log", zap.Any("args", args))
		return goja.Undefined()
	})
	_ = rt.Set("console", console)

	for _, g := range []string{"require", "fetch", "XMLHttpRequest", "eval"} {
		_ = rt.Set(g, goja.Undefined())
	}
}

// Strategy is a ports.Strategy backed by a goja runtime. Each instance
// owns its runtime and must not be used from more than one goroutine.
type Strategy struct {
	name    string
	rt      *goja.Runtime
	timeout time.Duration

	ctor  goja.Value
	obj   *goja.Object
	move  goja.Callable
	reset goja.Callable

	// pending holds a reset failure to surface on the next Move.
	pending error
}

// Verify interface compliance at compile time.
var _ ports.Strategy = (*Strategy)(nil)

// Name returns the strategy name.
func (s *Strategy) Name() string { return s.name }

// Move calls the script's move method with both histories.
func (s *Strategy) Move(own, opponent []domain.Move) (domain.Move, error) {
	if s.pending != nil {
		err := s.pending
		s.pending = nil
		return 0, err
	}

	var out goja.Value
	err := s.guard(s.timeout, func() error {
		v, err := s.move(s.obj, s.history(own), s.history(opponent))
		out = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("move: %w", err)
	}
	return toMove(out)
}

// Reset calls the script's reset method, or builds a new instance when
// the class has none.
func (s *Strategy) Reset() {
	if s.reset == nil {
		s.pending = s.construct()
		return
	}
	s.pending = s.guard(s.timeout, func() error {
		_, err := s.reset(s.obj)
		return err
	})
	if s.pending != nil {
		s.pending = fmt.Errorf("reset: %w", s.pending)
	}
}

// construct instantiates the class and binds its methods.
func (s *Strategy) construct() error {
	var obj *goja.Object
	if err := s.guard(s.timeout, func() error {
		o, err := s.rt.New(s.ctor)
		obj = o
		return err
	}); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotConstructible, err)
	}

	move, ok := goja.AssertFunction(obj.Get("move"))
	if !ok {
		return domain.ErrMoveNotFunction
	}
	s.obj = obj
	s.move = move
	s.reset = nil
	if rv := obj.Get("reset"); rv != nil && !goja.IsUndefined(rv) && !goja.IsNull(rv) {
		if reset, ok := goja.AssertFunction(rv); ok {
			s.reset = reset
		}
	}
	return nil
}

func (s *Strategy) history(moves []domain.Move) goja.Value {
	items := make([]any, len(moves))
	for i, m := range moves {
		items[i] = m.String()
	}
	return s.rt.NewArray(items...)
}

// guard runs fn and interrupts the runtime if it exceeds timeout.
func (s *Strategy) guard(timeout time.Duration, fn func() error) error {
	fired := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		s.rt.Interrupt(ports.ErrTimeout)
		close(fired)
	})
	err := fn()
	if !timer.Stop() {
		<-fired
	}
	s.rt.ClearInterrupt()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w after %s", ports.ErrTimeout, timeout)
	}
	return err
}

// toMove converts a script return value into a Move.
func toMove(v goja.Value) (domain.Move, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, fmt.Errorf("%w: move returned nothing", domain.ErrInvalidMove)
	}
	switch x := v.Export().(type) {
	case string:
		return domain.ParseMove(x)
	case bool:
		if x {
			return domain.Cooperate, nil
		}
		return domain.Defect, nil
	default:
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidMove, x)
	}
}
