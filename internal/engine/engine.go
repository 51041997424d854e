// Package engine runs parsed scripts on the interpreter or, when a script
// embeds Go code or requires Go modules, on the native build path.
package engine

import (
	"context"
	"io"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/parser"
	"github.com/btouchard/gox/internal/compiler/resolver"
	"github.com/btouchard/gox/internal/config"
	"github.com/btouchard/gox/internal/interpreter"
	"github.com/btouchard/gox/internal/native"
	"github.com/btouchard/gox/pkg/modules"
	"github.com/btouchard/gox/pkg/value"
)

// Backend names an execution path.
type Backend int

const (
	Interpreted Backend = iota
	Native
)

func (b Backend) String() string {
	if b == Native {
		return "native"
	}
	return "interpreter"
}

type Engine struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	args   []string
	force  bool
	log    zerolog.Logger

	resolver *resolver.Resolver
	runner   *native.Runner
	cache    *native.Cache
	runnerFn func() (*native.Runner, *native.Cache, error)
}

type Option func(*Engine)

func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Engine) {
		e.stdin, e.stdout, e.stderr = stdin, stdout, stderr
	}
}

// WithArgs sets what os.args() returns in the script.
func WithArgs(args []string) Option {
	return func(e *Engine) { e.args = args }
}

// ForceNative runs every script on the native path.
func ForceNative(force bool) Option {
	return func(e *Engine) { e.force = force }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithResolver(r *resolver.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithRunner supplies the native runner directly.
func WithRunner(r *native.Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithConfig builds the native runner from cfg the first time a script
// needs it.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		e.runnerFn = func() (*native.Runner, *native.Cache, error) {
			return newRunner(cfg, e)
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		log:    log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = resolver.New()
	}
	if e.runnerFn == nil {
		e.runnerFn = func() (*native.Runner, *native.Cache, error) {
			return newRunner(config.Default(), e)
		}
	}
	return e
}

func newRunner(cfg *config.Config, e *Engine) (*native.Runner, *native.Cache, error) {
	fs := osfs.New(cfg.CacheDir)
	opts := []native.Option{
		native.WithFilesystem(fs),
		native.WithToolchain(&native.GoToolchain{Binary: cfg.Go, Flags: cfg.BuildFlags, Offline: cfg.Offline}),
		native.WithRuntime(native.Runtime{Dir: cfg.RuntimeDir, Version: cfg.RuntimeVersion}),
		native.WithStdio(native.Stdio{Stdin: e.stdin, Stdout: e.stdout, Stderr: e.stderr}),
		native.WithArgs(e.args),
		native.WithLogger(e.log),
		native.WithResolver(e.resolver),
	}
	var cache *native.Cache
	if !cfg.NoCache {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, nil, errors.Wrap(err, "creating cache directory")
		}
		c, err := native.OpenCache(fs, cfg.CacheIndex())
		if err != nil {
			return nil, nil, err
		}
		cache = c
		opts = append(opts, native.WithCache(c))
	}
	return native.NewRunner(opts...), cache, nil
}

// Backend reports which path Run would take for prog.
func (e *Engine) Backend(prog *ast.Program) (Backend, error) {
	if e.force {
		return Native, nil
	}
	res, err := e.resolver.Resolve(prog, prog.File)
	if err != nil {
		return Interpreted, err
	}
	if native.RequiresNativeResolved(res) {
		return Native, nil
	}
	return Interpreted, nil
}

// Run executes prog and returns its terminal value. Values produced by
// the native path are unwrapped.
func (e *Engine) Run(ctx context.Context, prog *ast.Program) (value.Value, error) {
	backend, err := e.Backend(prog)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("file", prog.File).Stringer("backend", backend).Msg("running script")

	if backend == Interpreted {
		return e.Interpreter().Eval(prog)
	}
	r, err := e.Runner()
	if err != nil {
		return nil, err
	}
	v, err := r.BuildAndRun(ctx, prog)
	if err != nil {
		return nil, err
	}
	return value.Unwrap(v), nil
}

// RunFile parses and runs the script at path.
func (e *Engine) RunFile(ctx context.Context, path string) (value.Value, error) {
	prog, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, prog)
}

// Interpreter returns an interpreter wired to the engine's streams.
func (e *Engine) Interpreter() *interpreter.Interpreter {
	return interpreter.New(
		interpreter.WithStdout(e.stdout),
		interpreter.WithModules(modules.New(modules.WithArgs(e.args), modules.WithStdout(e.stdout))),
		interpreter.WithResolver(e.resolver),
	)
}

// Runner returns the native runner, creating it on first use.
func (e *Engine) Runner() (*native.Runner, error) {
	if e.runner != nil {
		return e.runner, nil
	}
	r, cache, err := e.runnerFn()
	if err != nil {
		return nil, err
	}
	e.runner, e.cache = r, cache
	return r, nil
}

// Close releases the build cache.
func (e *Engine) Close() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close()
}

// ParseFile reads and parses a script. "-" reads standard input.
func ParseFile(path string) (*ast.Program, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		path = ""
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading script")
	}
	return parser.Parse(path, string(data))
}
