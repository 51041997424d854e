package native

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/resolver"
	"github.com/btouchard/gox/pkg/bridge"
	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

const resultsDir = "results"

// Runner builds scripts into cached native programs and runs them.
type Runner struct {
	fs        billy.Filesystem // cache root; workspaces live at <key>/
	toolchain Toolchain
	cache     *Cache
	runtime   Runtime
	stdio     Stdio
	args      []string
	log       zerolog.Logger
	resolver  *resolver.Resolver
}

type Option func(*Runner)

// WithFilesystem sets the cache root. Its Root() must be an OS path the
// toolchain can reach.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(r *Runner) { r.fs = fsys }
}

func WithToolchain(t Toolchain) Option {
	return func(r *Runner) { r.toolchain = t }
}

// WithCache enables the artifact index. Without it every run rebuilds.
func WithCache(c *Cache) Option {
	return func(r *Runner) { r.cache = c }
}

func WithRuntime(rt Runtime) Option {
	return func(r *Runner) { r.runtime = rt }
}

func WithStdio(s Stdio) Option {
	return func(r *Runner) { r.stdio = s }
}

// WithArgs sets the arguments passed to the built program.
func WithArgs(args []string) Option {
	return func(r *Runner) { r.args = args }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func WithResolver(res *resolver.Resolver) Option {
	return func(r *Runner) { r.resolver = res }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		toolchain: &GoToolchain{},
		stdio:     Stdio{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr},
		log:       log.Logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = osfs.New(filepath.Join(os.TempDir(), "gox-cache"))
	}
	if r.resolver == nil {
		r.resolver = resolver.New()
	}
	return r
}

// Prepare resolves prog's imports and assembles its compilation unit.
func (r *Runner) Prepare(prog *ast.Program) (*CompilationUnit, error) {
	res, err := r.resolver.Resolve(prog, prog.File)
	if err != nil {
		return nil, err
	}
	return NewUnit(res, r.runtime.String())
}

// Build makes sure the unit's program is built and returns the path of
// the executable inside the cache filesystem.
func (r *Runner) Build(ctx context.Context, unit *CompilationUnit) (string, error) {
	key := unit.Key()
	binary := path.Join(key, binaryName())
	logger := r.log.With().Str("key", key).Logger()

	if r.cache != nil {
		a, ok, err := r.cache.Lookup(key)
		if err != nil {
			logger.Warn().Err(err).Msg("build cache unavailable")
		} else if ok {
			if err := r.cache.Touch(a); err != nil {
				logger.Warn().Err(err).Msg("could not update build cache")
			}
			logger.Debug().Int("hits", a.Hits).Msg("cache hit")
			return a.Binary, nil
		}
	}

	start := time.Now()
	if err := Materialize(r.fs, key, unit, r.runtime); err != nil {
		return "", err
	}
	dir := r.osPath(key)
	logger.Debug().Str("dir", dir).Int("blocks", len(unit.Blocks)).Int("requires", len(unit.Requires)).Msg("workspace ready")

	if err := r.toolchain.Tidy(ctx, dir); err != nil {
		return "", r.annotate(unit, err)
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("go mod tidy done")

	if err := r.toolchain.Build(ctx, dir, r.osPath(binary)); err != nil {
		return "", r.annotate(unit, err)
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("go build done")

	if r.cache != nil {
		a := &Artifact{Key: key, Script: unit.Script, Binary: binary}
		if err := r.cache.Store(a); err != nil {
			logger.Warn().Err(err).Msg("could not record artifact")
		}
	}
	return binary, nil
}

// BuildAndRun builds prog if needed, runs it and returns its terminal
// value as a *value.Compiled.
func (r *Runner) BuildAndRun(ctx context.Context, prog *ast.Program) (value.Value, error) {
	unit, err := r.Prepare(prog)
	if err != nil {
		return nil, err
	}
	binary, err := r.Build(ctx, unit)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, binary)
}

// Run executes a built program and decodes the value it reported.
func (r *Runner) Run(ctx context.Context, binary string) (value.Value, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "generating run id")
	}
	if err := r.fs.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating results directory")
	}
	result := path.Join(resultsDir, id.String()+".json")
	defer func() { _ = r.fs.Remove(result) }()

	start := time.Now()
	env := []string{bridge.ResultEnv + "=" + r.osPath(result)}
	if err := r.toolchain.Exec(ctx, r.osPath(binary), r.args, env, r.stdio); err != nil {
		return nil, errors.Wrapf(err, "running %s", binary)
	}
	r.log.Debug().Str("run", id.String()).Dur("elapsed", time.Since(start)).Msg("program finished")

	data, err := util.ReadFile(r.fs, result)
	if err != nil {
		return nil, gerrors.Runtime(gerrors.Generic, "program exited without reporting a result")
	}
	return bridge.Read(data)
}

// BuildBinary builds prog and copies the executable to output, an OS
// path.
func (r *Runner) BuildBinary(ctx context.Context, prog *ast.Program, output string) error {
	unit, err := r.Prepare(prog)
	if err != nil {
		return err
	}
	binary, err := r.Build(ctx, unit)
	if err != nil {
		return err
	}
	data, err := util.ReadFile(r.fs, binary)
	if err != nil {
		return errors.Wrap(err, "reading built program")
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}
	}
	return errors.Wrapf(os.WriteFile(output, data, 0o755), "writing %s", output)
}

func (r *Runner) osPath(p string) string {
	return filepath.Join(r.fs.Root(), filepath.FromSlash(p))
}

var mainLine = regexp.MustCompile(`main\.go:(\d+)`)

// annotate points a toolchain failure in the generated program back at
// the script line it came from.
func (r *Runner) annotate(unit *CompilationUnit, err error) error {
	be, ok := err.(*gerrors.BuildError)
	if !ok {
		return err
	}
	m := mainLine.FindStringSubmatch(be.Diagnostics)
	if m == nil {
		return be
	}
	n, _ := strconv.Atoi(m[1])
	if entry, ok := unit.Program.SourceMap.Lookup(n); ok {
		be.Message += " (generated from " + entry.GoxFile + ":" + strconv.Itoa(entry.GoxLine) + ")"
	}
	return be
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "program.exe"
	}
	return "program"
}
