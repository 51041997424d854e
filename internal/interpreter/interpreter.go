// Package interpreter evaluates Gox programs by walking the AST.
package interpreter

import (
	"io"
	"os"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/resolver"
	"github.com/btouchard/gox/internal/compiler/token"
	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/modules"
	"github.com/btouchard/gox/pkg/value"
)

// maxDepth bounds nested user function calls.
const maxDepth = 10000

type Interpreter struct {
	out      io.Writer
	modules  *modules.Registry
	resolver *resolver.Resolver
	resolved *resolver.Resolved
	globals  *value.Env
	imported map[string]*value.Map
	file     string
	depth    int
}

type Option func(*Interpreter)

// WithStdout redirects print.
func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithModules sets the registry `use` statements load from.
func WithModules(r *modules.Registry) Option {
	return func(in *Interpreter) { in.modules = r }
}

func WithResolver(r *resolver.Resolver) Option {
	return func(in *Interpreter) { in.resolver = r }
}

// WithResolved supplies imports that were already resolved.
func WithResolved(res *resolver.Resolved) Option {
	return func(in *Interpreter) { in.resolved = res }
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		out:      os.Stdout,
		imported: make(map[string]*value.Map),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.modules == nil {
		in.modules = modules.New(modules.WithStdout(in.out))
	}
	if in.resolver == nil {
		in.resolver = resolver.New()
	}
	in.globals = in.newGlobals()
	return in
}

func (in *Interpreter) newGlobals() *value.Env {
	env := value.NewEnv(nil)
	value.Install(env, in.out)
	return env
}

// Globals is the top-level scope Eval runs in. It persists across calls,
// which is what the REPL relies on.
func (in *Interpreter) Globals() *value.Env { return in.globals }

// Eval runs prog in the interpreter's global scope.
func (in *Interpreter) Eval(prog *ast.Program) (value.Value, error) {
	return in.EvalIn(prog, in.globals)
}

// EvalIn runs prog in env and returns the value of its last statement,
// or the value of a top-level return.
func (in *Interpreter) EvalIn(prog *ast.Program, env *value.Env) (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, gerrors.Runtime(gerrors.Generic, "internal error: %v", r)
		}
	}()
	if in.needsResolve(prog) {
		res, err := in.resolver.Resolve(prog, prog.File)
		if err != nil {
			return nil, err
		}
		in.resolved = res
	}

	prev := in.file
	in.file = prog.File
	defer func() { in.file = prev }()

	result, err = in.evalStatements(prog.Statements, env)
	if ret, ok := err.(*value.ReturnSignal); ok {
		return orNull(ret.Value), nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (in *Interpreter) needsResolve(prog *ast.Program) bool {
	for _, imp := range resolver.Imports(prog) {
		if _, ok := in.resolved.Target(imp); !ok {
			return true
		}
	}
	return false
}

func (in *Interpreter) pos(p token.Position) gerrors.Position {
	return gerrors.Position{File: in.file, Line: p.Line, Column: p.Column}
}

// at attaches the position of node to a runtime error raised below it.
func (in *Interpreter) at(err error, node ast.Node) error {
	return gerrors.WithPos(err, in.pos(node.Position()))
}

// importModule evaluates an imported file once and returns its globals.
func (in *Interpreter) importModule(stmt *ast.ImportStmt) (*value.Map, error) {
	mod, ok := in.resolved.Target(stmt)
	if !ok {
		return nil, gerrors.Runtime(gerrors.ImportError, "unresolved import %q", stmt.Path)
	}
	if m, ok := in.imported[mod.Path]; ok {
		return m, nil
	}
	env := in.newGlobals()
	if _, err := in.EvalIn(mod.Program, env); err != nil {
		return nil, err
	}
	m := env.Export()
	in.imported[mod.Path] = m
	return m, nil
}

func orNull(v value.Value) value.Value {
	if v == nil {
		return value.Null{}
	}
	return v
}

// Run evaluates prog in a fresh interpreter printing to out.
func Run(prog *ast.Program, out io.Writer) (value.Value, error) {
	return New(WithStdout(out)).Eval(prog)
}
