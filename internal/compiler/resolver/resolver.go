package resolver

import (
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/parser"
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Module is an imported .gox file.
type Module struct {
	Path    string       // absolute path, also the cache key
	Program *ast.Program // parsed file
}

// Resolved is a program with every `import "x.gox"` resolved.
type Resolved struct {
	Main *ast.Program
	Path string
	// Modules lists every imported file once, dependencies first.
	Modules []*Module
	targets map[*ast.ImportStmt]*Module
}

// Target returns the module an import statement refers to.
func (r *Resolved) Target(stmt *ast.ImportStmt) (*Module, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.targets[stmt]
	return m, ok
}

// Programs returns the main program followed by every imported one.
func (r *Resolved) Programs() []*ast.Program {
	progs := []*ast.Program{r.Main}
	for _, m := range r.Modules {
		progs = append(progs, m.Program)
	}
	return progs
}

// Resolver handles recursive import resolution for .gox files
type Resolver struct {
	fs      billy.Filesystem
	parsed  map[string]*Module // cache: absolute path → parsed module
	loading map[string]bool    // circular import detection
	stack   []string
}

type Option func(*Resolver)

// WithFilesystem reads imported files from fsys instead of the OS.
func WithFilesystem(fsys billy.Filesystem) Option {
	return func(r *Resolver) { r.fs = fsys }
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		parsed:  make(map[string]*Module),
		loading: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = osfs.New("/")
	}
	return r
}

// Resolve loads every file imported by main, directly or transitively.
// Relative imports are resolved against the directory of the importing
// file; mainPath may be empty for scripts read from stdin, in which case
// the working directory is used.
func (r *Resolver) Resolve(main *ast.Program, mainPath string) (*Resolved, error) {
	res := &Resolved{
		Main:    main,
		Path:    mainPath,
		targets: make(map[*ast.ImportStmt]*Module),
	}
	dir := "."
	if mainPath != "" {
		abs, err := filepath.Abs(mainPath)
		if err == nil {
			mainPath = abs
			r.loading[abs] = true
			r.stack = append(r.stack, abs)
			defer func() {
				delete(r.loading, abs)
				r.stack = r.stack[:len(r.stack)-1]
			}()
		}
		dir = filepath.Dir(mainPath)
	}
	seen := make(map[string]bool)
	if err := r.resolveImports(main, dir, res, seen); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Resolver) resolveImports(prog *ast.Program, dir string, res *Resolved, seen map[string]bool) error {
	for _, imp := range Imports(prog) {
		mod, err := r.resolveImport(prog.File, imp, dir, res, seen)
		if err != nil {
			return err
		}
		res.targets[imp] = mod
	}
	return nil
}

// resolveImport handles a single .gox import (recursive)
func (r *Resolver) resolveImport(file string, imp *ast.ImportStmt, dir string, res *Resolved, seen map[string]bool) (*Module, error) {
	absPath, err := r.resolvePath(imp.Path, dir)
	if err != nil {
		return nil, importError(file, imp, err.Error())
	}

	// Check for circular imports BEFORE loading
	if r.loading[absPath] {
		chain := append(append([]string{}, r.stack...), absPath)
		for i := range chain {
			chain[i] = filepath.Base(chain[i])
		}
		return nil, importError(file, imp, "circular import: "+strings.Join(chain, " -> "))
	}

	r.loading[absPath] = true
	r.stack = append(r.stack, absPath)
	defer func() {
		delete(r.loading, absPath)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	mod, err := r.loadFile(file, imp, absPath)
	if err != nil {
		return nil, err
	}
	if err := r.resolveImports(mod.Program, filepath.Dir(absPath), res, seen); err != nil {
		return nil, err
	}
	if !seen[absPath] {
		seen[absPath] = true
		res.Modules = append(res.Modules, mod)
	}
	return mod, nil
}

// resolvePath converts an import path to an absolute file system path
func (r *Resolver) resolvePath(importPath, dir string) (string, error) {
	if !strings.HasSuffix(importPath, ".gox") {
		return "", &pathError{"not a .gox file: " + importPath}
	}
	p := importPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", &pathError{"cannot resolve " + importPath + ": " + err.Error()}
	}
	return abs, nil
}

type pathError struct{ msg string }

func (e *pathError) Error() string { return e.msg }

// loadFile reads and parses a .gox file (with caching)
func (r *Resolver) loadFile(file string, imp *ast.ImportStmt, absPath string) (*Module, error) {
	if cached, ok := r.parsed[absPath]; ok {
		return cached, nil
	}
	data, err := util.ReadFile(r.fs, absPath)
	if err != nil {
		return nil, importError(file, imp, "cannot read "+imp.Path+": "+err.Error())
	}
	prog, err := parser.Parse(absPath, string(data))
	if err != nil {
		return nil, err
	}
	mod := &Module{Path: absPath, Program: prog}
	r.parsed[absPath] = mod
	return mod, nil
}

func importError(file string, imp *ast.ImportStmt, msg string) error {
	err := gerrors.Runtime(gerrors.ImportError, "%s", msg)
	err.Pos = gerrors.Position{File: file, Line: imp.Pos.Line, Column: imp.Pos.Column}
	return err
}

// Imports lists the import statements of prog at any depth.
func Imports(prog *ast.Program) []*ast.ImportStmt {
	var out []*ast.ImportStmt
	ast.Inspect(prog, func(n ast.Node) bool {
		if imp, ok := n.(*ast.ImportStmt); ok {
			out = append(out, imp)
		}
		return true
	})
	return out
}
