// Package native builds and runs scripts that embed Go code or depend on
// external Go modules.
package native

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	goast "go/ast"
	goparser "go/parser"
	gotoken "go/token"
	"sort"
	"strings"

	"github.com/blang/semver"
	"golang.org/x/mod/module"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/generator"
	"github.com/btouchard/gox/internal/compiler/resolver"
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Require is an external Go module dependency declared by `require`.
type Require struct {
	Path    string
	Version string // canonical, with a leading "v"
	Alias   string
}

func (r Require) String() string { return r.Path + "@" + r.Version }

// Block is a native block and the functions it declares.
type Block struct {
	File  string
	Line  int
	Code  string
	Funcs []Func
}

// Func is a top-level function of a native block. Entry is nil when its
// signature cannot cross the bridge; Reason says why.
type Func struct {
	Name   string
	Entry  *generator.Entry
	Reason string
}

// CompilationUnit is everything the native build needs for one script.
type CompilationUnit struct {
	Script   string // path of the main script, empty for stdin
	Blocks   []*Block
	Requires []Require
	Entries  []generator.Entry // functions the script actually calls
	Program  *generator.Result
	Hash     string
}

// Key names the unit's workspace and cache record.
func (u *CompilationUnit) Key() string { return "jit_" + u.Hash }

// RequiresNative reports whether prog contains a native block or a
// require statement.
func RequiresNative(prog *ast.Program) bool {
	found := false
	ast.Inspect(prog, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.NativeBlock, *ast.RequireStmt:
			found = true
		}
		return !found
	})
	return found
}

// RequiresNativeResolved is RequiresNative over a program and every file
// it imports.
func RequiresNativeResolved(res *resolver.Resolved) bool {
	for _, prog := range res.Programs() {
		if RequiresNative(prog) {
			return true
		}
	}
	return false
}

// NewUnit assembles the compilation unit of a resolved program. runtime
// identifies the runtime the artifact links against and is part of the
// content hash.
func NewUnit(res *resolver.Resolved, runtime string) (*CompilationUnit, error) {
	unit := &CompilationUnit{Script: res.Path}
	called := make(map[string]bool)
	seenReq := make(map[string]Require)

	for _, prog := range res.Programs() {
		for name := range generator.CalledNames(prog) {
			called[name] = true
		}
		for _, stmt := range generator.Requires(prog) {
			req, err := parseRequire(prog.File, stmt)
			if err != nil {
				return nil, err
			}
			if prev, ok := seenReq[req.Path]; ok && prev.Version != req.Version {
				return nil, gerrors.Build("require", "%s required at both %s and %s", req.Path, prev.Version, req.Version)
			}
			if _, ok := seenReq[req.Path]; !ok {
				seenReq[req.Path] = req
				unit.Requires = append(unit.Requires, req)
			}
		}
		for _, nb := range generator.NativeBlocks(prog) {
			block, err := parseBlock(prog.File, nb)
			if err != nil {
				return nil, err
			}
			unit.Blocks = append(unit.Blocks, block)
		}
	}

	entries, err := referencedEntries(unit.Blocks, called)
	if err != nil {
		return nil, err
	}
	unit.Entries = entries

	gen, err := generator.New(generator.WithEntries(entries...)).GenerateResolved(res)
	if err != nil {
		return nil, gerrors.Build("transpile", "%v", err)
	}
	unit.Program = gen
	unit.Hash = unit.hash(runtime)
	return unit, nil
}

func parseRequire(file string, stmt *ast.RequireStmt) (Require, error) {
	where := gerrors.Position{File: file, Line: stmt.Pos.Line, Column: stmt.Pos.Column}
	if err := module.CheckPath(stmt.Path); err != nil {
		return Require{}, gerrors.Build("require", "%s: invalid module path: %v", where, err)
	}
	v, err := semver.ParseTolerant(stmt.Version)
	if err != nil {
		return Require{}, gerrors.Build("require", "%s: invalid version %q for %s: %v", where, stmt.Version, stmt.Path, err)
	}
	return Require{Path: stmt.Path, Version: "v" + v.String(), Alias: stmt.Alias}, nil
}

// parseBlock parses a native block as the body of a Go file and lists its
// top-level functions.
func parseBlock(file string, nb *ast.NativeBlock) (*Block, error) {
	block := &Block{File: file, Line: nb.Pos.Line, Code: nb.Code}

	fset := gotoken.NewFileSet()
	f, err := goparser.ParseFile(fset, "native.go", "package main\n"+nb.Code, goparser.SkipObjectResolution)
	if err != nil {
		return nil, &gerrors.BuildError{
			Stage:       "parse",
			Message:     fmt.Sprintf("native block at %s:%d does not parse", file, nb.Pos.Line),
			Diagnostics: err.Error(),
		}
	}

	for _, decl := range f.Decls {
		fn, ok := decl.(*goast.FuncDecl)
		if !ok || fn.Recv != nil || fn.Type.TypeParams != nil {
			continue
		}
		entry, reason := classify(fn)
		block.Funcs = append(block.Funcs, Func{Name: fn.Name.Name, Entry: entry, Reason: reason})
	}
	return block, nil
}

// classify checks a function against the bridge contract: parameters of
// bridgeable scalar types and a result of T, (T, error), error or nothing.
func classify(fn *goast.FuncDecl) (*generator.Entry, string) {
	entry := &generator.Entry{Name: fn.Name.Name}

	for _, field := range fn.Type.Params.List {
		typ := typeName(field.Type)
		if !generator.BridgeableParam(typ) {
			return nil, fmt.Sprintf("parameter type %s is not supported", typeString(field.Type))
		}
		n := len(field.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			entry.Params = append(entry.Params, typ)
		}
	}

	var results []string
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				results = append(results, typeName(field.Type))
			}
		}
	}

	switch {
	case len(results) == 0:
	case len(results) == 1 && results[0] == "error":
		entry.Error = true
	case len(results) == 1 && generator.BridgeableParam(results[0]):
		entry.Result = results[0]
	case len(results) == 2 && generator.BridgeableParam(results[0]) && results[1] == "error":
		entry.Result = results[0]
		entry.Error = true
	default:
		return nil, fmt.Sprintf("result (%s) is not supported", strings.Join(results, ", "))
	}
	return entry, ""
}

func typeName(expr goast.Expr) string {
	if id, ok := expr.(*goast.Ident); ok {
		return id.Name
	}
	return ""
}

func typeString(expr goast.Expr) string {
	switch t := expr.(type) {
	case *goast.Ident:
		return t.Name
	case *goast.StarExpr:
		return "*" + typeString(t.X)
	case *goast.ArrayType:
		return "[]" + typeString(t.Elt)
	case *goast.SelectorExpr:
		return typeString(t.X) + "." + t.Sel.Name
	case *goast.MapType:
		return "map[" + typeString(t.Key) + "]" + typeString(t.Value)
	}
	return fmt.Sprintf("%T", expr)
}

// referencedEntries returns the native functions the script calls, in
// name order. Calling a function whose signature cannot be bridged is a
// build error.
func referencedEntries(blocks []*Block, called map[string]bool) ([]generator.Entry, error) {
	var entries []generator.Entry
	seen := make(map[string]bool)
	for _, block := range blocks {
		for _, fn := range block.Funcs {
			if !called[fn.Name] || seen[fn.Name] {
				continue
			}
			seen[fn.Name] = true
			if fn.Entry == nil {
				return nil, gerrors.Build("bridge", "native function %s (%s:%d) cannot be called from script: %s", fn.Name, block.File, block.Line, fn.Reason)
			}
			entries = append(entries, *fn.Entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (u *CompilationUnit) hash(runtime string) string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write("runtime", runtime)
	write("main.go", u.Program.GoCode)
	for _, f := range u.Program.Natives {
		write(f.Name, f.Code)
	}
	for _, r := range u.Requires {
		write("require", r.String())
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
