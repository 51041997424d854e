// Package generator transpiles Gox programs to a Go main package that runs
// on the same value runtime as the interpreter.
package generator

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/resolver"
	"github.com/btouchard/gox/internal/compiler/utils"
)

// RuntimeModule is the import path prefix of the runtime packages the
// generated program links against.
const RuntimeModule = "github.com/btouchard/gox"

// Entry is a function declared in a native block that script code calls
// by name. Params and Result are Go type names.
type Entry struct {
	Name   string
	Params []string
	Result string // empty when the function returns only an error or nothing
	Error  bool   // last result is an error
}

// NativeFile is a native block written out as its own Go file.
type NativeFile struct {
	Name string
	Code string
}

// Result holds the output of transpilation
type Result struct {
	GoCode    string
	Natives   []NativeFile
	SourceMap *SourceMap
}

type Generator struct {
	entries []Entry

	buf    strings.Builder
	indent int
	temps  int
	envs   int
	env    string // Go variable holding the current scope
	file   string // script file being lowered, for error positions

	resolved *resolver.Resolved
	loaders  map[string]string // module path → loader function
}

type Option func(*Generator)

// WithEntries declares the native entry points script code may call.
func WithEntries(entries ...Entry) Option {
	return func(g *Generator) { g.entries = append(g.entries, entries...) }
}

func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate transpiles a single program. Imports are resolved relative to
// prog.File.
func (g *Generator) Generate(prog *ast.Program) (*Result, error) {
	res := &resolver.Resolved{Main: prog, Path: prog.File}
	if len(resolver.Imports(prog)) > 0 {
		var err error
		if res, err = resolver.New().Resolve(prog, prog.File); err != nil {
			return nil, err
		}
	}
	return g.GenerateResolved(res)
}

// GenerateResolved transpiles a program whose imports are resolved. Every
// imported file becomes a loader function evaluated at most once.
func (g *Generator) GenerateResolved(res *resolver.Resolved) (*Result, error) {
	g.reset(res)

	var b strings.Builder

	b.WriteString("// Code generated by gox. DO NOT EDIT.\n\n")
	b.WriteString("package main\n\n")
	b.WriteString(g.genImports())
	b.WriteString("\n")

	b.WriteString(g.genHelpers())
	b.WriteString("\n")

	b.WriteString("// ========== Native Entries ==========\n\n")
	b.WriteString(g.genGlue())
	b.WriteString("\n")

	if len(res.Modules) > 0 {
		b.WriteString("// ========== Imported Modules ==========\n\n")
		for _, mod := range res.Modules {
			code, err := g.genModule(mod)
			if err != nil {
				return nil, err
			}
			b.WriteString(code)
			b.WriteString("\n")
		}
	}

	b.WriteString("// ========== Program ==========\n\n")
	code, err := g.genProgram("goxProgram", res.Main)
	if err != nil {
		return nil, err
	}
	b.WriteString(code)
	b.WriteString("\n")

	b.WriteString("// ========== Main ==========\n\n")
	b.WriteString(g.genMain())

	result := &Result{Natives: g.natives(res)}

	// Format the generated code
	formatted, err := format.Source([]byte(b.String()))
	if err != nil {
		// If formatting fails, return the unformatted code with error for debugging
		result.GoCode = b.String()
		result.SourceMap = BuildSourceMap(result.GoCode)
		return result, fmt.Errorf("format error: %w", err)
	}
	result.GoCode = string(formatted)
	result.SourceMap = BuildSourceMap(result.GoCode)
	return result, nil
}

func (g *Generator) reset(res *resolver.Resolved) {
	g.resolved = res
	g.loaders = make(map[string]string)
	used := make(map[string]bool)
	for _, mod := range res.Modules {
		name := utils.GoIdent("goxModule", mod.Path)
		for base, i := name, 2; used[name]; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		used[name] = true
		g.loaders[mod.Path] = name
	}
	g.temps, g.envs = 0, 0
}

// natives collects every native block of the main program and its
// imports in source order.
func (g *Generator) natives(res *resolver.Resolved) []NativeFile {
	var files []NativeFile
	for _, prog := range res.Programs() {
		for _, block := range NativeBlocks(prog) {
			files = append(files, NativeFile{
				Name: fmt.Sprintf("native_%d.go", len(files)),
				Code: "package main\n\n" + block.Code,
			})
		}
	}
	return files
}

// genProgram lowers the top-level statements of prog into a function of
// the given name running in the scope it receives.
func (g *Generator) genProgram(name string, prog *ast.Program) (string, error) {
	g.buf.Reset()
	g.indent = 0
	g.file = prog.File
	g.env = "env"

	g.emitLine("func %s(env *value.Env) (value.Value, error) {", name)
	g.indent++
	v, err := g.genStatements(prog.Statements)
	if err != nil {
		return "", err
	}
	g.emitLine("return %s, nil", v)
	g.indent--
	g.emitLine("}")
	return g.buf.String(), nil
}
