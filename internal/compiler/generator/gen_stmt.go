package generator

import (
	"fmt"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/resolver"
)

// genStatements lowers stmts into the current scope and returns the Go
// expression holding the value of the last one.
func (g *Generator) genStatements(stmts []ast.Statement) (string, error) {
	result := nullExpr
	for i, stmt := range stmts {
		g.emitLineComment(stmt.Position().Line)
		v, err := g.genStatement(stmt)
		if err != nil {
			return "", err
		}
		if i < len(stmts)-1 {
			g.discard(v)
		}
		result = v
	}
	return result, nil
}

func (g *Generator) genStatement(stmt ast.Statement) (string, error) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		return g.genExpr(s.Expr)

	case *ast.LetStmt:
		v, err := g.genExpr(s.Value)
		if err != nil {
			return "", err
		}
		g.emitLine("%s.Define(%s, %s)", g.env, quote(s.Name), v)
		return nullExpr, nil

	case *ast.FuncDecl:
		fn, err := g.genFuncLit(s.Fn)
		if err != nil {
			return "", err
		}
		g.emitLine("%s.Define(%s, %s)", g.env, quote(s.Name), fn)
		return nullExpr, nil

	case *ast.ReturnStmt:
		v := nullExpr
		if s.Value != nil {
			var err error
			if v, err = g.genExpr(s.Value); err != nil {
				return "", err
			}
		}
		g.emitLine("return %s, nil", v)
		return nullExpr, nil

	case *ast.WhileStmt:
		return g.genWhile(s)

	case *ast.ForStmt:
		return g.genFor(s)

	case *ast.ImportStmt:
		mod, ok := g.resolved.Target(s)
		if !ok {
			return "", fmt.Errorf("%s:%d: unresolved import %q", g.file, s.Pos.Line, s.Path)
		}
		t := g.temp()
		g.emitLine("%s, err := %s()", t, g.loaders[mod.Path])
		g.checkErr(s.Pos)
		g.emitLine("%s.Define(%s, %s)", g.env, quote(s.Alias), t)
		return nullExpr, nil

	case *ast.UseStmt:
		t := g.temp()
		g.emitLine("%s, err := goxRegistry.Load(%s)", t, quote(s.Module))
		g.checkErr(s.Pos)
		g.emitLine("%s.Define(%s, %s)", g.env, quote(s.Binding()), t)
		return nullExpr, nil

	case *ast.RequireStmt:
		g.emitLine("// require %s %s", s.Path, s.Version)
		return nullExpr, nil

	case *ast.NativeBlock:
		g.emitLine("// native block")
		return nullExpr, nil
	}
	return "", fmt.Errorf("%s:%d: unsupported statement %T", g.file, stmt.Position().Line, stmt)
}

// genBlock lowers block in a fresh child scope. The block value is
// assigned to result, which the caller has declared.
func (g *Generator) genBlock(block *ast.BlockExpr, result string) error {
	closeScope := g.openScope()
	defer closeScope()
	v, err := g.genStatements(block.Statements)
	if err != nil {
		return err
	}
	g.emitLine("%s = %s", result, v)
	return nil
}

func (g *Generator) genWhile(s *ast.WhileStmt) (string, error) {
	last := g.temp()
	g.emitLine("var %s value.Value = value.Null{}", last)
	g.emitLine("for {")
	g.indent++
	cond, err := g.genExpr(s.Condition)
	if err != nil {
		return "", err
	}
	g.emitLine("if !value.Truthy(%s) {", cond)
	g.emitLine("\tbreak")
	g.emitLine("}")
	if err := g.genBlock(s.Body, last); err != nil {
		return "", err
	}
	g.indent--
	g.emitLine("}")
	return last, nil
}

func (g *Generator) genFor(s *ast.ForStmt) (string, error) {
	iterable, err := g.genExpr(s.Iterable)
	if err != nil {
		return "", err
	}
	items := g.temp()
	g.emitLine("%s, err := value.Iterate(%s)", items, iterable)
	g.checkErr(s.Iterable.Position())

	last, item := g.temp(), g.temp()
	g.emitLine("var %s value.Value = value.Null{}", last)
	g.emitLine("for _, %s := range %s {", item, items)
	g.indent++
	closeScope := g.openScope()
	g.emitLine("%s.Define(%s, %s)", g.env, quote(s.Var), item)
	v, err := g.genStatements(s.Body.Statements)
	if err != nil {
		return "", err
	}
	g.emitLine("%s = %s", last, v)
	closeScope()
	g.indent--
	g.emitLine("}")
	return last, nil
}

// genModule lowers an imported file into a body function and a loader
// that evaluates it once and caches its exported globals.
func (g *Generator) genModule(mod *resolver.Module) (string, error) {
	loader := g.loaders[mod.Path]
	body, err := g.genProgram(loader+"Body", mod.Program)
	if err != nil {
		return "", err
	}

	g.buf.Reset()
	g.indent = 0
	g.emitLine("// %s evaluates %s.", loader, quote(mod.Path))
	g.emitLine("var %sCache *value.Map", loader)
	g.emit("\n")
	g.emitLine("func %s() (*value.Map, error) {", loader)
	g.emitLine("\tif %sCache != nil {", loader)
	g.emitLine("\t\treturn %sCache, nil", loader)
	g.emitLine("\t}")
	g.emitLine("\tenv := goxGlobals()")
	g.emitLine("\tif _, err := %sBody(env); err != nil {", loader)
	g.emitLine("\t\treturn nil, err")
	g.emitLine("\t}")
	g.emitLine("\t%sCache = env.Export()", loader)
	g.emitLine("\treturn %sCache, nil", loader)
	g.emitLine("}")
	return body + "\n" + g.buf.String(), nil
}
