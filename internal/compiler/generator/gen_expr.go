package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btouchard/gox/internal/compiler/ast"
)

// genExpr emits the statements computing e and returns a Go expression of
// type value.Value holding its result. Returned expressions are either
// temporaries or side-effect free, so callers may use them in any order.
func (g *Generator) genExpr(expr ast.Expression) (string, error) {
	switch expr.(type) {
	case *ast.UnaryExpr, *ast.BinaryExpr:
		if literalKind(expr) != notNumeric {
			x, k := nativeExpr(expr)
			return wrapNative(x, k), nil
		}
	}

	switch e := expr.(type) {
	case *ast.IntLit:
		return "value.Int(" + strconv.FormatInt(e.Value, 10) + ")", nil
	case *ast.FloatLit:
		return "value.Float(" + strconv.FormatFloat(e.Value, 'g', -1, 64) + ")", nil
	case *ast.StringLit:
		return "value.String(" + quote(e.Value) + ")", nil
	case *ast.BoolLit:
		return "value.Bool(" + strconv.FormatBool(e.Value) + ")", nil
	case *ast.NullLit:
		return nullExpr, nil

	case *ast.Ident:
		t := g.temp()
		g.emitLine("%s, err := %s.Lookup(%s)", t, g.env, quote(e.Name))
		g.checkErr(e.Pos)
		return t, nil

	case *ast.TemplateLit:
		return g.genTemplate(e)

	case *ast.UnaryExpr:
		v, err := g.genExpr(e.Operand)
		if err != nil {
			return "", err
		}
		t := g.temp()
		g.emitLine("%s, err := value.Unary(%s, %s)", t, quote(e.Op), v)
		g.checkErr(e.Pos)
		return t, nil

	case *ast.BinaryExpr:
		return g.genBinary(e)

	case *ast.AssignExpr:
		return g.genAssign(e)

	case *ast.CallExpr:
		fn, err := g.genExpr(e.Function)
		if err != nil {
			return "", err
		}
		args, err := g.genArgs(e.Args)
		if err != nil {
			return "", err
		}
		t := g.temp()
		g.emitLine("%s, err := value.Invoke(%s, %s, %s)", t, quote(ast.CalleeName(e.Function)), fn, args)
		g.checkErr(e.Pos)
		return t, nil

	case *ast.MethodCallExpr:
		recv, err := g.genExpr(e.Object)
		if err != nil {
			return "", err
		}
		args, err := g.genArgs(e.Args)
		if err != nil {
			return "", err
		}
		t := g.temp()
		g.emitLine("%s, err := value.CallMethod(%s, %s, %s)", t, recv, quote(e.Method), args)
		g.checkErr(e.Pos)
		return t, nil

	case *ast.MemberExpr:
		obj, err := g.genExpr(e.Object)
		if err != nil {
			return "", err
		}
		t := g.temp()
		g.emitLine("%s, err := value.Member(%s, %s)", t, obj, quote(e.Property))
		g.checkErr(e.Pos)
		return t, nil

	case *ast.IndexExpr:
		container, err := g.genExpr(e.Left)
		if err != nil {
			return "", err
		}
		idx, err := g.genExpr(e.Index)
		if err != nil {
			return "", err
		}
		t := g.temp()
		g.emitLine("%s, err := value.Index(%s, %s)", t, container, idx)
		g.checkErr(e.Pos)
		return t, nil

	case *ast.ArrayLit:
		elems, err := g.genValues(e.Elements)
		if err != nil {
			return "", err
		}
		t := g.temp()
		g.emitLine("%s := value.NewArray(%s)", t, strings.Join(elems, ", "))
		return t, nil

	case *ast.MapLit:
		t := g.temp()
		g.emitLine("%s := value.NewMap()", t)
		for i, k := range e.Keys {
			v, err := g.genExpr(e.Values[i])
			if err != nil {
				return "", err
			}
			g.emitLine("%s.Set(%s, %s)", t, quote(k), v)
		}
		return t, nil

	case *ast.IfExpr:
		return g.genIf(e)

	case *ast.BlockExpr:
		t := g.temp()
		g.emitLine("var %s value.Value", t)
		g.emitLine("{")
		g.indent++
		if err := g.genBlock(e, t); err != nil {
			return "", err
		}
		g.indent--
		g.emitLine("}")
		return t, nil

	case *ast.FuncLit:
		return g.genFuncLit(e)
	}
	return "", fmt.Errorf("%s:%d: unsupported expression %T", g.file, expr.Position().Line, expr)
}

// genValues lowers exprs left to right.
func (g *Generator) genValues(exprs []ast.Expression) ([]string, error) {
	out := make([]string, 0, len(exprs))
	for _, x := range exprs {
		v, err := g.genExpr(x)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// genArgs lowers call arguments to a []value.Value literal.
func (g *Generator) genArgs(exprs []ast.Expression) (string, error) {
	vals, err := g.genValues(exprs)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "nil", nil
	}
	return "[]value.Value{" + strings.Join(vals, ", ") + "}", nil
}

func (g *Generator) genBinary(e *ast.BinaryExpr) (string, error) {
	left, err := g.genExpr(e.Left)
	if err != nil {
		return "", err
	}

	if e.Op == "&&" || e.Op == "||" {
		t := g.temp()
		g.emitLine("var %s value.Value", t)
		if e.Op == "&&" {
			g.emitLine("if !value.Truthy(%s) {", left)
			g.emitLine("\t%s = value.Bool(false)", t)
		} else {
			g.emitLine("if value.Truthy(%s) {", left)
			g.emitLine("\t%s = value.Bool(true)", t)
		}
		g.emitLine("} else {")
		g.indent++
		right, err := g.genExpr(e.Right)
		if err != nil {
			return "", err
		}
		g.emitLine("%s = value.Bool(value.Truthy(%s))", t, right)
		g.indent--
		g.emitLine("}")
		return t, nil
	}

	right, err := g.genExpr(e.Right)
	if err != nil {
		return "", err
	}
	t := g.temp()
	g.emitLine("%s, err := value.Binary(%s, %s, %s)", t, quote(e.Op), left, right)
	g.checkErr(e.Pos)
	return t, nil
}

func (g *Generator) genAssign(e *ast.AssignExpr) (string, error) {
	switch target := e.Target.(type) {
	case *ast.Ident:
		v, err := g.genExpr(e.Value)
		if err != nil {
			return "", err
		}
		g.emitLine("%s.Set(%s, %s)", g.env, quote(target.Name), v)
		return v, nil

	case *ast.IndexExpr:
		container, err := g.genExpr(target.Left)
		if err != nil {
			return "", err
		}
		idx, err := g.genExpr(target.Index)
		if err != nil {
			return "", err
		}
		v, err := g.genExpr(e.Value)
		if err != nil {
			return "", err
		}
		g.emitLine("if err := value.SetIndex(%s, %s, %s); err != nil {", container, idx, v)
		g.emitLine("\treturn nil, %s", g.at("err", target.Pos))
		g.emitLine("}")
		return v, nil

	case *ast.MemberExpr:
		obj, err := g.genExpr(target.Object)
		if err != nil {
			return "", err
		}
		v, err := g.genExpr(e.Value)
		if err != nil {
			return "", err
		}
		g.emitLine("if err := value.SetMember(%s, %s, %s); err != nil {", obj, quote(target.Property), v)
		g.emitLine("\treturn nil, %s", g.at("err", target.Pos))
		g.emitLine("}")
		return v, nil
	}
	return "", fmt.Errorf("%s:%d: invalid assignment target", g.file, e.Pos.Line)
}

func (g *Generator) genIf(e *ast.IfExpr) (string, error) {
	cond, err := g.genExpr(e.Condition)
	if err != nil {
		return "", err
	}
	t := g.temp()
	g.emitLine("var %s value.Value = value.Null{}", t)
	g.emitLine("if value.Truthy(%s) {", cond)
	g.indent++
	if err := g.genBlock(e.Then, t); err != nil {
		return "", err
	}
	g.indent--

	switch alt := e.Else.(type) {
	case nil:
		g.emitLine("}")
	case *ast.BlockExpr:
		g.emitLine("} else {")
		g.indent++
		if err := g.genBlock(alt, t); err != nil {
			return "", err
		}
		g.indent--
		g.emitLine("}")
	default:
		g.emitLine("} else {")
		g.indent++
		v, err := g.genExpr(alt)
		if err != nil {
			return "", err
		}
		g.emitLine("%s = %s", t, v)
		g.indent--
		g.emitLine("}")
	}
	return t, nil
}

// genFuncLit lowers a function literal to a value.Function closing over
// the current scope. The body runs in the call scope value.Call creates.
func (g *Generator) genFuncLit(fn *ast.FuncLit) (string, error) {
	t := g.temp()
	params := "nil"
	if len(fn.Params) > 0 {
		quoted := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			quoted[i] = quote(p)
		}
		params = "[]string{" + strings.Join(quoted, ", ") + "}"
	}

	g.envs++
	scope := "env" + strconv.Itoa(g.envs)
	g.emitLine("%s := &value.Function{", t)
	g.indent++
	g.emitLine("Name:    %s,", quote(fn.Name))
	g.emitLine("Params:  %s,", params)
	g.emitLine("Closure: %s,", g.env)
	g.emitLine("Body: func(%s *value.Env) (value.Value, error) {", scope)
	g.indent++

	prev := g.env
	g.env = scope
	g.emitLine("if err := goxEnter(); err != nil {")
	g.emitLine("\treturn nil, err")
	g.emitLine("}")
	g.emitLine("defer goxLeave()")
	v, err := g.genStatements(fn.Body.Statements)
	g.env = prev
	if err != nil {
		return "", err
	}
	g.emitLine("return %s, nil", v)

	g.indent--
	g.emitLine("},")
	g.indent--
	g.emitLine("}")
	return t, nil
}
