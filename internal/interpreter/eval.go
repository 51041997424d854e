package interpreter

import (
	"strings"

	"github.com/btouchard/gox/internal/compiler/ast"
	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

func (in *Interpreter) evalStatements(stmts []ast.Statement, env *value.Env) (value.Value, error) {
	var result value.Value = value.Null{}
	for _, stmt := range stmts {
		v, err := in.evalStatement(stmt, env)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func (in *Interpreter) evalStatement(stmt ast.Statement, env *value.Env) (result value.Value, err error) {
	defer func() { err = in.at(err, stmt) }()

	switch s := stmt.(type) {
	case *ast.ExprStmt:
		return in.evalExpr(s.Expr, env)

	case *ast.LetStmt:
		v, err := in.evalExpr(s.Value, env)
		if err != nil {
			return nil, err
		}
		env.Define(s.Name, v)
		return value.Null{}, nil

	case *ast.FuncDecl:
		env.Define(s.Name, in.makeFunction(s.Fn, env))
		return value.Null{}, nil

	case *ast.ReturnStmt:
		var v value.Value = value.Null{}
		if s.Value != nil {
			if v, err = in.evalExpr(s.Value, env); err != nil {
				return nil, err
			}
		}
		return nil, &value.ReturnSignal{Value: v}

	case *ast.WhileStmt:
		var last value.Value = value.Null{}
		for {
			cond, err := in.evalExpr(s.Condition, env)
			if err != nil {
				return nil, err
			}
			if !value.Truthy(cond) {
				return last, nil
			}
			if last, err = in.evalBlock(s.Body, value.NewEnv(env)); err != nil {
				return nil, err
			}
		}

	case *ast.ForStmt:
		iterable, err := in.evalExpr(s.Iterable, env)
		if err != nil {
			return nil, err
		}
		items, err := value.Iterate(iterable)
		if err != nil {
			return nil, in.at(err, s.Iterable)
		}
		var last value.Value = value.Null{}
		for _, item := range items {
			scope := value.NewEnv(env)
			scope.Define(s.Var, item)
			if last, err = in.evalBlock(s.Body, scope); err != nil {
				return nil, err
			}
		}
		return last, nil

	case *ast.ImportStmt:
		m, err := in.importModule(s)
		if err != nil {
			return nil, err
		}
		env.Define(s.Alias, m)
		return value.Null{}, nil

	case *ast.UseStmt:
		mod, err := in.modules.Load(s.Module)
		if err != nil {
			return nil, err
		}
		env.Define(s.Binding(), mod)
		return value.Null{}, nil

	case *ast.RequireStmt:
		// Dependencies only matter to the native build.
		return value.Null{}, nil

	case *ast.NativeBlock:
		return nil, gerrors.Runtime(gerrors.FeatureNotSupported, "native Go blocks need the native build path")
	}
	return nil, gerrors.Runtime(gerrors.Generic, "unsupported statement %T", stmt)
}

// evalBlock runs the statements of block directly in scope; callers
// decide whether the block gets a fresh scope.
func (in *Interpreter) evalBlock(block *ast.BlockExpr, scope *value.Env) (value.Value, error) {
	return in.evalStatements(block.Statements, scope)
}

func (in *Interpreter) makeFunction(fn *ast.FuncLit, env *value.Env) *value.Function {
	file := in.file
	return &value.Function{
		Name:    fn.Name,
		Params:  fn.Params,
		Closure: env,
		Body: func(scope *value.Env) (value.Value, error) {
			if in.depth >= maxDepth {
				return nil, gerrors.Runtime(gerrors.Generic, "maximum call depth of %d exceeded", maxDepth)
			}
			in.depth++
			prev := in.file
			in.file = file
			defer func() {
				in.depth--
				in.file = prev
			}()
			return in.evalBlock(fn.Body, scope)
		},
	}
}

func (in *Interpreter) evalExpr(expr ast.Expression, env *value.Env) (result value.Value, err error) {
	defer func() { err = in.at(err, expr) }()

	switch e := expr.(type) {
	case *ast.IntLit:
		return value.Int(e.Value), nil
	case *ast.FloatLit:
		return value.Float(e.Value), nil
	case *ast.StringLit:
		return value.String(e.Value), nil
	case *ast.BoolLit:
		return value.Bool(e.Value), nil
	case *ast.NullLit:
		return value.Null{}, nil

	case *ast.Ident:
		return env.Lookup(e.Name)

	case *ast.TemplateLit:
		return in.evalTemplate(e, env)

	case *ast.UnaryExpr:
		v, err := in.evalExpr(e.Operand, env)
		if err != nil {
			return nil, err
		}
		return value.Unary(e.Op, v)

	case *ast.BinaryExpr:
		return in.evalBinary(e, env)

	case *ast.AssignExpr:
		return in.evalAssign(e, env)

	case *ast.CallExpr:
		fn, err := in.evalExpr(e.Function, env)
		if err != nil {
			return nil, err
		}
		args, err := in.evalArgs(e.Args, env)
		if err != nil {
			return nil, err
		}
		return value.Invoke(ast.CalleeName(e.Function), fn, args)

	case *ast.MethodCallExpr:
		recv, err := in.evalExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		args, err := in.evalArgs(e.Args, env)
		if err != nil {
			return nil, err
		}
		return value.CallMethod(recv, e.Method, args)

	case *ast.MemberExpr:
		obj, err := in.evalExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		return value.Member(obj, e.Property)

	case *ast.IndexExpr:
		container, err := in.evalExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		idx, err := in.evalExpr(e.Index, env)
		if err != nil {
			return nil, err
		}
		return value.Index(container, idx)

	case *ast.ArrayLit:
		elems, err := in.evalArgs(e.Elements, env)
		if err != nil {
			return nil, err
		}
		return value.NewArray(elems...), nil

	case *ast.MapLit:
		m := value.NewMap()
		for i, k := range e.Keys {
			v, err := in.evalExpr(e.Values[i], env)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil

	case *ast.IfExpr:
		return in.evalIf(e, env)

	case *ast.BlockExpr:
		return in.evalBlock(e, value.NewEnv(env))

	case *ast.FuncLit:
		return in.makeFunction(e, env), nil
	}
	return nil, gerrors.Runtime(gerrors.Generic, "unsupported expression %T", expr)
}

func (in *Interpreter) evalArgs(exprs []ast.Expression, env *value.Env) ([]value.Value, error) {
	out := make([]value.Value, 0, len(exprs))
	for _, x := range exprs {
		v, err := in.evalExpr(x, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (in *Interpreter) evalBinary(e *ast.BinaryExpr, env *value.Env) (value.Value, error) {
	left, err := in.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "&&":
		if !value.Truthy(left) {
			return value.Bool(false), nil
		}
		right, err := in.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Truthy(right)), nil
	case "||":
		if value.Truthy(left) {
			return value.Bool(true), nil
		}
		right, err := in.evalExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		return value.Bool(value.Truthy(right)), nil
	}
	right, err := in.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}
	return value.Binary(e.Op, left, right)
}

func (in *Interpreter) evalAssign(e *ast.AssignExpr, env *value.Env) (value.Value, error) {
	switch t := e.Target.(type) {
	case *ast.Ident:
		v, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		env.Set(t.Name, v)
		return v, nil

	case *ast.IndexExpr:
		container, err := in.evalExpr(t.Left, env)
		if err != nil {
			return nil, err
		}
		idx, err := in.evalExpr(t.Index, env)
		if err != nil {
			return nil, err
		}
		v, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := value.SetIndex(container, idx, v); err != nil {
			return nil, in.at(err, t)
		}
		return v, nil

	case *ast.MemberExpr:
		obj, err := in.evalExpr(t.Object, env)
		if err != nil {
			return nil, err
		}
		v, err := in.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := value.SetMember(obj, t.Property, v); err != nil {
			return nil, in.at(err, t)
		}
		return v, nil
	}
	return nil, gerrors.Runtime(gerrors.Generic, "invalid assignment target")
}

func (in *Interpreter) evalIf(e *ast.IfExpr, env *value.Env) (value.Value, error) {
	cond, err := in.evalExpr(e.Condition, env)
	if err != nil {
		return nil, err
	}
	if value.Truthy(cond) {
		return in.evalBlock(e.Then, value.NewEnv(env))
	}
	switch alt := e.Else.(type) {
	case nil:
		return value.Null{}, nil
	case *ast.BlockExpr:
		return in.evalBlock(alt, value.NewEnv(env))
	default:
		return in.evalExpr(alt, env)
	}
}

func (in *Interpreter) evalTemplate(e *ast.TemplateLit, env *value.Env) (value.Value, error) {
	var b strings.Builder
	for _, part := range e.Parts {
		if !part.Ident {
			b.WriteString(part.Text)
			continue
		}
		v, err := env.Lookup(part.Text)
		if err != nil {
			return nil, gerrors.WithPos(err, in.pos(part.Pos))
		}
		b.WriteString(v.String())
	}
	return value.String(b.String()), nil
}
