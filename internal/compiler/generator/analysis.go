package generator

import (
	"strconv"

	"github.com/btouchard/gox/internal/compiler/ast"
)

type numKind int

const (
	notNumeric numKind = iota
	intNum
	floatNum
	boolNum
)

var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true}

var comparisonOps = map[string]bool{
	"<": true, ">": true, "<=": true, ">=": true, "==": true, "!=": true,
}

// literalKind reports the type of an expression built only from numeric
// literals, unary minus, + - * and comparisons. Division and modulo are
// left out so their zero checks stay in the runtime.
func literalKind(e ast.Expression) numKind {
	switch n := e.(type) {
	case *ast.IntLit:
		return intNum
	case *ast.FloatLit:
		return floatNum
	case *ast.UnaryExpr:
		if n.Op != "-" {
			return notNumeric
		}
		if k := literalKind(n.Operand); k == intNum || k == floatNum {
			return k
		}
	case *ast.BinaryExpr:
		l, r := literalKind(n.Left), literalKind(n.Right)
		if !isNumber(l) || !isNumber(r) {
			return notNumeric
		}
		if comparisonOps[n.Op] {
			return boolNum
		}
		if arithmeticOps[n.Op] {
			if l == floatNum || r == floatNum {
				return floatNum
			}
			return intNum
		}
	}
	return notNumeric
}

func isNumber(k numKind) bool { return k == intNum || k == floatNum }

// nativeExpr renders a literal numeric tree as a Go expression over
// int64 and float64. Literals go through goxN and goxF so the compiler
// evaluates them at run time with the same overflow and rounding as the
// interpreter.
func nativeExpr(e ast.Expression) (string, numKind) {
	switch n := e.(type) {
	case *ast.IntLit:
		return "goxN(" + strconv.FormatInt(n.Value, 10) + ")", intNum
	case *ast.FloatLit:
		return "goxF(" + strconv.FormatFloat(n.Value, 'g', -1, 64) + ")", floatNum
	case *ast.UnaryExpr:
		x, k := nativeExpr(n.Operand)
		return "(-" + x + ")", k
	case *ast.BinaryExpr:
		l, lk := nativeExpr(n.Left)
		r, rk := nativeExpr(n.Right)
		if lk != rk {
			if lk == intNum {
				l = "float64(" + l + ")"
			} else {
				r = "float64(" + r + ")"
			}
		}
		kind := lk
		if rk == floatNum {
			kind = floatNum
		}
		if comparisonOps[n.Op] {
			kind = boolNum
		}
		return "(" + l + " " + n.Op + " " + r + ")", kind
	}
	return "", notNumeric
}

// wrapNative converts a native expression back to a Value.
func wrapNative(x string, k numKind) string {
	switch k {
	case intNum:
		return "value.Int(" + x + ")"
	case floatNum:
		return "value.Float(" + x + ")"
	}
	return "value.Bool(" + x + ")"
}

// NativeBlocks returns the native blocks of prog in source order,
// including blocks nested in function bodies.
func NativeBlocks(prog *ast.Program) []*ast.NativeBlock {
	var blocks []*ast.NativeBlock
	ast.Inspect(prog, func(n ast.Node) bool {
		if b, ok := n.(*ast.NativeBlock); ok {
			blocks = append(blocks, b)
		}
		return true
	})
	return blocks
}

// Requires returns the require statements of prog in source order.
func Requires(prog *ast.Program) []*ast.RequireStmt {
	var reqs []*ast.RequireStmt
	ast.Inspect(prog, func(n ast.Node) bool {
		if r, ok := n.(*ast.RequireStmt); ok {
			reqs = append(reqs, r)
		}
		return true
	})
	return reqs
}

// CalledNames returns the identifiers used as the callee of a call
// expression anywhere in prog.
func CalledNames(prog *ast.Program) map[string]bool {
	names := make(map[string]bool)
	ast.Inspect(prog, func(n ast.Node) bool {
		if c, ok := n.(*ast.CallExpr); ok {
			if id, ok := c.Function.(*ast.Ident); ok {
				names[id.Name] = true
			}
		}
		return true
	})
	return names
}
