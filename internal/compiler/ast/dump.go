package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes an indented outline of the tree, one node per line.
func Dump(w io.Writer, node Node) {
	d := &dumper{w: w}
	d.node(node, 0)
}

type dumper struct {
	w io.Writer
}

func (d *dumper) line(depth int, format string, args ...interface{}) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) node(node Node, depth int) {
	if node == nil {
		d.line(depth, "<nil>")
		return
	}
	pos := node.Position()
	at := fmt.Sprintf("@%d:%d", pos.Line, pos.Column)

	switch n := node.(type) {
	case *Program:
		d.line(depth, "Program %s", n.File)
		for _, s := range n.Statements {
			d.node(s, depth+1)
		}
	case *ExprStmt:
		d.node(n.Expr, depth)
	case *LetStmt:
		d.line(depth, "Let %s %s", n.Name, at)
		d.node(n.Value, depth+1)
	case *FuncDecl:
		d.line(depth, "FuncDecl %s(%s) %s", n.Name, strings.Join(n.Fn.Params, ", "), at)
		d.node(n.Fn.Body, depth+1)
	case *ReturnStmt:
		d.line(depth, "Return %s", at)
		if n.Value != nil {
			d.node(n.Value, depth+1)
		}
	case *WhileStmt:
		d.line(depth, "While %s", at)
		d.node(n.Condition, depth+1)
		d.node(n.Body, depth+1)
	case *ForStmt:
		d.line(depth, "For %s %s", n.Var, at)
		d.node(n.Iterable, depth+1)
		d.node(n.Body, depth+1)
	case *ImportStmt:
		d.line(depth, "Import %q as %s %s", n.Path, n.Alias, at)
	case *UseStmt:
		d.line(depth, "Use %s as %s %s", n.Module, n.Binding(), at)
	case *RequireStmt:
		d.line(depth, "Require %q = %q %s", n.Path, n.Version, at)
	case *NativeBlock:
		d.line(depth, "NativeBlock (%d bytes) %s", len(n.Code), at)
	case *Ident:
		d.line(depth, "Ident %s %s", n.Name, at)
	case *IntLit:
		d.line(depth, "Int %d", n.Value)
	case *FloatLit:
		d.line(depth, "Float %s", strconv.FormatFloat(n.Value, 'g', -1, 64))
	case *StringLit:
		d.line(depth, "String %q", n.Value)
	case *TemplateLit:
		d.line(depth, "Template %s", at)
		for _, p := range n.Parts {
			if p.Ident {
				d.line(depth+1, "{%s}", p.Text)
			} else {
				d.line(depth+1, "%q", p.Text)
			}
		}
	case *BoolLit:
		d.line(depth, "Bool %t", n.Value)
	case *NullLit:
		d.line(depth, "Null")
	case *UnaryExpr:
		d.line(depth, "Unary %s %s", n.Op, at)
		d.node(n.Operand, depth+1)
	case *BinaryExpr:
		d.line(depth, "Binary %s %s", n.Op, at)
		d.node(n.Left, depth+1)
		d.node(n.Right, depth+1)
	case *AssignExpr:
		d.line(depth, "Assign %s", at)
		d.node(n.Target, depth+1)
		d.node(n.Value, depth+1)
	case *CallExpr:
		d.line(depth, "Call %s", at)
		d.node(n.Function, depth+1)
		for _, a := range n.Args {
			d.node(a, depth+2)
		}
	case *MethodCallExpr:
		d.line(depth, "MethodCall .%s %s", n.Method, at)
		d.node(n.Object, depth+1)
		for _, a := range n.Args {
			d.node(a, depth+2)
		}
	case *MemberExpr:
		d.line(depth, "Member .%s %s", n.Property, at)
		d.node(n.Object, depth+1)
	case *IndexExpr:
		d.line(depth, "Index %s", at)
		d.node(n.Left, depth+1)
		d.node(n.Index, depth+1)
	case *ArrayLit:
		d.line(depth, "Array (%d)", len(n.Elements))
		for _, e := range n.Elements {
			d.node(e, depth+1)
		}
	case *MapLit:
		d.line(depth, "Map (%d)", len(n.Keys))
		for i, k := range n.Keys {
			d.line(depth+1, "%q:", k)
			d.node(n.Values[i], depth+2)
		}
	case *IfExpr:
		d.line(depth, "If %s", at)
		d.node(n.Condition, depth+1)
		d.node(n.Then, depth+1)
		if n.Else != nil {
			d.line(depth, "Else")
			d.node(n.Else, depth+1)
		}
	case *BlockExpr:
		d.line(depth, "Block")
		for _, s := range n.Statements {
			d.node(s, depth+1)
		}
	case *FuncLit:
		kind := "Fn"
		if n.Arrow {
			kind = "ArrowFn"
		}
		d.line(depth, "%s(%s) %s", kind, strings.Join(n.Params, ", "), at)
		d.node(n.Body, depth+1)
	default:
		d.line(depth, "%T", n)
	}
}

// ExprString renders an expression in a fully parenthesized form.
func ExprString(e Expression) string {
	switch n := e.(type) {
	case nil:
		return "<nil>"
	case *Ident:
		return n.Name
	case *IntLit:
		return strconv.FormatInt(n.Value, 10)
	case *FloatLit:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *StringLit:
		return strconv.Quote(n.Value)
	case *TemplateLit:
		return "`" + n.Raw + "`"
	case *BoolLit, *NullLit:
		return n.TokenLiteral()
	case *UnaryExpr:
		return "(" + n.Op + ExprString(n.Operand) + ")"
	case *BinaryExpr:
		return "(" + ExprString(n.Left) + " " + n.Op + " " + ExprString(n.Right) + ")"
	case *AssignExpr:
		return "(" + ExprString(n.Target) + " = " + ExprString(n.Value) + ")"
	case *CallExpr:
		return ExprString(n.Function) + "(" + exprList(n.Args) + ")"
	case *MethodCallExpr:
		return ExprString(n.Object) + "." + n.Method + "(" + exprList(n.Args) + ")"
	case *MemberExpr:
		return ExprString(n.Object) + "." + n.Property
	case *IndexExpr:
		return ExprString(n.Left) + "[" + ExprString(n.Index) + "]"
	case *ArrayLit:
		return "[" + exprList(n.Elements) + "]"
	case *MapLit:
		parts := make([]string, len(n.Keys))
		for i, k := range n.Keys {
			parts[i] = strconv.Quote(k) + ": " + ExprString(n.Values[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *IfExpr:
		s := "if " + ExprString(n.Condition) + " " + ExprString(n.Then)
		if n.Else != nil {
			s += " else " + ExprString(n.Else)
		}
		return s
	case *BlockExpr:
		parts := make([]string, len(n.Statements))
		for i, st := range n.Statements {
			parts[i] = stmtString(st)
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case *FuncLit:
		if n.Arrow && len(n.Body.Statements) == 1 {
			return "fn(" + strings.Join(n.Params, ", ") + ") => " + stmtString(n.Body.Statements[0])
		}
		return "fn(" + strings.Join(n.Params, ", ") + ") " + ExprString(n.Body)
	}
	return fmt.Sprintf("%T", e)
}

func exprList(list []Expression) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = ExprString(e)
	}
	return strings.Join(parts, ", ")
}

func stmtString(s Statement) string {
	switch n := s.(type) {
	case *ExprStmt:
		return ExprString(n.Expr)
	case *LetStmt:
		return "let " + n.Name + " = " + ExprString(n.Value)
	case *ReturnStmt:
		if n.Value == nil {
			return "return"
		}
		return "return " + ExprString(n.Value)
	case *FuncDecl:
		return "fn " + n.Name + ExprString(n.Fn)[2:]
	case *WhileStmt:
		return "while " + ExprString(n.Condition) + " " + ExprString(n.Body)
	case *ForStmt:
		return "for " + n.Var + " in " + ExprString(n.Iterable) + " " + ExprString(n.Body)
	}
	return s.TokenLiteral()
}

// CalleeName describes the function part of a call for error messages.
func CalleeName(e Expression) string {
	switch c := e.(type) {
	case *Ident:
		return c.Name
	case *MemberExpr:
		return CalleeName(c.Object) + "." + c.Property
	}
	return "expression"
}
