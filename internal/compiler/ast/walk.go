package ast

// Inspect traverses the tree depth-first, calling f for each node. When f
// returns false the children of that node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *ExprStmt:
		Inspect(n.Expr, f)
	case *LetStmt:
		Inspect(n.Value, f)
	case *FuncDecl:
		Inspect(n.Fn, f)
	case *ReturnStmt:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *WhileStmt:
		Inspect(n.Condition, f)
		Inspect(n.Body, f)
	case *ForStmt:
		Inspect(n.Iterable, f)
		Inspect(n.Body, f)
	case *UnaryExpr:
		Inspect(n.Operand, f)
	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *AssignExpr:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *CallExpr:
		Inspect(n.Function, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *MethodCallExpr:
		Inspect(n.Object, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *MemberExpr:
		Inspect(n.Object, f)
	case *IndexExpr:
		Inspect(n.Left, f)
		Inspect(n.Index, f)
	case *ArrayLit:
		for _, e := range n.Elements {
			Inspect(e, f)
		}
	case *MapLit:
		for _, v := range n.Values {
			Inspect(v, f)
		}
	case *IfExpr:
		Inspect(n.Condition, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *BlockExpr:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *FuncLit:
		Inspect(n.Body, f)
	}
}
