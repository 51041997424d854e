package ast

import "github.com/btouchard/gox/internal/compiler/token"

// Node is the base interface for all AST nodes
type Node interface {
	TokenLiteral() string
	Position() token.Position
}

// Statement is a node that appears directly in a block or program
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value
type Expression interface {
	Node
	expressionNode()
}

// Program is the root AST node representing a complete .gox file
type Program struct {
	File       string
	Statements []Statement
}

func (p *Program) TokenLiteral() string { return "program" }
func (p *Program) Position() token.Position {
	return token.Position{Line: 1, Column: 1}
}

// ============ STATEMENTS ============

// ExprStmt: expression used as statement
type ExprStmt struct {
	Expr Expression
	Pos  token.Position
}

func (e *ExprStmt) TokenLiteral() string     { return e.Expr.TokenLiteral() }
func (e *ExprStmt) Position() token.Position { return e.Pos }
func (e *ExprStmt) statementNode()           {}

// LetStmt: let x = expr (always declares in the current scope)
type LetStmt struct {
	Name  string
	Value Expression
	Pos   token.Position
}

func (l *LetStmt) TokenLiteral() string     { return "let" }
func (l *LetStmt) Position() token.Position { return l.Pos }
func (l *LetStmt) statementNode()           {}

// FuncDecl: fn name(params) { ... } or fn name(params) => expr
type FuncDecl struct {
	Name string
	Fn   *FuncLit
	Pos  token.Position
}

func (f *FuncDecl) TokenLiteral() string     { return "fn" }
func (f *FuncDecl) Position() token.Position { return f.Pos }
func (f *FuncDecl) statementNode()           {}

// ReturnStmt: return expr
type ReturnStmt struct {
	Value Expression // nil for bare return
	Pos   token.Position
}

func (r *ReturnStmt) TokenLiteral() string     { return "return" }
func (r *ReturnStmt) Position() token.Position { return r.Pos }
func (r *ReturnStmt) statementNode()           {}

// WhileStmt: while cond { ... }
type WhileStmt struct {
	Condition Expression
	Body      *BlockExpr
	Pos       token.Position
}

func (w *WhileStmt) TokenLiteral() string     { return "while" }
func (w *WhileStmt) Position() token.Position { return w.Pos }
func (w *WhileStmt) statementNode()           {}

// ForStmt: for x in iterable { ... }
type ForStmt struct {
	Var      string
	Iterable Expression
	Body     *BlockExpr
	Pos      token.Position
}

func (f *ForStmt) TokenLiteral() string     { return "for" }
func (f *ForStmt) Position() token.Position { return f.Pos }
func (f *ForStmt) statementNode()           {}

// ImportStmt: import "lib.gox" as lib
type ImportStmt struct {
	Path  string
	Alias string
	Pos   token.Position
}

func (i *ImportStmt) TokenLiteral() string     { return "import" }
func (i *ImportStmt) Position() token.Position { return i.Pos }
func (i *ImportStmt) statementNode()           {}

// UseStmt: use json [as j]
type UseStmt struct {
	Module string
	Alias  string
	Pos    token.Position
}

func (u *UseStmt) TokenLiteral() string     { return "use" }
func (u *UseStmt) Position() token.Position { return u.Pos }
func (u *UseStmt) statementNode()           {}

// Binding returns the name the module is bound to.
func (u *UseStmt) Binding() string {
	if u.Alias != "" {
		return u.Alias
	}
	return u.Module
}

// RequireStmt: require "github.com/x/y" = "v1.2.3" [as y]
type RequireStmt struct {
	Path    string
	Version string
	Alias   string
	Pos     token.Position
}

func (r *RequireStmt) TokenLiteral() string     { return "require" }
func (r *RequireStmt) Position() token.Position { return r.Pos }
func (r *RequireStmt) statementNode()           {}

// NativeBlock: go { ... }; Code is the verbatim text between the braces
type NativeBlock struct {
	Code string
	Pos  token.Position
}

func (n *NativeBlock) TokenLiteral() string     { return "go" }
func (n *NativeBlock) Position() token.Position { return n.Pos }
func (n *NativeBlock) statementNode()           {}

// ============ EXPRESSIONS ============

// Ident: variable name
type Ident struct {
	Name string
	Pos  token.Position
}

func (i *Ident) TokenLiteral() string     { return i.Name }
func (i *Ident) Position() token.Position { return i.Pos }
func (i *Ident) expressionNode()          {}

// IntLit: 42
type IntLit struct {
	Value int64
	Raw   string
	Pos   token.Position
}

func (i *IntLit) TokenLiteral() string     { return i.Raw }
func (i *IntLit) Position() token.Position { return i.Pos }
func (i *IntLit) expressionNode()          {}

// FloatLit: 3.14
type FloatLit struct {
	Value float64
	Raw   string
	Pos   token.Position
}

func (f *FloatLit) TokenLiteral() string     { return f.Raw }
func (f *FloatLit) Position() token.Position { return f.Pos }
func (f *FloatLit) expressionNode()          {}

// StringLit: "hello" (escapes already decoded)
type StringLit struct {
	Value string
	Pos   token.Position
}

func (s *StringLit) TokenLiteral() string     { return s.Value }
func (s *StringLit) Position() token.Position { return s.Pos }
func (s *StringLit) expressionNode()          {}

// TemplateLit: `Hello, {name}!`
type TemplateLit struct {
	Parts []TemplatePart
	Raw   string
	Pos   token.Position
}

func (t *TemplateLit) TokenLiteral() string     { return t.Raw }
func (t *TemplateLit) Position() token.Position { return t.Pos }
func (t *TemplateLit) expressionNode()          {}

// TemplatePart represents a segment of a template string
type TemplatePart struct {
	Text  string // literal text, or the identifier name when Ident is set
	Ident bool
	Pos   token.Position
}

// BoolLit: true, false
type BoolLit struct {
	Value bool
	Pos   token.Position
}

func (b *BoolLit) TokenLiteral() string {
	if b.Value {
		return "true"
	}
	return "false"
}
func (b *BoolLit) Position() token.Position { return b.Pos }
func (b *BoolLit) expressionNode()          {}

// NullLit: null
type NullLit struct {
	Pos token.Position
}

func (n *NullLit) TokenLiteral() string     { return "null" }
func (n *NullLit) Position() token.Position { return n.Pos }
func (n *NullLit) expressionNode()          {}

// UnaryExpr: !expr, -expr
type UnaryExpr struct {
	Op      string
	Operand Expression
	Pos     token.Position
}

func (u *UnaryExpr) TokenLiteral() string     { return u.Op }
func (u *UnaryExpr) Position() token.Position { return u.Pos }
func (u *UnaryExpr) expressionNode()          {}

// BinaryExpr: a + b, a == b, a && b
type BinaryExpr struct {
	Left  Expression
	Op    string
	Right Expression
	Pos   token.Position
}

func (b *BinaryExpr) TokenLiteral() string     { return b.Op }
func (b *BinaryExpr) Position() token.Position { return b.Pos }
func (b *BinaryExpr) expressionNode()          {}

// AssignExpr: target = value. Target is an Ident, IndexExpr or MemberExpr.
type AssignExpr struct {
	Target Expression
	Value  Expression
	Pos    token.Position
}

func (a *AssignExpr) TokenLiteral() string     { return "=" }
func (a *AssignExpr) Position() token.Position { return a.Pos }
func (a *AssignExpr) expressionNode()          {}

// CallExpr: f(args...)
type CallExpr struct {
	Function Expression
	Args     []Expression
	Pos      token.Position
}

func (c *CallExpr) TokenLiteral() string     { return "call" }
func (c *CallExpr) Position() token.Position { return c.Pos }
func (c *CallExpr) expressionNode()          {}

// MethodCallExpr: receiver.method(args...), dispatched on the receiver's
// runtime kind
type MethodCallExpr struct {
	Object Expression
	Method string
	Args   []Expression
	Pos    token.Position
}

func (m *MethodCallExpr) TokenLiteral() string     { return "." + m.Method }
func (m *MethodCallExpr) Position() token.Position { return m.Pos }
func (m *MethodCallExpr) expressionNode()          {}

// MemberExpr: obj.field (map key or zero-argument method)
type MemberExpr struct {
	Object   Expression
	Property string
	Pos      token.Position
}

func (m *MemberExpr) TokenLiteral() string     { return "." }
func (m *MemberExpr) Position() token.Position { return m.Pos }
func (m *MemberExpr) expressionNode()          {}

// IndexExpr: a[i]
type IndexExpr struct {
	Left  Expression
	Index Expression
	Pos   token.Position
}

func (i *IndexExpr) TokenLiteral() string     { return "[" }
func (i *IndexExpr) Position() token.Position { return i.Pos }
func (i *IndexExpr) expressionNode()          {}

// ArrayLit: [1, 2, 3]
type ArrayLit struct {
	Elements []Expression
	Pos      token.Position
}

func (a *ArrayLit) TokenLiteral() string     { return "[" }
func (a *ArrayLit) Position() token.Position { return a.Pos }
func (a *ArrayLit) expressionNode()          {}

// MapLit: {"a": 1, "b": 2}, keys in source order
type MapLit struct {
	Keys   []string
	Values []Expression
	Pos    token.Position
}

func (m *MapLit) TokenLiteral() string     { return "{" }
func (m *MapLit) Position() token.Position { return m.Pos }
func (m *MapLit) expressionNode()          {}

// IfExpr: if cond { ... } else { ... }. Else is a *BlockExpr, an *IfExpr
// for else-if chains, or nil.
type IfExpr struct {
	Condition Expression
	Then      *BlockExpr
	Else      Expression
	Pos       token.Position
}

func (i *IfExpr) TokenLiteral() string     { return "if" }
func (i *IfExpr) Position() token.Position { return i.Pos }
func (i *IfExpr) expressionNode()          {}

// BlockExpr: { stmts }: its value is the value of the last statement
type BlockExpr struct {
	Statements []Statement
	Pos        token.Position
}

func (b *BlockExpr) TokenLiteral() string     { return "{" }
func (b *BlockExpr) Position() token.Position { return b.Pos }
func (b *BlockExpr) expressionNode()          {}

// FuncLit: fn(params) { ... } or fn(params) => expr
type FuncLit struct {
	Name   string // set for declarations, used in error messages
	Params []string
	Body   *BlockExpr
	Arrow  bool
	Pos    token.Position
}

func (f *FuncLit) TokenLiteral() string     { return "fn" }
func (f *FuncLit) Position() token.Position { return f.Pos }
func (f *FuncLit) expressionNode()          {}
