package parser

import (
	"fmt"
	"strconv"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/token"
)

// Precedence levels for Pratt parser
const (
	_ int = iota
	LOWEST
	ASSIGN      // =
	OR          // ||
	AND         // &&
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	UNARY       // ! -
	CALL        // . () []
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:   ASSIGN,
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LT_EQ:    LESSGREATER,
	token.GT_EQ:    LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.DOT:      CALL,
	token.LPAREN:   CALL,
	token.LBRACKET: CALL,
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

// continuesExpression reports whether the peek token may extend the
// current expression. A line break ends an expression unless the next
// line starts with '.', so method chains can be split across lines.
func (p *Parser) continuesExpression() bool {
	if p.peekToken.Newline && !p.peekTokenIs(token.DOT) {
		return false
	}
	return !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.EOF)
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError(p.curToken, "expression", "")
		return nil
	}

	leftExp := prefix()

	for leftExp != nil && p.continuesExpression() && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Ident{Name: p.curToken.Literal, Pos: p.curToken.Pos}
}

func (p *Parser) parseIntLiteral() ast.Expression {
	v, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.error(fmt.Sprintf("integer literal %s out of range", p.curToken.Literal))
		return nil
	}
	return &ast.IntLit{Value: v, Raw: p.curToken.Literal, Pos: p.curToken.Pos}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.error(fmt.Sprintf("invalid float literal %s", p.curToken.Literal))
		return nil
	}
	return &ast.FloatLit{Value: v, Raw: p.curToken.Literal, Pos: p.curToken.Pos}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLit{Value: p.curToken.Literal, Pos: p.curToken.Pos}
}

func (p *Parser) parseTemplateLiteral() ast.Expression {
	lit := &ast.TemplateLit{Raw: p.curToken.Literal, Pos: p.curToken.Pos}
	for _, seg := range p.curToken.Segments {
		lit.Parts = append(lit.Parts, ast.TemplatePart{Text: seg.Text, Ident: seg.Ident, Pos: seg.Pos})
	}
	return lit
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BoolLit{Value: p.curTokenIs(token.TRUE), Pos: p.curToken.Pos}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLit{Pos: p.curToken.Pos}
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	expr := &ast.UnaryExpr{Op: p.curToken.Literal, Pos: p.curToken.Pos}

	p.nextToken()
	expr.Operand = p.parseExpression(UNARY)
	if expr.Operand == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	expr := &ast.BinaryExpr{
		Left: left,
		Op:   p.curToken.Literal,
		Pos:  p.curToken.Pos,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// parseAssignExpression is right-associative: a = b = c is a = (b = c).
func (p *Parser) parseAssignExpression(target ast.Expression) ast.Expression {
	expr := &ast.AssignExpr{Target: target, Pos: p.curToken.Pos}

	switch target.(type) {
	case *ast.Ident, *ast.IndexExpr, *ast.MemberExpr:
	default:
		p.error("invalid assignment target")
		return nil
	}

	p.nextToken()
	expr.Value = p.parseExpression(ASSIGN - 1)
	if expr.Value == nil {
		return nil
	}
	if fn, ok := expr.Value.(*ast.FuncLit); ok && fn.Name == "" {
		if id, ok := target.(*ast.Ident); ok {
			fn.Name = id.Name
		}
	}
	return expr
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLit{Pos: p.curToken.Pos}
	elems, ok := p.parseExpressionList(token.RBRACKET)
	if !ok {
		return nil
	}
	arr.Elements = elems
	return arr
}

// parseExpressionList parses comma separated expressions up to end. A
// trailing comma is allowed.
func (p *Parser) parseExpressionList(end token.TokenType) ([]ast.Expression, bool) {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	for {
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

// parseBraceExpression disambiguates '{': an empty pair or a string
// followed by ':' starts a map literal, anything else is a block.
func (p *Parser) parseBraceExpression() ast.Expression {
	if p.peekTokenIs(token.RBRACE) || (p.peekTokenIs(token.STRING) && p.peekSecond().Type == token.COLON) {
		return p.parseMapLiteral()
	}
	return p.parseBlock()
}

func (p *Parser) parseMapLiteral() ast.Expression {
	m := &ast.MapLit{Pos: p.curToken.Pos}

	for !p.peekTokenIs(token.RBRACE) {
		if !p.expectPeek(token.STRING) {
			return nil
		}
		key := p.curToken.Literal

		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()

		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		m.Keys = append(m.Keys, key)
		m.Values = append(m.Values, value)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return m
}

// parseIfExpression parses: if cond { ... } [else if ... | else { ... }]
func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpr{Pos: p.curToken.Pos}

	p.nextToken()
	expr.Condition = p.parseExpression(LOWEST)
	if expr.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Then = p.parseBlock()

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			alt := p.parseIfExpression()
			if alt == nil {
				return nil
			}
			expr.Else = alt
			return expr
		}

		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		expr.Else = p.parseBlock()
	}

	return expr
}

// parseFunctionLiteral parses: fn(params) { ... } | fn(params) => expr
func (p *Parser) parseFunctionLiteral() ast.Expression {
	fn := p.parseFunctionTail(p.curToken.Pos)
	if fn == nil {
		return nil
	}
	return fn
}

// parseFunctionTail parses the parameter list and body following 'fn' or
// 'fn name'. Arrow bodies become a single-expression block.
func (p *Parser) parseFunctionTail(pos token.Position) *ast.FuncLit {
	fn := &ast.FuncLit{Pos: pos}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	params, ok := p.parseFuncParams()
	if !ok {
		return nil
	}
	fn.Params = params

	switch {
	case p.peekTokenIs(token.ARROW):
		p.nextToken()
		arrowPos := p.curToken.Pos
		p.nextToken()
		body := p.parseExpression(LOWEST)
		if body == nil {
			return nil
		}
		fn.Arrow = true
		fn.Body = &ast.BlockExpr{
			Statements: []ast.Statement{&ast.ExprStmt{Expr: body, Pos: body.Position()}},
			Pos:        arrowPos,
		}
	case p.peekTokenIs(token.LBRACE):
		p.nextToken()
		fn.Body = p.parseBlock()
	default:
		p.peekError("'{' or '=>'")
		return nil
	}

	return fn
}

func (p *Parser) parseFuncParams() ([]string, bool) {
	params := []string{}
	seen := map[string]bool{}

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		name := p.curToken.Literal
		if seen[name] {
			p.error(fmt.Sprintf("duplicate parameter '%s'", name))
			return nil, false
		}
		seen[name] = true
		params = append(params, name)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	call := &ast.CallExpr{Function: function, Pos: p.curToken.Pos}
	args, ok := p.parseExpressionList(token.RPAREN)
	if !ok {
		return nil
	}
	call.Args = args
	return call
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	expr := &ast.IndexExpr{Left: left, Pos: p.curToken.Pos}

	p.nextToken()
	expr.Index = p.parseExpression(LOWEST)
	if expr.Index == nil {
		return nil
	}

	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr
}

// parseMemberExpression handles receiver.name and receiver.name(args).
func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	pos := p.curToken.Pos

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Literal

	if p.peekTokenIs(token.LPAREN) && !p.peekToken.Newline {
		p.nextToken()
		args, ok := p.parseExpressionList(token.RPAREN)
		if !ok {
			return nil
		}
		return &ast.MethodCallExpr{Object: object, Method: name, Args: args, Pos: pos}
	}

	return &ast.MemberExpr{Object: object, Property: name, Pos: pos}
}
