package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/btouchard/gox/internal/compiler/ast"
	"github.com/btouchard/gox/internal/compiler/lexer"
	"github.com/btouchard/gox/internal/compiler/token"
	"github.com/btouchard/gox/pkg/errors"
)

// maxErrors bounds the number of syntax errors reported for one file.
const maxErrors = 25

type Parser struct {
	l         *lexer.Lexer
	file      string
	curToken  token.Token
	peekToken token.Token
	ahead     []token.Token // read past peekToken by peekSecond
	errors    *errors.ErrorList

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parse lexes and parses a whole script. A lexing error is returned on
// its own; otherwise every syntax error found is returned.
func Parse(file, source string) (*ast.Program, error) {
	p := New(lexer.NewNamed(file, source))
	prog := p.ParseProgram()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		file:   l.File(),
		errors: errors.NewErrorList(),
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TEMPLATE, p.parseTemplateLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NULL, p.parseNullLiteral)
	p.registerPrefix(token.BANG, p.parseUnaryExpression)
	p.registerPrefix(token.MINUS, p.parseUnaryExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(token.LBRACE, p.parseBraceExpression)
	p.registerPrefix(token.IF, p.parseIfExpression)
	p.registerPrefix(token.FN, p.parseFunctionLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, op := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.GT, token.LT_EQ, token.GT_EQ,
		token.AND, token.OR,
	} {
		p.registerInfix(op, p.parseBinaryExpression)
	}
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)

	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the syntax errors collected so far.
func (p *Parser) Errors() []error {
	return p.errors.Errors
}

// Err returns the lexer error if lexing failed, otherwise the collected
// syntax errors (nil when there are none).
func (p *Parser) Err() error {
	if err := p.l.Err(); err != nil {
		return err
	}
	return p.errors.Err()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if len(p.ahead) > 0 {
		p.peekToken = p.ahead[0]
		p.ahead = p.ahead[1:]
		return
	}
	p.peekToken = p.l.NextToken()
}

// peekSecond returns the token after peekToken without consuming it.
func (p *Parser) peekSecond() token.Token {
	if len(p.ahead) == 0 {
		p.ahead = append(p.ahead, p.l.NextToken())
	}
	return p.ahead[0]
}

func (p *Parser) position(pos token.Position) errors.Position {
	return errors.Position{File: p.file, Line: pos.Line, Column: pos.Column}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.IDENT:
		return fmt.Sprintf("identifier '%s'", tok.Literal)
	case token.INT, token.FLOAT:
		return fmt.Sprintf("number %s", tok.Literal)
	case token.STRING:
		return fmt.Sprintf("string %q", tok.Literal)
	case token.TEMPLATE:
		return "template string"
	case token.RAW_GO:
		return "native block"
	case token.ILLEGAL:
		return "illegal token"
	}
	if tok.Literal != "" {
		return fmt.Sprintf("'%s'", tok.Literal)
	}
	return string(tok.Type)
}

func (p *Parser) addError(tok token.Token, expected, msg string) {
	if p.l.Err() != nil || len(p.errors.Errors) >= maxErrors {
		return
	}
	p.errors.Add(&errors.ParseError{
		Pos:      p.position(tok.Pos),
		Expected: expected,
		Found:    describe(tok),
		Message:  msg,
	})
}

func (p *Parser) error(msg string) {
	p.addError(p.curToken, "", msg)
}

func (p *Parser) peekError(expected string) {
	p.addError(p.peekToken, expected, "")
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(tokenName(t))
	return false
}

func tokenName(t token.TokenType) string {
	switch t {
	case token.IDENT:
		return "identifier"
	case token.STRING:
		return "string"
	}
	return fmt.Sprintf("'%s'", strings.ToLower(string(t)))
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// synchronize skips to the end of the current statement: a ';', a token
// that starts a new line, a closing brace or end of file.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.SEMICOLON) {
			return
		}
		if p.peekToken.Newline || p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
			return
		}
		p.nextToken()
	}
}

// ParseProgram is the main entry point for parsing a .gox file
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{File: p.file}
	prog.Statements = p.parseStatements(token.EOF)
	return prog
}

// parseStatements parses statements until end (exclusive). The current
// token is left on end.
func (p *Parser) parseStatements(end token.TokenType) []ast.Statement {
	statements := []ast.Statement{}

	for !p.curTokenIs(end) && !p.curTokenIs(token.EOF) {
		if p.l.Err() != nil {
			break
		}
		if p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		if p.curTokenIs(token.RBRACE) {
			p.error("unexpected '}'")
			p.nextToken()
			continue
		}

		before := len(p.errors.Errors)
		stmt := p.parseStatement()
		if len(p.errors.Errors) > before || stmt == nil {
			if p.curTokenIs(end) {
				// the failed statement stopped on the closing brace
				break
			}
			p.synchronize()
		} else {
			statements = append(statements, stmt)
			p.expectTerminator()
		}
		p.nextToken()
	}

	return statements
}

// expectTerminator checks that a statement is followed by ';', a new
// line, '}' or end of file. A statement that ends with a block needs no
// separator.
func (p *Parser) expectTerminator() {
	switch {
	case p.peekTokenIs(token.SEMICOLON):
		p.nextToken()
	case p.peekToken.Newline, p.peekTokenIs(token.RBRACE), p.peekTokenIs(token.EOF):
	case p.curTokenIs(token.RBRACE), p.curTokenIs(token.RAW_GO):
	default:
		p.peekError("newline or ';'")
		p.synchronize()
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.FN:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFuncDecl()
		}
	case token.RETURN:
		return p.parseReturnStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.IMPORT:
		return p.parseImportStatement()
	case token.USE:
		return p.parseUseStatement()
	case token.REQUIRE:
		return p.parseRequireStatement()
	case token.RAW_GO:
		return &ast.NativeBlock{Code: p.curToken.Literal, Pos: p.curToken.Pos}
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStmt{Pos: p.curToken.Pos}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Literal

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()

	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	if fn, ok := stmt.Value.(*ast.FuncLit); ok && fn.Name == "" {
		fn.Name = stmt.Name
	}
	return stmt
}

// parseFuncDecl parses: fn name(params) { ... } | fn name(params) => expr
func (p *Parser) parseFuncDecl() ast.Statement {
	decl := &ast.FuncDecl{Pos: p.curToken.Pos}
	fnPos := p.curToken.Pos

	p.nextToken()
	decl.Name = p.curToken.Literal

	fn := p.parseFunctionTail(fnPos)
	if fn == nil {
		return nil
	}
	fn.Name = decl.Name
	decl.Fn = fn
	return decl
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStmt{Pos: p.curToken.Pos}

	// Bare return
	if p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.SEMICOLON) ||
		p.peekTokenIs(token.EOF) || p.peekToken.Newline {
		return stmt
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStmt{Pos: p.curToken.Pos}

	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

// parseForStatement parses: for x in iterable { ... }
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStmt{Pos: p.curToken.Pos}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Var = p.curToken.Literal

	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()

	stmt.Iterable = p.parseExpression(LOWEST)
	if stmt.Iterable == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

// parseImportStatement parses: import "path.gox" [as name]
func (p *Parser) parseImportStatement() ast.Statement {
	stmt := &ast.ImportStmt{Pos: p.curToken.Pos}

	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal

	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Literal
		return stmt
	}

	stmt.Alias = defaultAlias(stmt.Path)
	if stmt.Alias == "" {
		p.error(fmt.Sprintf("cannot derive a name from import path %q, add 'as name'", stmt.Path))
		return nil
	}
	return stmt
}

// defaultAlias derives a binding name from an import path:
// "lib/string_utils.gox" → "string_utils".
func defaultAlias(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i, r := range base {
		isLetter := r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		if !isLetter && (i == 0 || r < '0' || r > '9') {
			return ""
		}
	}
	if token.IsKeyword(base) {
		return ""
	}
	return base
}

// parseUseStatement parses: use module [as alias]
func (p *Parser) parseUseStatement() ast.Statement {
	stmt := &ast.UseStmt{Pos: p.curToken.Pos}

	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Module = p.curToken.Literal

	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Literal
	}
	return stmt
}

// parseRequireStatement parses: require "module/path" = "v1.2.3" [as alias]
func (p *Parser) parseRequireStatement() ast.Statement {
	stmt := &ast.RequireStmt{Pos: p.curToken.Pos}

	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Path = p.curToken.Literal

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	if !p.expectPeek(token.STRING) {
		return nil
	}
	stmt.Version = p.curToken.Literal

	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.Alias = p.curToken.Literal
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	pos := p.curToken.Pos
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{Expr: expr, Pos: pos}
}

// parseBlock parses { statements }. The current token must be '{' and is
// left on the matching '}'.
func (p *Parser) parseBlock() *ast.BlockExpr {
	block := &ast.BlockExpr{Pos: p.curToken.Pos}
	p.nextToken()

	block.Statements = p.parseStatements(token.RBRACE)

	if !p.curTokenIs(token.RBRACE) {
		p.addError(p.curToken, "'}'", "")
		return block
	}
	return block
}
