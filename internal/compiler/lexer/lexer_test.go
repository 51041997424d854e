package lexer

import (
	"testing"

	"github.com/btouchard/gox/internal/compiler/token"
	"github.com/btouchard/gox/pkg/errors"
)

func TestBasicTokens(t *testing.T) {
	input := `= + - ! * / % < > ( ) { } [ ] : , . ;`

	expected := []token.TokenType{
		token.ASSIGN, token.PLUS, token.MINUS, token.BANG, token.ASTERISK,
		token.SLASH, token.PERCENT, token.LT, token.GT, token.LPAREN, token.RPAREN,
		token.LBRACE, token.RBRACE, token.LBRACKET, token.RBRACKET,
		token.COLON, token.COMMA, token.DOT, token.SEMICOLON,
		token.EOF,
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("test[%d] - wrong type. expected=%s, got=%s (literal=%q)", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestMultiCharOperators(t *testing.T) {
	input := `== != <= >= && || =>`

	expected := []struct {
		typ token.TokenType
		lit string
	}{
		{token.EQ, "=="}, {token.NOT_EQ, "!="}, {token.LT_EQ, "<="},
		{token.GT_EQ, ">="}, {token.AND, "&&"}, {token.OR, "||"},
		{token.ARROW, "=>"},
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ || tok.Literal != exp.lit {
			t.Fatalf("test[%d] - expected %s(%q), got %s(%q)", i, exp.typ, exp.lit, tok.Type, tok.Literal)
		}
	}
}

func TestKeywords(t *testing.T) {
	input := `fn let if else while for in return true false null import use require as`

	expected := []token.TokenType{
		token.FN, token.LET, token.IF, token.ELSE, token.WHILE, token.FOR,
		token.IN, token.RETURN, token.TRUE, token.FALSE, token.NULL,
		token.IMPORT, token.USE, token.REQUIRE, token.AS,
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp {
			t.Fatalf("test[%d] - expected %s, got %s(%q)", i, exp, tok.Type, tok.Literal)
		}
	}
}

func TestStrings(t *testing.T) {
	input := `"hello world" "escaped \"quote\"" "tab\there\n"`

	l := New(input)

	tok := l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "hello world" {
		t.Fatalf("test 1 - got %s(%q)", tok.Type, tok.Literal)
	}

	tok = l.NextToken()
	if tok.Type != token.STRING || tok.Literal != `escaped "quote"` {
		t.Fatalf("test 2 - got %s(%q)", tok.Type, tok.Literal)
	}

	tok = l.NextToken()
	if tok.Type != token.STRING || tok.Literal != "tab\there\n" {
		t.Fatalf("test 3 - got %s(%q)", tok.Type, tok.Literal)
	}
}

func TestUnknownEscape(t *testing.T) {
	l := New(`"bad \q escape"`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
	lexErr, ok := l.Err().(*errors.LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", l.Err())
	}
	if lexErr.Pos.Column != 6 {
		t.Errorf("escape error column = %d, want 6", lexErr.Pos.Column)
	}
	if next := l.NextToken(); next.Type != token.EOF {
		t.Errorf("expected EOF after error, got %s", next.Type)
	}
}

func TestNumbers(t *testing.T) {
	input := `42 3.14 0 100.5 7.method`

	expected := []struct {
		typ token.TokenType
		lit string
	}{
		{token.INT, "42"}, {token.FLOAT, "3.14"}, {token.INT, "0"},
		{token.FLOAT, "100.5"}, {token.INT, "7"}, {token.DOT, "."},
		{token.IDENT, "method"},
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ || tok.Literal != exp.lit {
			t.Fatalf("test[%d] - expected %s(%q), got %s(%q)", i, exp.typ, exp.lit, tok.Type, tok.Literal)
		}
	}
}

func TestLineComments(t *testing.T) {
	input := "let x // this is a comment\nlet y"

	l := New(input)

	tok := l.NextToken()
	if tok.Type != token.LET {
		t.Fatalf("expected LET, got %s", tok.Type)
	}

	tok = l.NextToken()
	if tok.Type != token.IDENT || tok.Literal != "x" {
		t.Fatalf("expected x, got %s(%q)", tok.Type, tok.Literal)
	}

	tok = l.NextToken()
	if tok.Type != token.LET {
		t.Fatalf("expected LET after comment, got %s", tok.Type)
	}
	if !tok.Newline {
		t.Error("expected Newline flag on token after comment line")
	}

	tok = l.NextToken()
	if tok.Type != token.IDENT || tok.Literal != "y" {
		t.Fatalf("expected y, got %s(%q)", tok.Type, tok.Literal)
	}
	if tok.Newline {
		t.Error("unexpected Newline flag on same-line token")
	}
}

func TestBlockComments(t *testing.T) {
	l := New("a /* one\n two */ b")

	if tok := l.NextToken(); tok.Literal != "a" {
		t.Fatalf("expected a, got %q", tok.Literal)
	}
	tok := l.NextToken()
	if tok.Literal != "b" || !tok.Newline {
		t.Fatalf("expected b after newline, got %q (newline=%v)", tok.Literal, tok.Newline)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	_, err := Tokenize("x /* never closed")
	if err == nil {
		t.Fatal("expected error")
	}
	lexErr := err.(*errors.LexError)
	if lexErr.Pos.Line != 1 || lexErr.Pos.Column != 3 {
		t.Errorf("error at %s, want 1:3", lexErr.Pos)
	}
}

func TestPositions(t *testing.T) {
	l := New("let x\n  = 10")

	expected := []struct {
		lit       string
		line, col int
	}{
		{"let", 1, 1}, {"x", 1, 5}, {"=", 2, 3}, {"10", 2, 5},
	}
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Literal != exp.lit || tok.Pos.Line != exp.line || tok.Pos.Column != exp.col {
			t.Errorf("test[%d] - expected %q at %d:%d, got %q at %d:%d",
				i, exp.lit, exp.line, exp.col, tok.Literal, tok.Pos.Line, tok.Pos.Column)
		}
	}
}

func TestTemplateSegments(t *testing.T) {
	l := New("`Hello, {name}! {not an ident} \\{x\\}`")

	tok := l.NextToken()
	if tok.Type != token.TEMPLATE {
		t.Fatalf("expected TEMPLATE, got %s", tok.Type)
	}

	expected := []token.Segment{
		{Text: "Hello, "},
		{Text: "name", Ident: true},
		{Text: "! {not an ident} {x}"},
	}
	if len(tok.Segments) != len(expected) {
		t.Fatalf("expected %d segments, got %d: %+v", len(expected), len(tok.Segments), tok.Segments)
	}
	for i, exp := range expected {
		got := tok.Segments[i]
		if got.Text != exp.Text || got.Ident != exp.Ident {
			t.Errorf("segment[%d] = {%q %v}, want {%q %v}", i, got.Text, got.Ident, exp.Text, exp.Ident)
		}
	}
	if tok.Segments[1].Pos.Column != 9 {
		t.Errorf("interpolation column = %d, want 9", tok.Segments[1].Pos.Column)
	}
}

func TestUnterminatedTemplateReportsOpening(t *testing.T) {
	input := "let a = 1\nlet s = `Hello, {name}!\nmore text\n"

	toks, err := Tokenize(input)
	if err == nil {
		t.Fatal("expected LexError for unterminated template")
	}
	lexErr, ok := err.(*errors.LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if lexErr.Pos.Line != 2 || lexErr.Pos.Column != 9 {
		t.Errorf("error at %d:%d, want opening backtick at 2:9", lexErr.Pos.Line, lexErr.Pos.Column)
	}
	if len(toks) != 7 {
		t.Errorf("expected 7 tokens before the error, got %d", len(toks))
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize(`x = "abc`)
	lexErr, ok := err.(*errors.LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if lexErr.Pos.Column != 5 {
		t.Errorf("error column = %d, want 5", lexErr.Pos.Column)
	}
}

func TestNativeBlockKeepsBraces(t *testing.T) {
	native := `
import "strings"

func shout(s string) (string, error) {
	if s == "" { return "", nil }
	m := map[string]int{"}": 1}
	_ = '{'
	// unbalanced } in a comment
	/* and { here */
	return strings.ToUpper(s) + ` + "`}`" + `, nil
}
`
	input := "let x = 1\ngo {" + native + "}\nshout(\"a\")"

	l := New(input)
	for _, exp := range []token.TokenType{token.LET, token.IDENT, token.ASSIGN, token.INT} {
		if tok := l.NextToken(); tok.Type != exp {
			t.Fatalf("expected %s, got %s", exp, tok.Type)
		}
	}

	tok := l.NextToken()
	if tok.Type != token.RAW_GO {
		t.Fatalf("expected RAW_GO, got %s (%v)", tok.Type, l.Err())
	}
	if tok.Literal != native {
		t.Errorf("native block not captured verbatim:\n%q\nwant\n%q", tok.Literal, native)
	}
	if tok.Pos.Line != 2 || tok.Pos.Column != 1 {
		t.Errorf("native block at %d:%d, want 2:1", tok.Pos.Line, tok.Pos.Column)
	}

	if tok := l.NextToken(); tok.Type != token.IDENT || tok.Literal != "shout" {
		t.Fatalf("expected shout after block, got %s(%q)", tok.Type, tok.Literal)
	}
}

func TestGoAsIdentifier(t *testing.T) {
	l := New("go = 3")
	if tok := l.NextToken(); tok.Type != token.IDENT || tok.Literal != "go" {
		t.Fatalf("expected identifier go, got %s(%q)", tok.Type, tok.Literal)
	}
}

func TestUnterminatedNativeBlock(t *testing.T) {
	_, err := Tokenize("go {\n func f() {\n")
	lexErr, ok := err.(*errors.LexError)
	if !ok {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if lexErr.Pos.Line != 1 || lexErr.Pos.Column != 1 {
		t.Errorf("error at %s, want 1:1", lexErr.Pos)
	}
}

func TestIllegalCharacter(t *testing.T) {
	_, err := Tokenize("a # b")
	if err == nil {
		t.Fatal("expected error for '#'")
	}
}
