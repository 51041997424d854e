package token

type TokenType string

type Position struct {
	Line   int
	Column int
	Offset int
}

// Segment is one span of a template string: literal text or a `{ident}`
// interpolation.
type Segment struct {
	Text  string
	Ident bool
	Pos   Position
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	// Newline reports that a line break separates this token from the
	// previous one.
	Newline  bool
	Segments []Segment
}

const (
	// Special
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	// Identifiers + literals
	IDENT    TokenType = "IDENT"
	INT      TokenType = "INT"
	FLOAT    TokenType = "FLOAT"
	STRING   TokenType = "STRING"
	TEMPLATE TokenType = "TEMPLATE"

	// Operators
	ASSIGN   TokenType = "="
	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	BANG     TokenType = "!"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	ARROW    TokenType = "=>"

	// Comparison
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LT     TokenType = "<"
	GT     TokenType = ">"
	LT_EQ  TokenType = "<="
	GT_EQ  TokenType = ">="

	// Logical
	AND TokenType = "&&"
	OR  TokenType = "||"

	// Delimiters
	COLON     TokenType = ":"
	SEMICOLON TokenType = ";"
	COMMA     TokenType = ","
	DOT       TokenType = "."

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	// Keywords
	FN      TokenType = "FN"
	LET     TokenType = "LET"
	TRUE    TokenType = "TRUE"
	FALSE   TokenType = "FALSE"
	NULL    TokenType = "NULL"
	IF      TokenType = "IF"
	ELSE    TokenType = "ELSE"
	WHILE   TokenType = "WHILE"
	FOR     TokenType = "FOR"
	IN      TokenType = "IN"
	RETURN  TokenType = "RETURN"
	IMPORT  TokenType = "IMPORT"
	USE     TokenType = "USE"
	REQUIRE TokenType = "REQUIRE"
	AS      TokenType = "AS"

	// Native Go block, captured as-is
	RAW_GO TokenType = "RAW_GO"
)

var keywords = map[string]TokenType{
	"fn":      FN,
	"let":     LET,
	"true":    TRUE,
	"false":   FALSE,
	"null":    NULL,
	"if":      IF,
	"else":    ELSE,
	"while":   WHILE,
	"for":     FOR,
	"in":      IN,
	"return":  RETURN,
	"import":  IMPORT,
	"use":     USE,
	"require": REQUIRE,
	"as":      AS,
}

func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether ident is reserved.
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}
