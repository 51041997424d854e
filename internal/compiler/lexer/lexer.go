package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/btouchard/gox/internal/compiler/token"
	"github.com/btouchard/gox/pkg/errors"
)

type Lexer struct {
	input        string
	file         string
	position     int  // current offset in input (bytes)
	readPosition int  // next reading position (bytes)
	ch           rune // current character
	line         int  // current line (1-based)
	column       int  // current column (1-based)
	sawNewline   bool // a line break was skipped since the last token
	err          *errors.LexError
}

func New(input string) *Lexer {
	return NewNamed("", input)
}

// NewNamed creates a lexer whose errors carry the given file name.
func NewNamed(file, input string) *Lexer {
	l := &Lexer{
		input:  input,
		file:   file,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokenize lexes the whole input. It stops at the first malformed token.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		if err := l.Err(); err != nil {
			return toks, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

// Err returns the first lexing error, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// File returns the name used in error positions.
func (l *Lexer) File() string {
	return l.file
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
		if l.ch == '\n' {
			l.line++
			l.column = 0
		}
		l.ch = r
		l.position = l.readPosition
		l.readPosition += size
		l.column++
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.column,
		Offset: l.position,
	}
}

func (l *Lexer) fail(pos token.Position, format string, args ...interface{}) token.Token {
	if l.err == nil {
		l.err = &errors.LexError{
			Pos:     errors.Position{File: l.file, Line: pos.Line, Column: pos.Column},
			Message: fmt.Sprintf(format, args...),
		}
	}
	return token.Token{Type: token.ILLEGAL, Pos: pos}
}

func (l *Lexer) NextToken() token.Token {
	if l.err != nil {
		return token.Token{Type: token.EOF, Pos: l.currentPos()}
	}
	tok := l.next()
	tok.Newline = l.sawNewline
	l.sawNewline = false
	return tok
}

func (l *Lexer) next() token.Token {
	if !l.skipWhitespaceAndComments() {
		return token.Token{Type: token.ILLEGAL, Pos: l.currentPos()}
	}

	pos := l.currentPos()

	var tok token.Token

	switch l.ch {
	case '=':
		switch l.peekChar() {
		case '=':
			return l.twoCharToken(token.EQ, pos)
		case '>':
			return l.twoCharToken(token.ARROW, pos)
		}
		tok = l.makeToken(token.ASSIGN, string(l.ch))
	case '!':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.NOT_EQ, pos)
		}
		tok = l.makeToken(token.BANG, string(l.ch))
	case '&':
		if l.peekChar() == '&' {
			return l.twoCharToken(token.AND, pos)
		}
		return l.fail(pos, "unexpected character '&' (did you mean '&&'?)")
	case '|':
		if l.peekChar() == '|' {
			return l.twoCharToken(token.OR, pos)
		}
		return l.fail(pos, "unexpected character '|' (did you mean '||'?)")
	case '<':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.LT_EQ, pos)
		}
		tok = l.makeToken(token.LT, string(l.ch))
	case '>':
		if l.peekChar() == '=' {
			return l.twoCharToken(token.GT_EQ, pos)
		}
		tok = l.makeToken(token.GT, string(l.ch))
	case '+':
		tok = l.makeToken(token.PLUS, string(l.ch))
	case '-':
		tok = l.makeToken(token.MINUS, string(l.ch))
	case '*':
		tok = l.makeToken(token.ASTERISK, string(l.ch))
	case '/':
		tok = l.makeToken(token.SLASH, string(l.ch))
	case '%':
		tok = l.makeToken(token.PERCENT, string(l.ch))
	case ':':
		tok = l.makeToken(token.COLON, string(l.ch))
	case ';':
		tok = l.makeToken(token.SEMICOLON, string(l.ch))
	case ',':
		tok = l.makeToken(token.COMMA, string(l.ch))
	case '.':
		tok = l.makeToken(token.DOT, string(l.ch))
	case '(':
		tok = l.makeToken(token.LPAREN, string(l.ch))
	case ')':
		tok = l.makeToken(token.RPAREN, string(l.ch))
	case '{':
		tok = l.makeToken(token.LBRACE, string(l.ch))
	case '}':
		tok = l.makeToken(token.RBRACE, string(l.ch))
	case '[':
		tok = l.makeToken(token.LBRACKET, string(l.ch))
	case ']':
		tok = l.makeToken(token.RBRACKET, string(l.ch))
	case '"':
		return l.readString(pos)
	case '`':
		return l.readTemplate(pos)
	case 0:
		tok.Type = token.EOF
		tok.Literal = ""
		tok.Pos = pos
		return tok
	default:
		if isLetter(l.ch) {
			tok.Pos = pos
			tok.Literal = l.readIdentifier()
			if tok.Literal == "go" && l.atNativeBlock() {
				return l.readNativeBlock(pos)
			}
			tok.Type = token.LookupIdent(tok.Literal)
			return tok
		}
		if isDigit(l.ch) {
			tok.Pos = pos
			lit, isFloat := l.readNumber()
			tok.Literal = lit
			if isFloat {
				tok.Type = token.FLOAT
			} else {
				tok.Type = token.INT
			}
			return tok
		}
		return l.fail(pos, "unexpected character %q", l.ch)
	}

	l.readChar()
	return tok
}

func (l *Lexer) makeToken(typ token.TokenType, lit string) token.Token {
	return token.Token{
		Type:    typ,
		Literal: lit,
		Pos:     l.currentPos(),
	}
}

func (l *Lexer) twoCharToken(typ token.TokenType, pos token.Position) token.Token {
	ch := l.ch
	l.readChar()
	tok := token.Token{Type: typ, Literal: string(ch) + string(l.ch), Pos: pos}
	l.readChar()
	return tok
}

// atNativeBlock reports whether only whitespace separates the current
// position from an opening brace.
func (l *Lexer) atNativeBlock() bool {
	rest := strings.TrimLeft(l.input[l.position:], " \t\r\n")
	return strings.HasPrefix(rest, "{")
}

// readNativeBlock captures the Go source between the braces of a
// `go { ... }` block. Braces are counted by depth; braces inside Go
// strings, runes and comments do not count.
func (l *Lexer) readNativeBlock(pos token.Position) token.Token {
	for l.ch != '{' {
		l.readChar()
	}
	l.readChar() // consume {
	start := l.position
	depth := 1

	for {
		switch l.ch {
		case 0:
			return l.fail(pos, "unterminated native block")
		case '"', '\'':
			quote := l.ch
			l.readChar()
			for l.ch != quote && l.ch != 0 && l.ch != '\n' {
				if l.ch == '\\' {
					l.readChar()
				}
				l.readChar()
			}
		case '`':
			l.readChar()
			for l.ch != '`' && l.ch != 0 {
				l.readChar()
			}
		case '/':
			if l.peekChar() == '/' {
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			}
			if l.peekChar() == '*' {
				l.readChar()
				l.readChar()
				for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
					l.readChar()
				}
				l.readChar()
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				content := l.input[start:l.position]
				l.readChar() // consume }
				return token.Token{Type: token.RAW_GO, Literal: content, Pos: pos}
			}
		}
		if l.ch == 0 {
			return l.fail(pos, "unterminated native block")
		}
		l.readChar()
	}
}

// skipWhitespaceAndComments returns false on an unterminated block comment.
func (l *Lexer) skipWhitespaceAndComments() bool {
	for {
		// Skip whitespace
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			if l.ch == '\n' {
				l.sawNewline = true
			}
			l.readChar()
		}

		// Skip single-line comments
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		// Skip multi-line comments
		if l.ch == '/' && l.peekChar() == '*' {
			pos := l.currentPos()
			l.readChar() // consume /
			l.readChar() // consume *
			for {
				if l.ch == 0 {
					l.fail(pos, "unterminated block comment")
					return false
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				if l.ch == '\n' {
					l.sawNewline = true
				}
				l.readChar()
			}
			continue
		}

		return true
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position

	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}

	return l.input[start:l.position]
}

func (l *Lexer) readNumber() (string, bool) {
	start := l.position
	isFloat := false

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar() // consume .
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[start:l.position], isFloat
}

// readEscape decodes the character after a backslash. extra lists the
// characters that may be escaped in addition to the common set.
func (l *Lexer) readEscape(extra string) (rune, bool) {
	switch l.ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '"':
		return l.ch, true
	}
	if l.ch != 0 && strings.ContainsRune(extra, l.ch) {
		return l.ch, true
	}
	return 0, false
}

func (l *Lexer) readString(pos token.Position) token.Token {
	l.readChar() // consume opening "
	var b strings.Builder

	for l.ch != '"' {
		if l.ch == 0 {
			return l.fail(pos, "unterminated string literal")
		}
		if l.ch == '\\' {
			escPos := l.currentPos()
			l.readChar() // consume backslash
			r, ok := l.readEscape("")
			if !ok {
				if l.ch == 0 {
					return l.fail(pos, "unterminated string literal")
				}
				return l.fail(escPos, "unknown escape sequence '\\%c'", l.ch)
			}
			b.WriteRune(r)
		} else {
			b.WriteRune(l.ch)
		}
		l.readChar()
	}

	l.readChar() // consume closing "
	return token.Token{Type: token.STRING, Literal: b.String(), Pos: pos}
}

// readTemplate lexes a backtick string. `{name}` spans become identifier
// segments; any other brace is literal text.
func (l *Lexer) readTemplate(pos token.Position) token.Token {
	l.readChar() // consume opening `
	start := l.position

	var segments []token.Segment
	var text strings.Builder
	textPos := l.currentPos()

	flush := func() {
		if text.Len() > 0 {
			segments = append(segments, token.Segment{Text: text.String(), Pos: textPos})
			text.Reset()
		}
	}

	for l.ch != '`' {
		switch {
		case l.ch == 0:
			return l.fail(pos, "unterminated template string")
		case l.ch == '\\':
			escPos := l.currentPos()
			l.readChar()
			r, ok := l.readEscape("`{}")
			if !ok {
				if l.ch == 0 {
					return l.fail(pos, "unterminated template string")
				}
				return l.fail(escPos, "unknown escape sequence '\\%c'", l.ch)
			}
			if text.Len() == 0 {
				textPos = escPos
			}
			text.WriteRune(r)
			l.readChar()
		case l.ch == '{' && l.interpolationAhead() != "":
			flush()
			name := l.interpolationAhead()
			segPos := l.currentPos()
			for i := 0; i < utf8.RuneCountInString(name)+2; i++ {
				l.readChar()
			}
			segments = append(segments, token.Segment{Text: name, Ident: true, Pos: segPos})
			textPos = l.currentPos()
		default:
			if text.Len() == 0 {
				textPos = l.currentPos()
			}
			text.WriteRune(l.ch)
			l.readChar()
		}
	}
	flush()

	raw := l.input[start:l.position]
	l.readChar() // consume closing `
	return token.Token{Type: token.TEMPLATE, Literal: raw, Pos: pos, Segments: segments}
}

// interpolationAhead returns the identifier of a `{ident}` span starting at
// the current '{', or "" when the brace does not open one.
func (l *Lexer) interpolationAhead() string {
	rest := l.input[l.readPosition:]
	end := strings.IndexByte(rest, '}')
	if end <= 0 {
		return ""
	}
	name := rest[:end]
	for i, r := range name {
		if !isLetter(r) && (i == 0 || !isDigit(r)) {
			return ""
		}
	}
	return name
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
