// Package formatter normalizes the layout of Gox source: two-space
// indentation by bracket depth, trimmed trailing space, at most one blank
// line in a row. Native blocks are run through gofmt.
package formatter

import (
	"go/format"
	"strings"

	"github.com/btouchard/gox/internal/compiler/lexer"
	"github.com/btouchard/gox/internal/compiler/token"
)

const indentUnit = "  "

// nativeSpan is the line range of a `go { ... }` block, both ends
// included.
type nativeSpan struct {
	start, end int
	code       string
}

// Source formats src. Source that does not lex is returned unchanged
// together with the lexer error.
func Source(src string) (string, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return src, err
	}
	spans := make(map[int]nativeSpan)
	for _, tok := range toks {
		if tok.Type == token.RAW_GO {
			spans[tok.Pos.Line] = nativeSpan{
				start: tok.Pos.Line,
				end:   tok.Pos.Line + strings.Count(tok.Literal, "\n"),
				code:  tok.Literal,
			}
		}
	}

	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var out []string
	var st scanState
	depth := 0

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if st.template || st.comment {
			out = append(out, strings.TrimRight(line, " \t"))
			depth += st.scan(line).net
			continue
		}

		trimmed := strings.TrimSpace(line)
		if span, ok := spans[lineNo]; ok && span.end <= len(lines) {
			indent := strings.Repeat(indentUnit, depth)
			if trimmed == "go {" && strings.TrimSpace(lines[span.end-1]) == "}" {
				out = append(out, indent+"go {")
				for _, l := range nativeBody(span.code) {
					if l == "" {
						out = append(out, "")
						continue
					}
					out = append(out, indent+indentUnit+l)
				}
				out = append(out, indent+"}")
			} else {
				// Anything sharing a line with the block is left alone.
				for j := span.start; j <= span.end; j++ {
					out = append(out, strings.TrimRight(lines[j-1], " \t"))
				}
			}
			i = span.end - 1
			continue
		}

		if trimmed == "" {
			out = append(out, "")
			continue
		}
		res := st.scan(trimmed)
		level := depth - res.leadingClose
		if level < 0 {
			level = 0
		}
		out = append(out, strings.Repeat(indentUnit, level)+trimmed)
		depth += res.net
		if depth < 0 {
			depth = 0
		}
	}

	return collapseBlankLines(out), nil
}

// nativeBody is the gofmt'ed text of a native block, one entry per line.
// Code gofmt rejects is kept as written.
func nativeBody(code string) []string {
	var body string
	if formatted, err := format.Source([]byte("package main\n" + code)); err == nil {
		body = strings.TrimPrefix(string(formatted), "package main\n")
	} else {
		body = dedent(code)
	}
	body = strings.Trim(body, "\n")
	if body == "" {
		return nil
	}
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		tabs := len(l) - len(strings.TrimLeft(l, "\t"))
		lines[i] = strings.Repeat(indentUnit, tabs) + strings.TrimRight(l[tabs:], " \t")
	}
	return lines
}

// dedent removes the indentation common to every non-blank line.
func dedent(code string) string {
	lines := strings.Split(code, "\n")
	least := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if least < 0 || n < least {
			least = n
		}
	}
	for i, l := range lines {
		if least > 0 && len(l) >= least {
			lines[i] = l[least:]
		}
	}
	return strings.Join(lines, "\n")
}

func collapseBlankLines(lines []string) string {
	var b strings.Builder
	blank := true // drops leading blank lines
	for _, l := range lines {
		if l == "" {
			if blank {
				continue
			}
			blank = true
			b.WriteString("\n")
			continue
		}
		blank = false
		b.WriteString(l)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// scanState carries multi-line constructs from one line to the next.
type scanState struct {
	template bool // inside a backtick string
	comment  bool // inside /* */
}

type lineResult struct {
	net          int // brackets opened minus brackets closed
	leadingClose int // closers before any other token
}

// scan counts the brackets of line outside strings and comments.
func (st *scanState) scan(line string) lineResult {
	var res lineResult
	leading := true
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		ch := rs[i]
		switch {
		case st.comment:
			if ch == '*' && i+1 < len(rs) && rs[i+1] == '/' {
				st.comment = false
				i++
			}
			continue
		case st.template:
			if ch == '\\' {
				i++
			} else if ch == '`' {
				st.template = false
			}
			continue
		}

		switch ch {
		case ' ', '\t':
			continue
		case '/':
			if i+1 < len(rs) && rs[i+1] == '/' {
				return res
			}
			if i+1 < len(rs) && rs[i+1] == '*' {
				st.comment = true
				i++
				continue
			}
		case '"':
			for i++; i < len(rs) && rs[i] != '"'; i++ {
				if rs[i] == '\\' {
					i++
				}
			}
		case '`':
			st.template = true
		case '{', '[', '(':
			res.net++
		case '}', ']', ')':
			res.net--
			if leading {
				res.leadingClose++
				continue
			}
		}
		leading = false
	}
	return res
}
