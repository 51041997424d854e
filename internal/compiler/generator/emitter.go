package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btouchard/gox/internal/compiler/token"
)

const nullExpr = "value.Null{}"

func (g *Generator) emit(format string, args ...interface{}) {
	g.buf.WriteString(fmt.Sprintf(format, args...))
}

func (g *Generator) emitIndent() {
	g.buf.WriteString(strings.Repeat("\t", g.indent))
}

// emitLine writes one indented line.
func (g *Generator) emitLine(format string, args ...interface{}) {
	g.emitIndent()
	g.emit(format, args...)
	g.emit("\n")
}

// emitLineComment marks the Go code that follows as coming from the
// given script line. BuildSourceMap reads these markers back.
func (g *Generator) emitLineComment(line int) {
	g.emitLine("%s%s:%d", lineMarker, g.file, line)
}

// temp allocates a fresh Go variable name.
func (g *Generator) temp() string {
	g.temps++
	return "t" + strconv.Itoa(g.temps)
}

// openScope declares a child scope of the current one and makes it
// current. The returned function restores the previous scope.
func (g *Generator) openScope() func() {
	g.envs++
	name := "env" + strconv.Itoa(g.envs)
	g.emitLine("%s := value.NewEnv(%s)", name, g.env)
	g.emitLine("_ = %s", name)
	prev := g.env
	g.env = name
	return func() { g.env = prev }
}

// checkErr returns err from the enclosing function, positioned at pos.
func (g *Generator) checkErr(pos token.Position) {
	g.emitLine("if err != nil {")
	g.indent++
	g.emitLine("return nil, %s", g.at("err", pos))
	g.indent--
	g.emitLine("}")
}

func (g *Generator) at(errExpr string, pos token.Position) string {
	return fmt.Sprintf("goxAt(%s, %s, %d, %d)", errExpr, strconv.Quote(g.file), pos.Line, pos.Column)
}

// discard marks an unused value as used.
func (g *Generator) discard(v string) {
	if v != nullExpr {
		g.emitLine("_ = %s", v)
	}
}

func quote(s string) string { return strconv.Quote(s) }
func itoa(n int) string { return strconv.Itoa(n) }
