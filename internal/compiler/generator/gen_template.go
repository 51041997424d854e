package generator

import (
	"strings"

	"github.com/btouchard/gox/internal/compiler/ast"
)

// genTemplate lowers a template literal to a string concatenation. Each
// identifier segment is looked up when the literal is evaluated.
func (g *Generator) genTemplate(e *ast.TemplateLit) (string, error) {
	var parts []string
	for _, part := range e.Parts {
		if !part.Ident {
			if part.Text != "" {
				parts = append(parts, quote(part.Text))
			}
			continue
		}
		t := g.temp()
		g.emitLine("%s, err := %s.Lookup(%s)", t, g.env, quote(part.Text))
		g.checkErr(part.Pos)
		parts = append(parts, t+".String()")
	}
	if len(parts) == 0 {
		return `value.String("")`, nil
	}
	return "value.String(" + strings.Join(parts, " + ") + ")", nil
}
