package generator

import (
	"strings"
)

// genImports generates the import block. The set is fixed: every
// generated program uses the same runtime packages.
func (g *Generator) genImports() string {
	var b strings.Builder

	b.WriteString("import (\n")
	b.WriteString("\t\"os\"\n\n")
	b.WriteString("\t\"" + RuntimeModule + "/pkg/bridge\"\n")
	b.WriteString("\tgerrors \"" + RuntimeModule + "/pkg/errors\"\n")
	b.WriteString("\t\"" + RuntimeModule + "/pkg/modules\"\n")
	b.WriteString("\t\"" + RuntimeModule + "/pkg/value\"\n")
	b.WriteString(")\n")
	return b.String()
}
