package generator

import (
	"strings"
)

// maxCallDepth matches the interpreter's bound on nested calls.
const maxCallDepth = 10000

// genHelpers generates the runtime support shared by every program
func (g *Generator) genHelpers() string {
	var b strings.Builder

	b.WriteString("// ========== Helper Functions ==========\n\n")

	b.WriteString("var goxRegistry = modules.New(modules.WithArgs(os.Args[1:]))\n\n")

	b.WriteString("// goxAt positions a runtime error at a script location\n")
	b.WriteString("func goxAt(err error, file string, line, col int) error {\n")
	b.WriteString("\treturn gerrors.WithPos(err, gerrors.Position{File: file, Line: line, Column: col})\n")
	b.WriteString("}\n\n")

	b.WriteString("var goxDepth int\n\n")
	b.WriteString("func goxEnter() error {\n")
	b.WriteString("\tif goxDepth >= " + itoa(maxCallDepth) + " {\n")
	b.WriteString("\t\treturn gerrors.Runtime(gerrors.Generic, \"maximum call depth of %d exceeded\", " + itoa(maxCallDepth) + ")\n")
	b.WriteString("\t}\n")
	b.WriteString("\tgoxDepth++\n")
	b.WriteString("\treturn nil\n")
	b.WriteString("}\n\n")
	b.WriteString("func goxLeave() { goxDepth-- }\n\n")

	b.WriteString("// goxN and goxF keep literal arithmetic out of constant folding\n")
	b.WriteString("func goxN(n int64) int64 { return n }\n\n")
	b.WriteString("func goxF(f float64) float64 { return f }\n\n")

	b.WriteString("// goxGlobals returns a fresh top-level scope\n")
	b.WriteString("func goxGlobals() *value.Env {\n")
	b.WriteString("\tenv := value.NewEnv(nil)\n")
	b.WriteString("\tvalue.Install(env, os.Stdout)\n")
	b.WriteString("\tgoxBindNatives(env)\n")
	b.WriteString("\treturn env\n")
	b.WriteString("}\n")
	return b.String()
}
