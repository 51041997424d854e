package generator

import (
	"strings"
)

// genMain generates the entry point. The terminal value goes through the
// bridge so a parent gox process can read it back.
func (g *Generator) genMain() string {
	var b strings.Builder

	b.WriteString("func goxRun() (result value.Value, err error) {\n")
	b.WriteString("\tdefer func() {\n")
	b.WriteString("\t\tif r := recover(); r != nil {\n")
	b.WriteString("\t\t\tresult, err = nil, gerrors.Runtime(gerrors.Generic, \"internal error: %v\", r)\n")
	b.WriteString("\t\t}\n")
	b.WriteString("\t}()\n")
	b.WriteString("\treturn goxProgram(goxGlobals())\n")
	b.WriteString("}\n\n")

	b.WriteString("func main() {\n")
	b.WriteString("\tos.Exit(bridge.Finish(goxRun()))\n")
	b.WriteString("}\n")
	return b.String()
}
