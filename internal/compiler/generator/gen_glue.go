package generator

import (
	"fmt"
	"strings"

	"github.com/btouchard/gox/internal/compiler/utils"
)

// argConverters maps a bridgeable Go parameter type to the value
// conversion that produces it and the cast applied to the result.
var argConverters = map[string]struct{ fn, cast string }{
	"int":     {"value.AsInt64", "int"},
	"int64":   {"value.AsInt64", ""},
	"float64": {"value.AsFloat64", ""},
	"bool":    {"value.AsBool", ""},
	"string":  {"value.AsString", ""},
}

// BridgeableParam reports whether a native entry may take a parameter of
// Go type typ.
func BridgeableParam(typ string) bool {
	_, ok := argConverters[typ]
	return ok
}

// genGlue wraps every native entry in a value.Builtin and binds it in the
// global scope under the entry's name.
func (g *Generator) genGlue() string {
	var b strings.Builder

	b.WriteString("func goxBindNatives(env *value.Env) {\n")
	for _, e := range g.entries {
		b.WriteString(fmt.Sprintf("\tenv.Define(%q, &value.Builtin{Name: %q, Fn: %s})\n", e.Name, e.Name, glueName(e)))
	}
	b.WriteString("}\n")

	for _, e := range g.entries {
		b.WriteString("\n")
		b.WriteString(g.genEntry(e))
	}
	return b.String()
}

func glueName(e Entry) string {
	return "goxEntry" + utils.ToPascalCase(e.Name)
}

func (g *Generator) genEntry(e Entry) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("func %s(args []value.Value) (value.Value, error) {\n", glueName(e)))
	b.WriteString(fmt.Sprintf("\tif len(args) != %d {\n", len(e.Params)))
	b.WriteString(fmt.Sprintf("\t\treturn nil, gerrors.Arity(%q, %d, len(args))\n", e.Name, len(e.Params)))
	b.WriteString("\t}\n")

	callArgs := make([]string, len(e.Params))
	for i, typ := range e.Params {
		conv := argConverters[typ]
		arg := fmt.Sprintf("a%d", i)
		b.WriteString(fmt.Sprintf("\t%s, err := %s(args[%d])\n", arg, conv.fn, i))
		b.WriteString("\tif err != nil {\n")
		b.WriteString(fmt.Sprintf("\t\treturn nil, bridge.ArgError(%q, %d, err)\n", e.Name, i))
		b.WriteString("\t}\n")
		if conv.cast != "" {
			arg = conv.cast + "(" + arg + ")"
		}
		callArgs[i] = arg
	}
	call := fmt.Sprintf("%s(%s)", e.Name, strings.Join(callArgs, ", "))

	switch {
	case e.Result == "" && e.Error:
		b.WriteString(fmt.Sprintf("\tif err := %s; err != nil {\n", call))
		b.WriteString("\t\treturn nil, gerrors.Runtime(gerrors.Generic, \"%v\", err)\n")
		b.WriteString("\t}\n")
		b.WriteString("\treturn value.Null{}, nil\n")
	case e.Result == "":
		b.WriteString("\t" + call + "\n")
		b.WriteString("\treturn value.Null{}, nil\n")
	default:
		if e.Error {
			b.WriteString(fmt.Sprintf("\tr, err := %s\n", call))
			b.WriteString("\tif err != nil {\n")
			b.WriteString("\t\treturn nil, gerrors.Runtime(gerrors.Generic, \"%v\", err)\n")
			b.WriteString("\t}\n")
		} else {
			b.WriteString(fmt.Sprintf("\tr := %s\n", call))
		}
		b.WriteString("\tv, err := value.FromNative(r)\n")
		b.WriteString("\tif err != nil {\n")
		b.WriteString(fmt.Sprintf("\t\treturn nil, bridge.ResultError(%q, err)\n", e.Name))
		b.WriteString("\t}\n")
		b.WriteString("\treturn v, nil\n")
	}

	b.WriteString("}\n")
	return b.String()
}
