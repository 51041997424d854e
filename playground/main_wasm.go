//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"syscall/js"

	"github.com/btouchard/gox/internal/compiler/generator"
	"github.com/btouchard/gox/internal/compiler/parser"
	"github.com/btouchard/gox/internal/interpreter"
	"github.com/btouchard/gox/pkg/modules"
	"github.com/btouchard/gox/pkg/value"
)

func main() {
	js.Global().Set("runGox", js.FuncOf(runGoxWrapper))
	js.Global().Set("transpileGox", js.FuncOf(transpileGoxWrapper))

	// Keep the program alive
	select {}
}

// runGoxWrapper wraps the interpreter with panic recovery
func runGoxWrapper(this js.Value, args []js.Value) (result interface{}) {
	defer func() {
		if r := recover(); r != nil {
			result = js.ValueOf(map[string]interface{}{
				"output": "",
				"value":  "",
				"errors": []interface{}{fmt.Sprintf("panic: %v", r)},
			})
		}
	}()

	if len(args) != 1 {
		return js.ValueOf(map[string]interface{}{
			"output": "",
			"value":  "",
			"errors": []interface{}{"expected 1 argument (source code)"},
		})
	}

	output, val, errs := runGox(args[0].String())
	return js.ValueOf(map[string]interface{}{
		"output": output,
		"value":  val,
		"errors": toJSArray(errs),
	})
}

// runGox interprets a script and returns what it printed, the display
// form of its terminal value and any errors. Imports, native blocks and
// require statements need the CLI.
func runGox(source string) (string, string, []string) {
	prog, err := parser.Parse("playground.gox", source)
	if err != nil {
		return "", "", []string{err.Error()}
	}

	var out bytes.Buffer
	in := interpreter.New(
		interpreter.WithStdout(&out),
		interpreter.WithModules(modules.New(modules.WithStdout(&out))),
	)
	v, err := in.Eval(prog)
	if err != nil {
		return out.String(), "", []string{err.Error()}
	}
	if v == nil || v.Kind() == value.NullKind {
		return out.String(), "", nil
	}
	return out.String(), v.String(), nil
}

func transpileGoxWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) != 1 {
		return js.ValueOf(map[string]interface{}{
			"code":   "",
			"errors": []interface{}{"expected 1 argument (source code)"},
		})
	}
	code, errs := transpileGox(args[0].String())
	return js.ValueOf(map[string]interface{}{
		"code":   code,
		"errors": toJSArray(errs),
	})
}

// transpileGox returns the Go program generated for a script (skip
// resolver - no multi-file support in playground).
func transpileGox(source string) (string, []string) {
	prog, err := parser.Parse("playground.gox", source)
	if err != nil {
		return "", []string{err.Error()}
	}
	res, err := generator.New().Generate(prog)
	if err != nil {
		return "", []string{fmt.Sprintf("generation error: %v", err)}
	}
	return res.GoCode, nil
}

func toJSArray(errs []string) []interface{} {
	arr := make([]interface{}, len(errs))
	for i, e := range errs {
		arr[i] = e
	}
	return arr
}
