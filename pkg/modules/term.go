package modules

import (
	"fmt"
	"os"

	"golang.org/x/term"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

var ansi = map[string]string{
	"red":       "31",
	"green":     "32",
	"yellow":    "33",
	"blue":      "34",
	"magenta":   "35",
	"cyan":      "36",
	"white":     "37",
	"bold":      "1",
	"dim":       "2",
	"italic":    "3",
	"underline": "4",
}

// Style wraps s in the ANSI sequence for code.
func Style(code, s string) string {
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func termModule(o Options) *Module {
	funcs := map[string]Func{
		"width": func(args []value.Value) (value.Value, error) {
			if err := arity("term.width", args, 0); err != nil {
				return nil, err
			}
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil || w <= 0 {
				w = 80
			}
			return value.Int(w), nil
		},
		"is_tty": func(args []value.Value) (value.Value, error) {
			if err := arity("term.is_tty", args, 0); err != nil {
				return nil, err
			}
			return value.Bool(term.IsTerminal(int(os.Stdout.Fd()))), nil
		},
		"clear": func(args []value.Value) (value.Value, error) {
			if err := arity("term.clear", args, 0); err != nil {
				return nil, err
			}
			if _, err := fmt.Fprint(o.Stdout, "\x1b[2J\x1b[H"); err != nil {
				return nil, gerrors.Runtime(gerrors.IOError, "term.clear: %v", err)
			}
			return value.Null{}, nil
		},
	}
	for name, code := range ansi {
		name, code := name, code
		funcs[name] = func(args []value.Value) (value.Value, error) {
			if err := arity("term."+name, args, 1); err != nil {
				return nil, err
			}
			return value.String(Style(code, args[0].String())), nil
		}
	}
	return &Module{Name: "term", Funcs: funcs}
}
