package modules

import (
	"os"
	"sort"
	"strings"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

func osModule(o Options) *Module {
	return &Module{Name: "os", Funcs: map[string]Func{
		"env": func(args []value.Value) (value.Value, error) {
			if err := arity("os.env", args, 0); err != nil {
				return nil, err
			}
			environ := os.Environ()
			sort.Strings(environ)
			m := value.NewMap()
			for _, kv := range environ {
				if i := strings.IndexByte(kv, '='); i > 0 {
					m.Set(kv[:i], value.String(kv[i+1:]))
				}
			}
			return m, nil
		},
		"getenv": func(args []value.Value) (value.Value, error) {
			if err := arity("os.getenv", args, 1); err != nil {
				return nil, err
			}
			key, err := stringArg("os.getenv", args[0])
			if err != nil {
				return nil, err
			}
			if v, ok := os.LookupEnv(key); ok {
				return value.String(v), nil
			}
			return value.Null{}, nil
		},
		"args": func(args []value.Value) (value.Value, error) {
			if err := arity("os.args", args, 0); err != nil {
				return nil, err
			}
			out := make([]value.Value, len(o.Args))
			for i, a := range o.Args {
				out[i] = value.String(a)
			}
			return value.NewArray(out...), nil
		},
		"cwd": func(args []value.Value) (value.Value, error) {
			if err := arity("os.cwd", args, 0); err != nil {
				return nil, err
			}
			dir, err := os.Getwd()
			if err != nil {
				return nil, gerrors.Runtime(gerrors.IOError, "os.cwd: %v", err)
			}
			return value.String(dir), nil
		},
	}}
}
