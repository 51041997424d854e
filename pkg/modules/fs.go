package modules

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/util"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

func fsModule(o Options) *Module {
	resolve := func(name string, args []value.Value, n int) (string, error) {
		if err := arity(name, args, n); err != nil {
			return "", err
		}
		p, err := stringArg(name, args[0])
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(o.Dir, p)
		}
		return p, nil
	}
	ioErr := func(name string, err error) error {
		return gerrors.Runtime(gerrors.IOError, "%s: %v", name, err)
	}

	return &Module{Name: "fs", Funcs: map[string]Func{
		"read": func(args []value.Value) (value.Value, error) {
			p, err := resolve("fs.read", args, 1)
			if err != nil {
				return nil, err
			}
			data, err := util.ReadFile(o.FS, p)
			if err != nil {
				return nil, ioErr("fs.read", err)
			}
			return value.String(data), nil
		},
		"write": func(args []value.Value) (value.Value, error) {
			p, err := resolve("fs.write", args, 2)
			if err != nil {
				return nil, err
			}
			s, err := stringArg("fs.write", args[1])
			if err != nil {
				return nil, err
			}
			if err := util.WriteFile(o.FS, p, []byte(s), 0o644); err != nil {
				return nil, ioErr("fs.write", err)
			}
			return value.Null{}, nil
		},
		"append": func(args []value.Value) (value.Value, error) {
			p, err := resolve("fs.append", args, 2)
			if err != nil {
				return nil, err
			}
			s, err := stringArg("fs.append", args[1])
			if err != nil {
				return nil, err
			}
			f, err := o.FS.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, ioErr("fs.append", err)
			}
			defer f.Close()
			if _, err := io.WriteString(f, s); err != nil {
				return nil, ioErr("fs.append", err)
			}
			return value.Null{}, nil
		},
		"exists": func(args []value.Value) (value.Value, error) {
			p, err := resolve("fs.exists", args, 1)
			if err != nil {
				return nil, err
			}
			_, err = o.FS.Stat(p)
			return value.Bool(err == nil), nil
		},
		"remove": func(args []value.Value) (value.Value, error) {
			p, err := resolve("fs.remove", args, 1)
			if err != nil {
				return nil, err
			}
			if err := o.FS.Remove(p); err != nil {
				return nil, ioErr("fs.remove", err)
			}
			return value.Null{}, nil
		},
	}}
}
