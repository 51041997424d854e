package value

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Casers are stateful, so each call gets its own.
func toUpper(s string) string { return cases.Upper(language.Und).String(s) }
func toLower(s string) string { return cases.Lower(language.Und).String(s) }

type method func(recv Value, args []Value) (Value, error)

var (
	stringMethods = map[string]method{
		"upper": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("upper", args, 0); err != nil {
				return nil, err
			}
			return String(toUpper(string(r.(String)))), nil
		},
		"lower": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("lower", args, 0); err != nil {
				return nil, err
			}
			return String(toLower(string(r.(String)))), nil
		},
		"trim": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("trim", args, 0); err != nil {
				return nil, err
			}
			return String(strings.TrimSpace(string(r.(String)))), nil
		},
		"split": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("split", args, 1); err != nil {
				return nil, err
			}
			sep, err := stringArg("split", args[0])
			if err != nil {
				return nil, err
			}
			return splitString(string(r.(String)), sep), nil
		},
		"len":      lenMethod,
		"contains": containsMethod,
		"starts_with": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("starts_with", args, 1); err != nil {
				return nil, err
			}
			p, err := stringArg("starts_with", args[0])
			if err != nil {
				return nil, err
			}
			return Bool(strings.HasPrefix(string(r.(String)), p)), nil
		},
		"ends_with": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("ends_with", args, 1); err != nil {
				return nil, err
			}
			p, err := stringArg("ends_with", args[0])
			if err != nil {
				return nil, err
			}
			return Bool(strings.HasSuffix(string(r.(String)), p)), nil
		},
		"replace": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("replace", args, 2); err != nil {
				return nil, err
			}
			from, err := stringArg("replace", args[0])
			if err != nil {
				return nil, err
			}
			to, err := stringArg("replace", args[1])
			if err != nil {
				return nil, err
			}
			return String(strings.ReplaceAll(string(r.(String)), from, to)), nil
		},
		"slice": sliceMethod,
	}

	arrayMethods = map[string]method{
		"len":      lenMethod,
		"contains": containsMethod,
		"slice":    sliceMethod,
		"map": func(r Value, args []Value) (Value, error) {
			a, fn, err := callbackArgs("map", append([]Value{r}, args...))
			if err != nil {
				return nil, err
			}
			return MapArray(a, fn)
		},
		"filter": func(r Value, args []Value) (Value, error) {
			a, fn, err := callbackArgs("filter", append([]Value{r}, args...))
			if err != nil {
				return nil, err
			}
			return FilterArray(a, fn)
		},
		"reduce": func(r Value, args []Value) (Value, error) {
			return bReduce(append([]Value{r}, args...))
		},
		"sort":   sortedMethod,
		"sorted": sortedMethod,
		"reverse": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("reverse", args, 0); err != nil {
				return nil, err
			}
			return reversedCopy(r.(*Array)), nil
		},
		"reversed": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("reversed", args, 0); err != nil {
				return nil, err
			}
			return reversedCopy(r.(*Array)), nil
		},
		"push": func(r Value, args []Value) (Value, error) {
			if len(args) == 0 {
				return nil, gerrors.Runtime(gerrors.ArgumentError, "push expects at least 1 argument")
			}
			a := r.(*Array)
			elems := make([]Value, 0, len(a.Elems)+len(args))
			elems = append(elems, a.Elems...)
			return NewArray(append(elems, args...)...), nil
		},
		"pop": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("pop", args, 0); err != nil {
				return nil, err
			}
			a := r.(*Array)
			if len(a.Elems) == 0 {
				return nil, gerrors.Runtime(gerrors.IndexOutOfBounds, "pop from empty array")
			}
			return NewArray(append([]Value{}, a.Elems[:len(a.Elems)-1]...)...), nil
		},
		"join": func(r Value, args []Value) (Value, error) {
			return bJoin(append([]Value{r}, args...))
		},
		"first": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("first", args, 0); err != nil {
				return nil, err
			}
			return Index(r, Int(0))
		},
		"last": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("last", args, 0); err != nil {
				return nil, err
			}
			return Index(r, Int(-1))
		},
	}

	mapMethods = map[string]method{
		"len": lenMethod,
		"keys": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("keys", args, 0); err != nil {
				return nil, err
			}
			return mapKeys(r.(*Map)), nil
		},
		"values": func(r Value, args []Value) (Value, error) {
			if err := checkArgs("values", args, 0); err != nil {
				return nil, err
			}
			return mapValues(r.(*Map)), nil
		},
		"has":      containsMethod,
		"contains": containsMethod,
		"get": func(r Value, args []Value) (Value, error) {
			if err := checkArgRange("get", args, 1, 2); err != nil {
				return nil, err
			}
			key, err := stringArg("get", args[0])
			if err != nil {
				return nil, err
			}
			if v, ok := r.(*Map).Get(key); ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return Null{}, nil
		},
	}

	numberMethods = map[string]method{
		"abs":   numberMethod("abs", Abs),
		"floor": numberMethod("floor", Floor),
		"ceil":  numberMethod("ceil", Ceil),
		"round": numberMethod("round", Round),
	}
)

func lenMethod(r Value, args []Value) (Value, error) {
	if err := checkArgs("len", args, 0); err != nil {
		return nil, err
	}
	n, err := Len(r)
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func containsMethod(r Value, args []Value) (Value, error) {
	if err := checkArgs("contains", args, 1); err != nil {
		return nil, err
	}
	ok, err := Contains(r, args[0])
	if err != nil {
		return nil, err
	}
	return Bool(ok), nil
}

func sliceMethod(r Value, args []Value) (Value, error) {
	if err := checkArgRange("slice", args, 1, 2); err != nil {
		return nil, err
	}
	return Slice(r, args)
}

func sortedMethod(r Value, args []Value) (Value, error) {
	if err := checkArgs("sorted", args, 0); err != nil {
		return nil, err
	}
	return sortedCopy(r.(*Array))
}

func numberMethod(name string, f func(Value) (Value, error)) method {
	return func(r Value, args []Value) (Value, error) {
		if err := checkArgs(name, args, 0); err != nil {
			return nil, err
		}
		return f(r)
	}
}

// CallMethod dispatches recv.name(args) on the receiver's runtime kind.
// A map entry holding a function takes precedence over the map methods;
// a module forwards to its Caller.
func CallMethod(recv Value, name string, args []Value) (Value, error) {
	r := Unwrap(recv)
	var table map[string]method
	switch x := r.(type) {
	case *Module:
		return x.Caller.Call(x.Name, name, args)
	case *NativeHandle:
		if h, ok := x.Ref.(HandleMethods); ok {
			return h.CallMethod(name, args)
		}
		return nil, gerrors.NoMethod(x.Module+"."+x.Type, name)
	case *Map:
		if fn, ok := x.Get(name); ok && Callable(fn) {
			return Call(fn, args)
		}
		table = mapMethods
	case String:
		table = stringMethods
	case *Array:
		table = arrayMethods
	case Int, Float:
		table = numberMethods
	}
	if m, ok := table[name]; ok {
		return m(r, args)
	}
	return nil, gerrors.NoMethod(r.Kind().String(), name)
}
