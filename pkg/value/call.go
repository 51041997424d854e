package value

import (
	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Function is a user-defined function. Body runs in a fresh scope whose
// parent is Closure, the Env the function was defined in.
type Function struct {
	Name    string
	Params  []string
	Closure *Env
	Body    func(env *Env) (Value, error)
}

// Builtin is a function implemented in Go.
type Builtin struct {
	Name     string
	Fn       func(args []Value) (Value, error)
	Mutating bool
}

// Caller dispatches module function calls.
type Caller interface {
	Call(module, fn string, args []Value) (Value, error)
}

// Module is a standard-library module bound by `use`.
type Module struct {
	Name   string
	Caller Caller
}

func (*Function) Kind() Kind { return FunctionKind }
func (*Builtin) Kind() Kind  { return FunctionKind }
func (*Module) Kind() Kind   { return ModuleKind }

func (f *Function) String() string {
	if f.Name == "" {
		return "<function>"
	}
	return "<function " + f.Name + ">"
}

func (b *Builtin) String() string { return "<builtin " + b.Name + ">" }
func (m *Module) String() string  { return "<module " + m.Name + ">" }

// ReturnSignal carries the value of a `return` statement up to the
// enclosing call.
type ReturnSignal struct {
	Value Value
}

func (r *ReturnSignal) Error() string { return "return outside of a function" }

// Callable reports whether v can be invoked.
func Callable(v Value) bool {
	switch Unwrap(v).(type) {
	case *Function, *Builtin:
		return true
	}
	return false
}

// Call invokes fn with args. User functions require an exact argument
// count.
func Call(fn Value, args []Value) (Value, error) {
	switch f := Unwrap(fn).(type) {
	case *Function:
		if len(args) != len(f.Params) {
			return nil, gerrors.Arity(f.Name, len(f.Params), len(args))
		}
		scope := NewEnv(f.Closure)
		for i, p := range f.Params {
			scope.Define(p, args[i])
		}
		v, err := f.Body(scope)
		if err != nil {
			if ret, ok := err.(*ReturnSignal); ok {
				return orNull(ret.Value), nil
			}
			return nil, err
		}
		return orNull(v), nil
	case *Builtin:
		v, err := f.Fn(args)
		if err != nil {
			return nil, err
		}
		return orNull(v), nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s is not callable", fn.Kind())
}

func orNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// Invoke is Call for a call site: callee names the called expression in
// the error raised when fn is not callable.
func Invoke(callee string, fn Value, args []Value) (Value, error) {
	if !Callable(fn) {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s is not callable (found %s)", callee, fn.Kind())
	}
	return Call(fn, args)
}
