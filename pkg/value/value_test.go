package value

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

func ints(ns ...int64) *Array {
	elems := make([]Value, len(ns))
	for i, n := range ns {
		elems[i] = Int(n)
	}
	return NewArray(elems...)
}

func runtimeKind(t *testing.T, err error) gerrors.RuntimeKind {
	t.Helper()
	rt, ok := err.(*gerrors.RuntimeError)
	require.True(t, ok, "expected *RuntimeError, got %T (%v)", err, err)
	return rt.Kind
}

func TestDisplay(t *testing.T) {
	m := NewMap()
	m.Set("b", Int(1))
	m.Set("a", String("x"))

	tests := []struct {
		v    Value
		want string
	}{
		{Null{}, "null"},
		{Int(-3), "-3"},
		{Float(2.5), "2.5"},
		{Float(3), "3"},
		{Bool(true), "true"},
		{String("hi"), "hi"},
		{NewArray(Int(1), String("a"), Null{}), "[1, a, null]"},
		{m, `{"b": 1, "a": x}`},
		{&Function{Name: "f"}, "<function f>"},
		{&Function{}, "<function>"},
		{&Compiled{Tag: "int64", Inner: Int(42)}, "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.v.String())
	}
}

func TestTruthy(t *testing.T) {
	falsy := []Value{Null{}, Bool(false), Int(0), Float(0), String(""), NewArray(), NewMap()}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "%s should be falsy", v)
	}
	truthy := []Value{Bool(true), Int(-1), Float(0.1), String("0"), ints(0), &Function{}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "%s should be truthy", v)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1.0)))
	assert.True(t, Equal(ints(1, 2), ints(1, 2)))
	assert.False(t, Equal(ints(1, 2), ints(2, 1)))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.True(t, Equal(Null{}, Null{}))

	a, b := NewMap(), NewMap()
	a.Set("x", Int(1))
	a.Set("y", Int(2))
	b.Set("y", Int(2))
	b.Set("x", Int(1))
	assert.True(t, Equal(a, b))
}

func TestCyclicContainers(t *testing.T) {
	a := ints(1)
	a.Elems = append(a.Elems, a)
	assert.Equal(t, "[1, [...]]", a.String())
	assert.True(t, Equal(a, a))
	assert.True(t, Cyclic(a))

	m := NewMap()
	m.Set("k", Int(1))
	m.Set("self", m)
	assert.Equal(t, `{"k": 1, "self": {...}}`, m.String())
	assert.True(t, Equal(m, m))

	other := NewMap()
	other.Set("k", Int(2))
	other.Set("self", other)
	assert.False(t, Equal(m, other))

	// The same array twice is shared, not cyclic.
	shared := ints(7)
	pair := NewArray(shared, shared)
	assert.Equal(t, "[[7], [7]]", pair.String())
	assert.False(t, Cyclic(pair))

	_, err := ToNative(m)
	assert.Equal(t, gerrors.TypeMismatch, runtimeKind(t, err))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "int", TypeName(Int(1)))
	assert.Equal(t, "string", TypeName(String("")))
	assert.Equal(t, "array", TypeName(NewArray()))
	assert.Equal(t, "function", TypeName(&Builtin{}))
	assert.Equal(t, "int", TypeName(&Compiled{Tag: "int64", Inner: Int(1)}))
}

func TestMapOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", Int(1))
	m.Set("a", Int(2))
	m.Set("z", Int(3))
	assert.Equal(t, []string{"z", "a"}, m.Keys())
	assert.True(t, m.Delete("z"))
	assert.False(t, m.Delete("z"))
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestEnvScoping(t *testing.T) {
	global := NewEnv(nil)
	global.Define("x", Int(1))
	inner := NewEnv(global)

	inner.Set("x", Int(2))
	v, _ := global.Get("x")
	assert.Equal(t, Int(2), v, "Set updates the existing outer binding")

	inner.Set("y", Int(3))
	assert.False(t, global.Has("y"), "Set never creates an outer binding")
	assert.True(t, inner.Has("y"))

	inner.Define("x", Int(9))
	v, _ = global.Get("x")
	assert.Equal(t, Int(2), v, "Define shadows")

	err := inner.Assign("missing", Int(0))
	assert.Equal(t, gerrors.UndefinedVariable, runtimeKind(t, err))

	_, err = inner.Lookup("nope")
	assert.EqualError(t, err, "[runtime] undefined variable: nope")
}

func TestEnvExport(t *testing.T) {
	env := NewEnv(nil)
	Install(env, &bytes.Buffer{})
	env.Define("answer", Int(42))
	m := env.Export()
	assert.Equal(t, []string{"answer"}, m.Keys())
}

func TestCallArityAndReturn(t *testing.T) {
	fn := &Function{
		Name:    "id",
		Params:  []string{"x"},
		Closure: NewEnv(nil),
		Body: func(env *Env) (Value, error) {
			v, _ := env.Get("x")
			return nil, &ReturnSignal{Value: v}
		},
	}
	v, err := Call(fn, []Value{Int(7)})
	require.NoError(t, err)
	assert.Equal(t, Int(7), v)

	_, err = Call(fn, nil)
	assert.Equal(t, gerrors.ArgumentError, runtimeKind(t, err))
	assert.Contains(t, err.Error(), "id expects 1 argument(s), got 0")

	_, err = Call(Int(1), nil)
	assert.Equal(t, gerrors.TypeMismatch, runtimeKind(t, err))
}

func TestClosureCapturesDefiningEnv(t *testing.T) {
	defining := NewEnv(nil)
	defining.Define("count", Int(0))
	inc := &Function{
		Closure: defining,
		Body: func(env *Env) (Value, error) {
			c, _ := env.Get("count")
			n, err := Binary("+", c, Int(1))
			if err != nil {
				return nil, err
			}
			env.Set("count", n)
			return n, nil
		},
	}
	for i := 0; i < 3; i++ {
		_, err := Call(inc, nil)
		require.NoError(t, err)
	}
	v, _ := defining.Get("count")
	assert.Equal(t, Int(3), v)
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		op   string
		l, r Value
		want Value
	}{
		{"/", Int(7), Int(2), Int(3)},
		{"/", Int(-7), Int(2), Int(-3)},
		{"%", Int(7), Int(3), Int(1)},
		{"+", Int(1), Float(0.5), Float(1.5)},
		{"*", Float(2), Int(3), Float(6)},
		{"+", String("a"), Int(1), String("a1")},
		{"+", Int(1), String("a"), String("1a")},
		{"+", ints(1), ints(2), ints(1, 2)},
		{"<", Int(1), Float(1.5), Bool(true)},
		{">=", String("b"), String("a"), Bool(true)},
		{"==", Int(2), Float(2), Bool(true)},
		{"!=", String("a"), String("a"), Bool(false)},
	}
	for _, tt := range tests {
		got, err := Binary(tt.op, tt.l, tt.r)
		require.NoError(t, err, "%s %s %s", tt.l, tt.op, tt.r)
		assert.True(t, Equal(tt.want, got), "%s %s %s = %s, want %s", tt.l, tt.op, tt.r, got, tt.want)
		assert.Equal(t, tt.want.Kind(), got.Kind())
	}
}

func TestArithmeticErrors(t *testing.T) {
	_, err := Binary("/", Int(1), Int(0))
	assert.Equal(t, gerrors.DivisionByZero, runtimeKind(t, err))
	assert.Contains(t, err.Error(), "Division by zero")

	_, err = Binary("%", Int(1), Int(0))
	assert.Equal(t, gerrors.DivisionByZero, runtimeKind(t, err))

	_, err = Binary("%", Float(1), Int(2))
	assert.Equal(t, gerrors.TypeMismatch, runtimeKind(t, err))

	_, err = Binary("-", String("a"), Int(1))
	assert.Equal(t, gerrors.TypeMismatch, runtimeKind(t, err))

	_, err = Binary("<", String("a"), Int(1))
	assert.Equal(t, gerrors.TypeMismatch, runtimeKind(t, err))
}

func TestUnary(t *testing.T) {
	v, err := Unary("-", Int(3))
	require.NoError(t, err)
	assert.Equal(t, Int(-3), v)

	v, err = Unary("!", String(""))
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	_, err = Unary("-", String("x"))
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	a := ints(10, 20, 30)
	v, err := Index(a, Int(-1))
	require.NoError(t, err)
	assert.Equal(t, Int(30), v)

	_, err = Index(a, Int(3))
	assert.Equal(t, gerrors.IndexOutOfBounds, runtimeKind(t, err))

	v, err = Index(String("héllo"), Int(1))
	require.NoError(t, err)
	assert.Equal(t, String("é"), v)

	m := NewMap()
	m.Set("k", Int(1))
	_, err = Index(m, String("missing"))
	assert.Equal(t, gerrors.Generic, runtimeKind(t, err))

	require.NoError(t, SetIndex(a, Int(0), Int(99)))
	assert.Equal(t, "[99, 20, 30]", a.String())
	require.NoError(t, SetIndex(m, String("n"), Int(2)))
	assert.Equal(t, []string{"k", "n"}, m.Keys())
}

func TestIterate(t *testing.T) {
	items, err := Iterate(String("ab"))
	require.NoError(t, err)
	assert.Equal(t, []Value{String("a"), String("b")}, items)

	_, err = Iterate(Int(3))
	assert.Error(t, err)
}

func TestCompiledUnwraps(t *testing.T) {
	c := &Compiled{Tag: "int64", Inner: Int(40)}
	v, err := Binary("+", c, Int(2))
	require.NoError(t, err)
	assert.Equal(t, Int(42), v)
}
