package value

import (
	"bytes"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

func callBuiltin(t *testing.T, name string, args ...Value) (Value, error) {
	t.Helper()
	env := NewEnv(nil)
	Install(env, &bytes.Buffer{})
	fn, ok := env.Get(name)
	require.True(t, ok, "builtin %s not installed", name)
	return Call(fn, args)
}

func mustBuiltin(t *testing.T, name string, args ...Value) Value {
	t.Helper()
	v, err := callBuiltin(t, name, args...)
	require.NoError(t, err, name)
	return v
}

func double() *Builtin {
	return &Builtin{Name: "double", Fn: func(args []Value) (Value, error) {
		return Binary("*", args[0], Int(2))
	}}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	env := NewEnv(nil)
	Install(env, &out)
	p, _ := env.Get("print")
	_, err := Call(p, []Value{String("a"), Int(1), ints(1, 2)})
	require.NoError(t, err)
	assert.Equal(t, "a 1 [1, 2]\n", out.String())
}

func TestMutatingBuiltins(t *testing.T) {
	a := ints(3, 1, 2)
	got := mustBuiltin(t, "push", a, Int(9))
	assert.Equal(t, "[3, 1, 2, 9]", a.String())
	assert.Same(t, a, got)

	assert.Equal(t, Int(9), mustBuiltin(t, "pop", a))
	assert.Equal(t, "[3, 1, 2]", a.String())

	mustBuiltin(t, "sort", a)
	assert.Equal(t, "[1, 2, 3]", a.String())
	mustBuiltin(t, "reverse", a)
	assert.Equal(t, "[3, 2, 1]", a.String())
	mustBuiltin(t, "insert", a, Int(1), Int(7))
	assert.Equal(t, "[3, 7, 2, 1]", a.String())
	assert.Equal(t, Int(7), mustBuiltin(t, "remove", a, Int(1)))
	mustBuiltin(t, "clear", a)
	assert.Equal(t, "[]", a.String())

	m := NewMap()
	mustBuiltin(t, "set", m, String("k"), Int(1))
	assert.Equal(t, `{"k": 1}`, m.String())
	assert.Equal(t, Int(1), mustBuiltin(t, "remove", m, String("k")))
	assert.Equal(t, 0, m.Len())

	for _, name := range []string{"push", "pop", "insert", "remove", "clear", "sort", "reverse", "set"} {
		assert.True(t, IsMutating(name), name)
	}
	assert.False(t, IsMutating("sorted"))
}

func TestPureBuiltins(t *testing.T) {
	a := ints(3, 1, 2)
	sorted := mustBuiltin(t, "sorted", a)
	assert.Equal(t, "[1, 2, 3]", sorted.String())
	assert.Equal(t, "[3, 1, 2]", a.String())

	rev := mustBuiltin(t, "reversed", a)
	assert.Equal(t, "[2, 1, 3]", rev.String())
	assert.Equal(t, "[3, 1, 2]", a.String())

	assert.Equal(t, "[6, 2, 4]", mustBuiltin(t, "map", a, double()).String())
	assert.Equal(t, "[3, 1, 2]", a.String())
}

func TestBuiltinTable(t *testing.T) {
	tests := []struct {
		name string
		args []Value
		want string
	}{
		{"len", []Value{String("héllo")}, "5"},
		{"type", []Value{Float(1)}, "float"},
		{"str", []Value{ints(1)}, "[1]"},
		{"int", []Value{String(" 42 ")}, "42"},
		{"int", []Value{Float(-2.7)}, "-2"},
		{"float", []Value{Int(2)}, "2"},
		{"range", []Value{Int(3)}, "[0, 1, 2]"},
		{"range", []Value{Int(1), Int(4)}, "[1, 2, 3]"},
		{"range", []Value{Int(5), Int(0), Int(-2)}, "[5, 3, 1]"},
		{"contains", []Value{ints(1, 2), Float(2)}, "true"},
		{"contains", []Value{String("hello"), String("ell")}, "true"},
		{"slice", []Value{ints(1, 2, 3, 4), Int(1), Int(-1)}, "[2, 3]"},
		{"slice", []Value{String("hello"), Int(3)}, "lo"},
		{"join", []Value{ints(1, 2, 3), String("-")}, "1-2-3"},
		{"split", []Value{String("a,b"), String(",")}, "[a, b]"},
		{"trim", []Value{String("  x ")}, "x"},
		{"upper", []Value{String("héllo")}, "HÉLLO"},
		{"lower", []Value{String("ABC")}, "abc"},
		{"abs", []Value{Int(-4)}, "4"},
		{"min", []Value{Int(3), Float(1.5), Int(2)}, "1.5"},
		{"max", []Value{ints(3, 9, 2)}, "9"},
		{"floor", []Value{Float(2.7)}, "2"},
		{"ceil", []Value{Float(2.1)}, "3"},
		{"round", []Value{Float(2.5)}, "3"},
		{"filter", []Value{ints(1, 2, 3, 4), &Builtin{Fn: func(args []Value) (Value, error) {
			return Binary("==", mustMod(args[0]), Int(0))
		}}}, "[2, 4]"},
		{"reduce", []Value{ints(1, 2, 3), &Builtin{Fn: func(args []Value) (Value, error) {
			return Binary("+", args[0], args[1])
		}}}, "6"},
		{"reduce", []Value{NewArray(), &Builtin{Fn: func(args []Value) (Value, error) {
			return Binary("+", args[0], args[1])
		}}, Int(10)}, "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustBuiltin(t, tt.name, tt.args...)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func mustMod(v Value) Value {
	r, _ := Binary("%", v, Int(2))
	return r
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		args []Value
		kind gerrors.RuntimeKind
	}{
		{"range", []Value{Int(0), Int(5), Int(0)}, gerrors.ArgumentError},
		{"len", nil, gerrors.ArgumentError},
		{"len", []Value{Int(1)}, gerrors.TypeMismatch},
		{"pop", []Value{NewArray()}, gerrors.IndexOutOfBounds},
		{"reduce", []Value{NewArray(), double()}, gerrors.ArgumentError},
		{"sorted", []Value{NewArray(Int(1), String("a"))}, gerrors.TypeMismatch},
		{"int", []Value{String("x")}, gerrors.ArgumentError},
		{"map", []Value{ints(1), Int(2)}, gerrors.TypeMismatch},
		{"abs", []Value{Int(math.MinInt64)}, gerrors.ArgumentError},
	}
	for _, tt := range tests {
		_, err := callBuiltin(t, tt.name, tt.args...)
		require.Error(t, err, tt.name)
		assert.Equal(t, tt.kind, runtimeKind(t, err), tt.name)
	}
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()
	assert.Contains(t, names, "print")
	assert.Contains(t, names, "reduce")
	assert.Len(t, names, len(builtins)+1)
}

type recordingCaller struct {
	calls []string
}

func (r *recordingCaller) Call(module, fn string, args []Value) (Value, error) {
	r.calls = append(r.calls, module+"."+fn)
	return Int(len(args)), nil
}

func TestMethodsArePure(t *testing.T) {
	a := ints(3, 1, 2)
	tests := []struct {
		method string
		args   []Value
		want   string
	}{
		{"push", []Value{Int(9)}, "[3, 1, 2, 9]"},
		{"pop", nil, "[3, 1]"},
		{"sort", nil, "[1, 2, 3]"},
		{"reverse", nil, "[2, 1, 3]"},
		{"first", nil, "3"},
		{"last", nil, "2"},
		{"len", nil, "3"},
		{"join", []Value{String("+")}, "3+1+2"},
		{"map", []Value{double()}, "[6, 2, 4]"},
	}
	for _, tt := range tests {
		got, err := CallMethod(a, tt.method, tt.args)
		require.NoError(t, err, tt.method)
		assert.Equal(t, tt.want, got.String(), tt.method)
		assert.Equal(t, "[3, 1, 2]", a.String(), "receiver changed by %s", tt.method)
	}
}

func TestStringAndNumberMethods(t *testing.T) {
	tests := []struct {
		recv   Value
		method string
		args   []Value
		want   string
	}{
		{String("Hello"), "upper", nil, "HELLO"},
		{String("Hello"), "starts_with", []Value{String("He")}, "true"},
		{String("Hello"), "ends_with", []Value{String("x")}, "false"},
		{String("a-b"), "replace", []Value{String("-"), String("+")}, "a+b"},
		{String("a b"), "split", []Value{String(" ")}, "[a, b]"},
		{Float(-2.5), "abs", nil, "2.5"},
		{Float(2.4), "round", nil, "2"},
		{Int(5), "floor", nil, "5"},
	}
	for _, tt := range tests {
		got, err := CallMethod(tt.recv, tt.method, tt.args)
		require.NoError(t, err, tt.method)
		assert.Equal(t, tt.want, got.String(), tt.method)
	}
}

func TestMapMethods(t *testing.T) {
	m := NewMap()
	m.Set("a", Int(1))
	m.Set("twice", double())

	v, err := CallMethod(m, "twice", []Value{Int(4)})
	require.NoError(t, err)
	assert.Equal(t, Int(8), v)

	v, err = CallMethod(m, "has", []Value{String("a")})
	require.NoError(t, err)
	assert.Equal(t, Bool(true), v)

	v, err = CallMethod(m, "get", []Value{String("zz"), Int(0)})
	require.NoError(t, err)
	assert.Equal(t, Int(0), v)

	v, err = CallMethod(m, "keys", nil)
	require.NoError(t, err)
	assert.Equal(t, `[a, twice]`, v.String())
}

func TestUnknownMethod(t *testing.T) {
	_, err := CallMethod(String("x"), "frobnicate", nil)
	require.Error(t, err)
	assert.Equal(t, gerrors.UnknownMethod, runtimeKind(t, err))
	assert.Contains(t, err.Error(), "String has no method 'frobnicate'")
}

func TestModuleDispatch(t *testing.T) {
	rc := &recordingCaller{}
	mod := &Module{Name: "json", Caller: rc}
	v, err := CallMethod(mod, "stringify", []Value{Int(1)})
	require.NoError(t, err)
	assert.Equal(t, Int(1), v)

	member, err := Member(mod, "parse")
	require.NoError(t, err)
	_, err = Call(member, []Value{Int(1), Int(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"json.stringify", "json.parse"}, rc.calls)
}

func TestNativeConversions(t *testing.T) {
	for _, in := range []interface{}{int64(7), int32(7), uint8(7), 7} {
		v, err := FromNative(in)
		require.NoError(t, err)
		assert.Equal(t, Int(7), v)
	}
	v, err := FromNative(map[string]int{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1, "b": 2}`, v.String())

	_, err = FromNative(struct{}{})
	assert.Error(t, err)

	arr := NewArray(Int(1), String("x"), Null{})
	native, err := ToNative(arr)
	require.NoError(t, err)
	if diff := cmp.Diff([]interface{}{int64(1), "x", nil}, native); diff != "" {
		t.Errorf("ToNative mismatch (-want +got):\n%s", diff)
	}

	n, err := AsInt64(Float(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	_, err = AsInt64(String("3"))
	assert.Error(t, err)
	f, err := AsFloat64(Int(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)
}
