package value

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Mutating built-ins change the Array or Map passed as their first
// argument: push, pop, insert, remove, clear, sort, reverse and set. They
// exist only in call form. Every other built-in, and every method-form
// call such as a.push(1) or a.sort(), returns a new value and leaves its
// receiver untouched.
var mutating = map[string]bool{
	"push":    true,
	"pop":     true,
	"insert":  true,
	"remove":  true,
	"clear":   true,
	"sort":    true,
	"reverse": true,
	"set":     true,
}

// IsMutating reports whether the named built-in mutates its argument.
func IsMutating(name string) bool { return mutating[name] }

type builtinFn func(args []Value) (Value, error)

var builtins map[string]builtinFn

func init() {
	builtins = map[string]builtinFn{
		"len":      bLen,
		"type":     bType,
		"str":      bStr,
		"int":      bInt,
		"float":    bFloat,
		"range":    bRange,
		"push":     bPush,
		"pop":      bPop,
		"insert":   bInsert,
		"remove":   bRemove,
		"clear":    bClear,
		"sort":     bSort,
		"reverse":  bReverse,
		"set":      bSet,
		"sorted":   bSorted,
		"reversed": bReversed,
		"keys":     bKeys,
		"values":   bValues,
		"contains": bContains,
		"slice":    bSlice,
		"join":     bJoin,
		"split":    bSplit,
		"trim":     bTrim,
		"upper":    bUpper,
		"lower":    bLower,
		"abs":      bAbs,
		"min":      bMin,
		"max":      bMax,
		"floor":    bFloor,
		"ceil":     bCeil,
		"round":    bRound,
		"map":      bMap,
		"filter":   bFilter,
		"reduce":   bReduce,
	}
}

// BuiltinNames lists every built-in, print included, in lexical order.
func BuiltinNames() []string {
	names := []string{"print"}
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install defines the built-ins in env. print writes to out.
func Install(env *Env, out io.Writer) {
	env.Define("print", &Builtin{Name: "print", Fn: func(args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		if _, err := fmt.Fprintln(out, strings.Join(parts, " ")); err != nil {
			return nil, gerrors.Runtime(gerrors.IOError, "print: %v", err)
		}
		return Null{}, nil
	}})
	for name, fn := range builtins {
		env.Define(name, &Builtin{Name: name, Fn: fn, Mutating: mutating[name]})
	}
}

func checkArgs(name string, args []Value, n int) error {
	if len(args) != n {
		return gerrors.Arity(name, n, len(args))
	}
	return nil
}

func checkArgRange(name string, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return gerrors.Runtime(gerrors.ArgumentError, "%s expects %d to %d arguments, got %d", name, min, max, len(args))
	}
	return nil
}

func arrayArg(name string, v Value) (*Array, error) {
	a, ok := Unwrap(v).(*Array)
	if !ok {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s expects Array, found %s", name, v.Kind())
	}
	return a, nil
}

func mapArg(name string, v Value) (*Map, error) {
	m, ok := Unwrap(v).(*Map)
	if !ok {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s expects Map, found %s", name, v.Kind())
	}
	return m, nil
}

func stringArg(name string, v Value) (string, error) {
	s, ok := Unwrap(v).(String)
	if !ok {
		return "", gerrors.Runtime(gerrors.TypeMismatch, "%s expects String, found %s", name, v.Kind())
	}
	return string(s), nil
}

func intArg(name string, v Value) (int64, error) {
	i, ok := Unwrap(v).(Int)
	if !ok {
		return 0, gerrors.Runtime(gerrors.TypeMismatch, "%s expects Int, found %s", name, v.Kind())
	}
	return int64(i), nil
}

// Len is the length of a string in characters, or of an array or map.
func Len(v Value) (int, error) {
	switch x := Unwrap(v).(type) {
	case String:
		return len([]rune(string(x))), nil
	case *Array:
		return len(x.Elems), nil
	case *Map:
		return x.Len(), nil
	}
	return 0, gerrors.Runtime(gerrors.TypeMismatch, "%s has no length", v.Kind())
}

func bLen(args []Value) (Value, error) {
	if err := checkArgs("len", args, 1); err != nil {
		return nil, err
	}
	n, err := Len(args[0])
	if err != nil {
		return nil, err
	}
	return Int(n), nil
}

func bType(args []Value) (Value, error) {
	if err := checkArgs("type", args, 1); err != nil {
		return nil, err
	}
	return String(TypeName(args[0])), nil
}

func bStr(args []Value) (Value, error) {
	if err := checkArgs("str", args, 1); err != nil {
		return nil, err
	}
	return String(args[0].String()), nil
}

func bInt(args []Value) (Value, error) {
	if err := checkArgs("int", args, 1); err != nil {
		return nil, err
	}
	switch x := Unwrap(args[0]).(type) {
	case Int:
		return x, nil
	case Float:
		return Int(int64(x)), nil
	case Bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(x)), 10, 64)
		if err != nil {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "cannot convert %q to Int", string(x))
		}
		return Int(n), nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot convert %s to Int", args[0].Kind())
}

func bFloat(args []Value) (Value, error) {
	if err := checkArgs("float", args, 1); err != nil {
		return nil, err
	}
	switch x := Unwrap(args[0]).(type) {
	case Int:
		return Float(x), nil
	case Float:
		return x, nil
	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "cannot convert %q to Float", string(x))
		}
		return Float(f), nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot convert %s to Float", args[0].Kind())
}

func bRange(args []Value) (Value, error) {
	if err := checkArgRange("range", args, 1, 3); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for i, a := range args {
		n, err := intArg("range", a)
		if err != nil {
			return nil, err
		}
		bounds[i] = n
	}
	var start, end, step int64 = 0, 0, 1
	switch len(bounds) {
	case 1:
		end = bounds[0]
	case 2:
		start, end = bounds[0], bounds[1]
	case 3:
		start, end, step = bounds[0], bounds[1], bounds[2]
	}
	if step == 0 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "range step cannot be zero")
	}
	out := []Value{}
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		out = append(out, Int(i))
	}
	return NewArray(out...), nil
}

// push(a, v) appends in place and returns a.
func bPush(args []Value) (Value, error) {
	if len(args) < 2 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "push expects an array and at least one value, got %d argument(s)", len(args))
	}
	a, err := arrayArg("push", args[0])
	if err != nil {
		return nil, err
	}
	a.Elems = append(a.Elems, args[1:]...)
	return a, nil
}

// pop(a) removes and returns the last element.
func bPop(args []Value) (Value, error) {
	if err := checkArgs("pop", args, 1); err != nil {
		return nil, err
	}
	a, err := arrayArg("pop", args[0])
	if err != nil {
		return nil, err
	}
	if len(a.Elems) == 0 {
		return nil, gerrors.Runtime(gerrors.IndexOutOfBounds, "pop from empty array")
	}
	last := a.Elems[len(a.Elems)-1]
	a.Elems = a.Elems[:len(a.Elems)-1]
	return last, nil
}

func bInsert(args []Value) (Value, error) {
	if err := checkArgs("insert", args, 3); err != nil {
		return nil, err
	}
	a, err := arrayArg("insert", args[0])
	if err != nil {
		return nil, err
	}
	i, err := intArg("insert", args[1])
	if err != nil {
		return nil, err
	}
	n := int64(len(a.Elems))
	if i < 0 {
		i += n
	}
	if i < 0 || i > n {
		return nil, gerrors.Runtime(gerrors.IndexOutOfBounds, "insert index %d out of bounds for length %d", i, n)
	}
	a.Elems = append(a.Elems, nil)
	copy(a.Elems[i+1:], a.Elems[i:])
	a.Elems[i] = args[2]
	return a, nil
}

// remove(a, i) deletes and returns an element; remove(m, k) deletes a key
// and returns its value.
func bRemove(args []Value) (Value, error) {
	if err := checkArgs("remove", args, 2); err != nil {
		return nil, err
	}
	switch c := Unwrap(args[0]).(type) {
	case *Array:
		i, err := arrayIndex(len(c.Elems), args[1])
		if err != nil {
			return nil, err
		}
		v := c.Elems[i]
		c.Elems = append(c.Elems[:i], c.Elems[i+1:]...)
		return v, nil
	case *Map:
		key, err := stringArg("remove", args[1])
		if err != nil {
			return nil, err
		}
		v, ok := c.Get(key)
		if !ok {
			return nil, gerrors.Runtime(gerrors.Generic, "key %q not found", key)
		}
		c.Delete(key)
		return v, nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "remove expects Array or Map, found %s", args[0].Kind())
}

func bClear(args []Value) (Value, error) {
	if err := checkArgs("clear", args, 1); err != nil {
		return nil, err
	}
	switch c := Unwrap(args[0]).(type) {
	case *Array:
		c.Elems = []Value{}
		return c, nil
	case *Map:
		c.Clear()
		return c, nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "clear expects Array or Map, found %s", args[0].Kind())
}

// SortValues sorts elems in place. Elements must all be numbers or all be
// strings.
func SortValues(elems []Value) error {
	var err error
	sort.SliceStable(elems, func(i, j int) bool {
		if err != nil {
			return false
		}
		c, cerr := Compare(elems[i], elems[j])
		if cerr != nil {
			err = cerr
			return false
		}
		return c < 0
	})
	return err
}

func bSort(args []Value) (Value, error) {
	if err := checkArgs("sort", args, 1); err != nil {
		return nil, err
	}
	a, err := arrayArg("sort", args[0])
	if err != nil {
		return nil, err
	}
	sorted := append([]Value(nil), a.Elems...)
	if err := SortValues(sorted); err != nil {
		return nil, err
	}
	copy(a.Elems, sorted)
	return a, nil
}

func reverseValues(elems []Value) {
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
}

func bReverse(args []Value) (Value, error) {
	if err := checkArgs("reverse", args, 1); err != nil {
		return nil, err
	}
	a, err := arrayArg("reverse", args[0])
	if err != nil {
		return nil, err
	}
	reverseValues(a.Elems)
	return a, nil
}

func bSet(args []Value) (Value, error) {
	if err := checkArgs("set", args, 3); err != nil {
		return nil, err
	}
	m, err := mapArg("set", args[0])
	if err != nil {
		return nil, err
	}
	key, err := stringArg("set", args[1])
	if err != nil {
		return nil, err
	}
	m.Set(key, args[2])
	return m, nil
}

func bSorted(args []Value) (Value, error) {
	if err := checkArgs("sorted", args, 1); err != nil {
		return nil, err
	}
	a, err := arrayArg("sorted", args[0])
	if err != nil {
		return nil, err
	}
	return sortedCopy(a)
}

func sortedCopy(a *Array) (Value, error) {
	elems := append([]Value{}, a.Elems...)
	if err := SortValues(elems); err != nil {
		return nil, err
	}
	return NewArray(elems...), nil
}

func bReversed(args []Value) (Value, error) {
	if err := checkArgs("reversed", args, 1); err != nil {
		return nil, err
	}
	switch x := Unwrap(args[0]).(type) {
	case *Array:
		return reversedCopy(x), nil
	case String:
		runes := []rune(string(x))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return String(runes), nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "reversed expects Array or String, found %s", args[0].Kind())
}

func reversedCopy(a *Array) *Array {
	elems := append([]Value{}, a.Elems...)
	reverseValues(elems)
	return NewArray(elems...)
}

func bKeys(args []Value) (Value, error) {
	if err := checkArgs("keys", args, 1); err != nil {
		return nil, err
	}
	m, err := mapArg("keys", args[0])
	if err != nil {
		return nil, err
	}
	return mapKeys(m), nil
}

func mapKeys(m *Map) *Array {
	keys := m.Keys()
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = String(k)
	}
	return NewArray(out...)
}

func bValues(args []Value) (Value, error) {
	if err := checkArgs("values", args, 1); err != nil {
		return nil, err
	}
	m, err := mapArg("values", args[0])
	if err != nil {
		return nil, err
	}
	return mapValues(m), nil
}

func mapValues(m *Map) *Array {
	out := make([]Value, 0, m.Len())
	m.Each(func(_ string, v Value) {
		out = append(out, v)
	})
	return NewArray(out...)
}

// Contains tests array membership, substring presence or a map key.
func Contains(container, item Value) (bool, error) {
	switch c := Unwrap(container).(type) {
	case *Array:
		for _, e := range c.Elems {
			if Equal(e, item) {
				return true, nil
			}
		}
		return false, nil
	case String:
		s, err := stringArg("contains", item)
		if err != nil {
			return false, err
		}
		return strings.Contains(string(c), s), nil
	case *Map:
		key, err := stringArg("contains", item)
		if err != nil {
			return false, err
		}
		_, ok := c.Get(key)
		return ok, nil
	}
	return false, gerrors.Runtime(gerrors.TypeMismatch, "contains expects Array, String or Map, found %s", container.Kind())
}

func bContains(args []Value) (Value, error) {
	if err := checkArgs("contains", args, 2); err != nil {
		return nil, err
	}
	ok, err := Contains(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return Bool(ok), nil
}

func bSlice(args []Value) (Value, error) {
	if err := checkArgRange("slice", args, 2, 3); err != nil {
		return nil, err
	}
	return Slice(args[0], args[1:])
}

// Slice returns v[start:end] for an array or string. Bounds may be
// negative and are clamped to the length.
func Slice(v Value, bounds []Value) (Value, error) {
	n, err := Len(v)
	if err != nil {
		return nil, err
	}
	clamp := func(b Value) (int, error) {
		i, err := intArg("slice", b)
		if err != nil {
			return 0, err
		}
		if i < 0 {
			i += int64(n)
		}
		if i < 0 {
			i = 0
		}
		if i > int64(n) {
			i = int64(n)
		}
		return int(i), nil
	}
	start, end := 0, n
	if len(bounds) > 0 {
		if start, err = clamp(bounds[0]); err != nil {
			return nil, err
		}
	}
	if len(bounds) > 1 {
		if end, err = clamp(bounds[1]); err != nil {
			return nil, err
		}
	}
	if end < start {
		end = start
	}
	switch x := Unwrap(v).(type) {
	case *Array:
		return NewArray(append([]Value{}, x.Elems[start:end]...)...), nil
	case String:
		return String([]rune(string(x))[start:end]), nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "slice expects Array or String, found %s", v.Kind())
}

func bJoin(args []Value) (Value, error) {
	if err := checkArgRange("join", args, 1, 2); err != nil {
		return nil, err
	}
	a, err := arrayArg("join", args[0])
	if err != nil {
		return nil, err
	}
	sep := ""
	if len(args) == 2 {
		if sep, err = stringArg("join", args[1]); err != nil {
			return nil, err
		}
	}
	return joinArray(a, sep), nil
}

func joinArray(a *Array, sep string) String {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.String()
	}
	return String(strings.Join(parts, sep))
}

func bSplit(args []Value) (Value, error) {
	if err := checkArgs("split", args, 2); err != nil {
		return nil, err
	}
	s, err := stringArg("split", args[0])
	if err != nil {
		return nil, err
	}
	sep, err := stringArg("split", args[1])
	if err != nil {
		return nil, err
	}
	return splitString(s, sep), nil
}

func splitString(s, sep string) *Array {
	parts := strings.Split(s, sep)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return NewArray(out...)
}

func bTrim(args []Value) (Value, error) {
	if err := checkArgs("trim", args, 1); err != nil {
		return nil, err
	}
	s, err := stringArg("trim", args[0])
	if err != nil {
		return nil, err
	}
	return String(strings.TrimSpace(s)), nil
}

func bUpper(args []Value) (Value, error) {
	if err := checkArgs("upper", args, 1); err != nil {
		return nil, err
	}
	s, err := stringArg("upper", args[0])
	if err != nil {
		return nil, err
	}
	return String(toUpper(s)), nil
}

func bLower(args []Value) (Value, error) {
	if err := checkArgs("lower", args, 1); err != nil {
		return nil, err
	}
	s, err := stringArg("lower", args[0])
	if err != nil {
		return nil, err
	}
	return String(toLower(s)), nil
}

func numberArg(name string, v Value) (Value, error) {
	switch x := Unwrap(v).(type) {
	case Int, Float:
		return x, nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s expects a number, found %s", name, v.Kind())
}

// Abs, Floor, Ceil and Round leave Ints unchanged; the rounding functions
// turn Floats into Ints.
func Abs(v Value) (Value, error) {
	n, err := numberArg("abs", v)
	if err != nil {
		return nil, err
	}
	if i, ok := n.(Int); ok {
		if i == math.MinInt64 {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "abs: %d has no Int absolute value", i)
		}
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	return Float(math.Abs(float64(n.(Float)))), nil
}

func rounding(name string, v Value, f func(float64) float64) (Value, error) {
	n, err := numberArg(name, v)
	if err != nil {
		return nil, err
	}
	if i, ok := n.(Int); ok {
		return i, nil
	}
	return Int(int64(f(float64(n.(Float))))), nil
}

func Floor(v Value) (Value, error) { return rounding("floor", v, math.Floor) }
func Ceil(v Value) (Value, error)  { return rounding("ceil", v, math.Ceil) }
func Round(v Value) (Value, error) { return rounding("round", v, math.Round) }

func unaryNumeric(name string, f func(Value) (Value, error)) builtinFn {
	return func(args []Value) (Value, error) {
		if err := checkArgs(name, args, 1); err != nil {
			return nil, err
		}
		return f(args[0])
	}
}

var (
	bAbs   = unaryNumeric("abs", Abs)
	bFloor = unaryNumeric("floor", Floor)
	bCeil  = unaryNumeric("ceil", Ceil)
	bRound = unaryNumeric("round", Round)
)

func extremum(name string, args []Value, want int) (Value, error) {
	candidates := args
	if len(args) == 1 {
		a, err := arrayArg(name, args[0])
		if err != nil {
			return nil, err
		}
		candidates = a.Elems
	}
	if len(candidates) == 0 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "%s of an empty array", name)
	}
	best, err := numberArg(name, candidates[0])
	if err != nil {
		return nil, err
	}
	for _, c := range candidates[1:] {
		n, err := numberArg(name, c)
		if err != nil {
			return nil, err
		}
		cmp, _ := Compare(n, best)
		if cmp == want {
			best = n
		}
	}
	return best, nil
}

func bMin(args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "min expects at least 1 argument")
	}
	return extremum("min", args, -1)
}

func bMax(args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, gerrors.Runtime(gerrors.ArgumentError, "max expects at least 1 argument")
	}
	return extremum("max", args, 1)
}

func callbackArgs(name string, args []Value) (*Array, Value, error) {
	if err := checkArgs(name, args, 2); err != nil {
		return nil, nil, err
	}
	a, err := arrayArg(name, args[0])
	if err != nil {
		return nil, nil, err
	}
	if !Callable(args[1]) {
		return nil, nil, gerrors.Runtime(gerrors.TypeMismatch, "%s expects a function, found %s", name, args[1].Kind())
	}
	return a, args[1], nil
}

// MapArray applies fn to every element.
func MapArray(a *Array, fn Value) (Value, error) {
	out := make([]Value, 0, len(a.Elems))
	for _, e := range append([]Value(nil), a.Elems...) {
		v, err := Call(fn, []Value{e})
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return NewArray(out...), nil
}

// FilterArray keeps the elements for which fn is truthy.
func FilterArray(a *Array, fn Value) (Value, error) {
	out := []Value{}
	for _, e := range append([]Value(nil), a.Elems...) {
		keep, err := Call(fn, []Value{e})
		if err != nil {
			return nil, err
		}
		if Truthy(keep) {
			out = append(out, e)
		}
	}
	return NewArray(out...), nil
}

// ReduceArray folds a with fn(acc, elem). Without init the first element
// seeds the accumulator and an empty array is an error.
func ReduceArray(a *Array, fn Value, init Value) (Value, error) {
	elems := append([]Value(nil), a.Elems...)
	acc := init
	if acc == nil {
		if len(elems) == 0 {
			return nil, gerrors.Runtime(gerrors.ArgumentError, "reduce of empty array with no initial value")
		}
		acc, elems = elems[0], elems[1:]
	}
	for _, e := range elems {
		v, err := Call(fn, []Value{acc, e})
		if err != nil {
			return nil, err
		}
		acc = v
	}
	return acc, nil
}

func bMap(args []Value) (Value, error) {
	a, fn, err := callbackArgs("map", args)
	if err != nil {
		return nil, err
	}
	return MapArray(a, fn)
}

func bFilter(args []Value) (Value, error) {
	a, fn, err := callbackArgs("filter", args)
	if err != nil {
		return nil, err
	}
	return FilterArray(a, fn)
}

func bReduce(args []Value) (Value, error) {
	if err := checkArgRange("reduce", args, 2, 3); err != nil {
		return nil, err
	}
	a, fn, err := callbackArgs("reduce", args[:2])
	if err != nil {
		return nil, err
	}
	var init Value
	if len(args) == 3 {
		init = args[2]
	}
	return ReduceArray(a, fn, init)
}
