// Package value is the runtime shared by the Gox interpreter and by the Go
// programs the transpiler generates: the Value model, environments,
// operators, built-ins and method tables.
package value

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	NullKind Kind = iota
	IntKind
	FloatKind
	BoolKind
	StringKind
	ArrayKind
	MapKind
	FunctionKind
	ModuleKind
	NativeKind
	CompiledKind
)

var kindNames = [...]string{
	NullKind:     "Null",
	IntKind:      "Int",
	FloatKind:    "Float",
	BoolKind:     "Bool",
	StringKind:   "String",
	ArrayKind:    "Array",
	MapKind:      "Map",
	FunctionKind: "Function",
	ModuleKind:   "Module",
	NativeKind:   "NativeHandle",
	CompiledKind: "Compiled",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is any Gox runtime value. String returns the display form used by
// print and template strings.
type Value interface {
	Kind() Kind
	String() string
}

type Null struct{}

type Int int64

type Float float64

type Bool bool

type String string

// Array is ordered and mutable. Arrays are shared by reference: every
// binding holding the same *Array sees in-place mutations.
type Array struct {
	Elems []Value
}

// Map is a string-keyed map preserving insertion order, shared by
// reference like Array.
type Map struct {
	entries *linkedhashmap.Map
}

// NativeHandle is an opaque capability exposed by a module, such as an
// http client or a web app. Method calls on it reach Ref when Ref is a
// HandleMethods.
type NativeHandle struct {
	Module string
	Type   string
	Ref    interface{}
}

// HandleMethods is implemented by the Ref of a NativeHandle with
// script-callable methods.
type HandleMethods interface {
	CallMethod(name string, args []Value) (Value, error)
}

// Compiled wraps a value produced by the native build path together with
// the Go type it was produced from.
type Compiled struct {
	Tag   string
	Inner Value
}

func (Null) Kind() Kind          { return NullKind }
func (Int) Kind() Kind           { return IntKind }
func (Float) Kind() Kind         { return FloatKind }
func (Bool) Kind() Kind          { return BoolKind }
func (String) Kind() Kind        { return StringKind }
func (*Array) Kind() Kind        { return ArrayKind }
func (*Map) Kind() Kind          { return MapKind }
func (*NativeHandle) Kind() Kind { return NativeKind }
func (*Compiled) Kind() Kind     { return CompiledKind }

func (Null) String() string     { return "null" }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (f Float) String() string  { return formatFloat(float64(f)) }
func (b Bool) String() string   { return strconv.FormatBool(bool(b)) }
func (s String) String() string { return string(s) }

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (a *Array) String() string { return display(a, visiting{}) }
func (m *Map) String() string   { return display(m, visiting{}) }

// visiting holds the containers on the path of a recursive walk. A
// container met again on its own path is a cycle.
type visiting map[interface{}]bool

func display(v Value, seen visiting) string {
	switch x := Unwrap(v).(type) {
	case *Array:
		if seen[x] {
			return "[...]"
		}
		seen[x] = true
		defer delete(seen, x)
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = display(e, seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		if seen[x] {
			return "{...}"
		}
		seen[x] = true
		defer delete(seen, x)
		parts := make([]string, 0, x.Len())
		x.Each(func(k string, e Value) {
			parts = append(parts, strconv.Quote(k)+": "+display(e, seen))
		})
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return v.String()
}

// Cyclic reports whether v contains itself, directly or through nested
// arrays and maps.
func Cyclic(v Value) bool { return cyclic(v, visiting{}) }

func cyclic(v Value, seen visiting) bool {
	var children []Value
	switch x := Unwrap(v).(type) {
	case *Array:
		if seen[x] {
			return true
		}
		seen[x] = true
		defer delete(seen, x)
		children = x.Elems
	case *Map:
		if seen[x] {
			return true
		}
		seen[x] = true
		defer delete(seen, x)
		x.Each(func(_ string, e Value) { children = append(children, e) })
	default:
		return false
	}
	for _, c := range children {
		if cyclic(c, seen) {
			return true
		}
	}
	return false
}

func (h *NativeHandle) String() string { return "<" + h.Module + "." + h.Type + ">" }
func (c *Compiled) String() string     { return c.Inner.String() }

// NewArray returns an array holding elems (not copied).
func NewArray(elems ...Value) *Array {
	if elems == nil {
		elems = []Value{}
	}
	return &Array{Elems: elems}
}

func NewMap() *Map {
	return &Map{entries: linkedhashmap.New()}
}

func (m *Map) Len() int { return m.entries.Size() }

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.(Value), true
}

// Set adds or replaces key; a new key goes to the end.
func (m *Map) Set(key string, v Value) {
	m.entries.Put(key, v)
}

func (m *Map) Delete(key string) bool {
	if _, ok := m.entries.Get(key); !ok {
		return false
	}
	m.entries.Remove(key)
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	raw := m.entries.Keys()
	keys := make([]string, len(raw))
	for i, k := range raw {
		keys[i] = k.(string)
	}
	return keys
}

// Each visits the entries in insertion order.
func (m *Map) Each(f func(key string, v Value)) {
	m.entries.Each(func(k, v interface{}) {
		f(k.(string), v.(Value))
	})
}

func (m *Map) Clear() {
	m.entries.Clear()
}

// Copy returns a shallow copy.
func (m *Map) Copy() *Map {
	cp := NewMap()
	m.Each(cp.Set)
	return cp
}

// SortedKeys returns the keys in lexical order.
func (m *Map) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

// TypeName is the lower-case name returned by the type() built-in.
func TypeName(v Value) string {
	switch v.Kind() {
	case NativeKind:
		return "native"
	case CompiledKind:
		return TypeName(v.(*Compiled).Inner)
	}
	return strings.ToLower(v.Kind().String())
}

// Unwrap strips Compiled wrappers.
func Unwrap(v Value) Value {
	for {
		c, ok := v.(*Compiled)
		if !ok {
			return v
		}
		v = c.Inner
	}
}

// Truthy reports the boolean meaning of v: null, false, zero numbers and
// empty strings, arrays and maps are false.
func Truthy(v Value) bool {
	switch x := Unwrap(v).(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case String:
		return x != ""
	case *Array:
		return len(x.Elems) > 0
	case *Map:
		return x.Len() > 0
	}
	return true
}

// Equal is structural equality. Int and Float compare numerically.
// Containers that refer back to themselves compare equal when every
// finite path through them does.
func Equal(a, b Value) bool { return equal(a, b, nil) }

type containerPair struct{ a, b interface{} }

func equal(a, b Value, seen map[containerPair]bool) bool {
	a, b = Unwrap(a), Unwrap(b)
	if fa, fb, ok := numericPair(a, b); ok {
		if _, isInt := a.(Int); isInt {
			if bi, ok := b.(Int); ok {
				return a.(Int) == bi
			}
		}
		return fa == fb
	}
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		if seen, ok = enter(seen, x, y); !ok {
			return true
		}
		for i := range x.Elems {
			if !equal(x.Elems[i], y.Elems[i], seen) {
				return false
			}
		}
		return true
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		if seen, ok = enter(seen, x, y); !ok {
			return true
		}
		for _, k := range x.Keys() {
			xv, _ := x.Get(k)
			yv, ok := y.Get(k)
			if !ok || !equal(xv, yv, seen) {
				return false
			}
		}
		return true
	}
	return a == b
}

// enter records that the pair x, y is being compared. It reports false
// when the pair is already under comparison.
func enter(seen map[containerPair]bool, x, y interface{}) (map[containerPair]bool, bool) {
	p := containerPair{x, y}
	if seen[p] {
		return seen, false
	}
	if seen == nil {
		seen = make(map[containerPair]bool)
	}
	seen[p] = true
	return seen, true
}

// numericPair returns both operands as float64 when both are numbers.
func numericPair(a, b Value) (float64, float64, bool) {
	fa, ok := toFloat(a)
	if !ok {
		return 0, 0, false
	}
	fb, ok := toFloat(b)
	if !ok {
		return 0, 0, false
	}
	return fa, fb, true
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case Int:
		return float64(x), true
	case Float:
		return float64(x), true
	}
	return 0, false
}
