package value

import (
	"fmt"
	"reflect"
	"sort"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

// AsInt64 converts a script value to a Go int64 argument.
func AsInt64(v Value) (int64, error) {
	switch x := Unwrap(v).(type) {
	case Int:
		return int64(x), nil
	case Float:
		if float64(int64(x)) == float64(x) {
			return int64(x), nil
		}
	}
	return 0, gerrors.Mismatch("Int", v.Kind().String())
}

func AsFloat64(v Value) (float64, error) {
	if f, ok := toFloat(Unwrap(v)); ok {
		return f, nil
	}
	return 0, gerrors.Mismatch("Float", v.Kind().String())
}

func AsBool(v Value) (bool, error) {
	if b, ok := Unwrap(v).(Bool); ok {
		return bool(b), nil
	}
	return false, gerrors.Mismatch("Bool", v.Kind().String())
}

func AsString(v Value) (string, error) {
	if s, ok := Unwrap(v).(String); ok {
		return string(s), nil
	}
	return "", gerrors.Mismatch("String", v.Kind().String())
}

// FromNative converts a Go value returned by embedded Go code. Integers,
// floats, bools and strings are always convertible; slices and string
// keyed maps of convertible values become arrays and maps.
func FromNative(x interface{}) (Value, error) {
	switch n := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return n, nil
	case int64:
		return Int(n), nil
	case int:
		return Int(n), nil
	case float64:
		return Float(n), nil
	case bool:
		return Bool(n), nil
	case string:
		return String(n), nil
	}
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			v, err := FromNative(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := NewMap()
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		sort.Strings(names)
		for _, k := range names {
			v, err := FromNative(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	case reflect.Ptr:
		if rv.IsNil() {
			return Null{}, nil
		}
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot convert Go value of type %s", fmt.Sprintf("%T", x))
}

// ToNative converts a script value to plain Go data: nil, int64, float64,
// bool, string, []interface{} or map[string]interface{}. A container that
// holds itself has no such representation.
func ToNative(v Value) (interface{}, error) {
	if Cyclic(v) {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "cyclic %s has no native representation", Unwrap(v).Kind())
	}
	return toNative(v)
}

func toNative(v Value) (interface{}, error) {
	switch x := Unwrap(v).(type) {
	case Null:
		return nil, nil
	case Int:
		return int64(x), nil
	case Float:
		return float64(x), nil
	case Bool:
		return bool(x), nil
	case String:
		return string(x), nil
	case *Array:
		out := make([]interface{}, len(x.Elems))
		for i, e := range x.Elems {
			n, err := toNative(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case *Map:
		out := make(map[string]interface{}, x.Len())
		for _, k := range x.Keys() {
			v, _ := x.Get(k)
			n, err := toNative(v)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "%s has no native representation", v.Kind())
}
