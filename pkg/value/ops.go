package value

import (
	"strings"
	"unicode/utf8"

	gerrors "github.com/btouchard/gox/pkg/errors"
)

// Binary applies a non-short-circuit binary operator.
func Binary(op string, left, right Value) (Value, error) {
	l, r := Unwrap(left), Unwrap(right)
	switch op {
	case "==":
		return Bool(Equal(l, r)), nil
	case "!=":
		return Bool(!Equal(l, r)), nil
	case "+":
		return add(l, r)
	case "-", "*", "/", "%":
		return arith(op, l, r)
	case "<", ">", "<=", ">=":
		return compare(op, l, r)
	}
	return nil, gerrors.Runtime(gerrors.Generic, "unknown operator %s", op)
}

func add(l, r Value) (Value, error) {
	ls, lok := l.(String)
	rs, rok := r.(String)
	switch {
	case lok && rok:
		return ls + rs, nil
	case lok:
		return ls + String(r.String()), nil
	case rok:
		return String(l.String()) + rs, nil
	}
	if la, ok := l.(*Array); ok {
		if ra, ok := r.(*Array); ok {
			elems := make([]Value, 0, len(la.Elems)+len(ra.Elems))
			elems = append(elems, la.Elems...)
			return NewArray(append(elems, ra.Elems...)...), nil
		}
	}
	return arith("+", l, r)
}

func arith(op string, l, r Value) (Value, error) {
	li, lInt := l.(Int)
	ri, rInt := r.(Int)
	if lInt && rInt {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "/":
			if ri == 0 {
				return nil, gerrors.Runtime(gerrors.DivisionByZero, "Division by zero")
			}
			return li / ri, nil
		case "%":
			if ri == 0 {
				return nil, gerrors.Runtime(gerrors.DivisionByZero, "Division by zero")
			}
			return li % ri, nil
		}
	}
	lf, rf, ok := numericPair(l, r)
	if !ok {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot apply %s to %s and %s", op, l.Kind(), r.Kind())
	}
	switch op {
	case "+":
		return Float(lf + rf), nil
	case "-":
		return Float(lf - rf), nil
	case "*":
		return Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, gerrors.Runtime(gerrors.DivisionByZero, "Division by zero")
		}
		return Float(lf / rf), nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "%% requires Int operands, found %s and %s", l.Kind(), r.Kind())
}

func compare(op string, l, r Value) (Value, error) {
	var c int
	if lf, rf, ok := numericPair(l, r); ok {
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
		if li, ok := l.(Int); ok {
			if ri, ok := r.(Int); ok {
				c = cmpInt(li, ri)
			}
		}
	} else {
		ls, lok := l.(String)
		rs, rok := r.(String)
		if !lok || !rok {
			return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot compare %s and %s", l.Kind(), r.Kind())
		}
		c = strings.Compare(string(ls), string(rs))
	}
	switch op {
	case "<":
		return Bool(c < 0), nil
	case ">":
		return Bool(c > 0), nil
	case "<=":
		return Bool(c <= 0), nil
	}
	return Bool(c >= 0), nil
}

func cmpInt(a, b Int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare orders two numbers or two strings.
func Compare(a, b Value) (int, error) {
	lt, err := compare("<", Unwrap(a), Unwrap(b))
	if err != nil {
		return 0, err
	}
	if lt.(Bool) {
		return -1, nil
	}
	if Equal(a, b) {
		return 0, nil
	}
	return 1, nil
}

// Unary applies `-` or `!`.
func Unary(op string, operand Value) (Value, error) {
	v := Unwrap(operand)
	switch op {
	case "!":
		return Bool(!Truthy(v)), nil
	case "-":
		switch x := v.(type) {
		case Int:
			return -x, nil
		case Float:
			return -x, nil
		}
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot negate %s", v.Kind())
	}
	return nil, gerrors.Runtime(gerrors.Generic, "unknown operator %s", op)
}

// Index reads container[idx].
func Index(container, idx Value) (Value, error) {
	switch c := Unwrap(container).(type) {
	case *Array:
		i, err := arrayIndex(len(c.Elems), idx)
		if err != nil {
			return nil, err
		}
		return c.Elems[i], nil
	case String:
		runes := []rune(string(c))
		i, err := arrayIndex(len(runes), idx)
		if err != nil {
			return nil, err
		}
		return String(runes[i]), nil
	case *Map:
		key, ok := Unwrap(idx).(String)
		if !ok {
			return nil, gerrors.Mismatch("String key", idx.Kind().String())
		}
		v, ok := c.Get(string(key))
		if !ok {
			return nil, gerrors.Runtime(gerrors.Generic, "key %q not found", string(key))
		}
		return v, nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot index %s", container.Kind())
}

// SetIndex performs container[idx] = v in place.
func SetIndex(container, idx, v Value) error {
	switch c := Unwrap(container).(type) {
	case *Array:
		i, err := arrayIndex(len(c.Elems), idx)
		if err != nil {
			return err
		}
		c.Elems[i] = v
		return nil
	case *Map:
		key, ok := Unwrap(idx).(String)
		if !ok {
			return gerrors.Mismatch("String key", idx.Kind().String())
		}
		c.Set(string(key), v)
		return nil
	}
	return gerrors.Runtime(gerrors.TypeMismatch, "cannot assign into %s", container.Kind())
}

// arrayIndex resolves a possibly negative index against length n.
func arrayIndex(n int, idx Value) (int, error) {
	i, ok := Unwrap(idx).(Int)
	if !ok {
		return 0, gerrors.Mismatch("Int index", idx.Kind().String())
	}
	pos := int(i)
	if pos < 0 {
		pos += n
	}
	if pos < 0 || pos >= n {
		return 0, gerrors.Runtime(gerrors.IndexOutOfBounds, "index %d out of bounds for length %d", int64(i), n)
	}
	return pos, nil
}

// Member reads obj.name without a call: a map entry, a module function,
// or the result of a zero-argument method.
func Member(obj Value, name string) (Value, error) {
	r := Unwrap(obj)
	var table map[string]method
	switch o := r.(type) {
	case *Map:
		if v, ok := o.Get(name); ok {
			return v, nil
		}
		if _, ok := mapMethods[name]; !ok {
			return nil, gerrors.Runtime(gerrors.Generic, "key %q not found", name)
		}
		table = mapMethods
	case *Module:
		return &Builtin{Name: o.Name + "." + name, Fn: func(args []Value) (Value, error) {
			return o.Caller.Call(o.Name, name, args)
		}}, nil
	case String:
		table = stringMethods
	case *Array:
		table = arrayMethods
	case Int, Float:
		table = numberMethods
	}
	if m, ok := table[name]; ok {
		return m(r, nil)
	}
	return nil, gerrors.Runtime(gerrors.UnknownMethod, "%s has no member '%s'", r.Kind(), name)
}

// SetMember performs obj.name = v on a map.
func SetMember(obj Value, name string, v Value) error {
	m, ok := Unwrap(obj).(*Map)
	if !ok {
		return gerrors.Runtime(gerrors.TypeMismatch, "cannot set member '%s' on %s", name, obj.Kind())
	}
	m.Set(name, v)
	return nil
}

// Iterate returns the sequence a `for` loop walks: array elements, map
// keys or the characters of a string.
func Iterate(v Value) ([]Value, error) {
	switch x := Unwrap(v).(type) {
	case *Array:
		return append([]Value(nil), x.Elems...), nil
	case *Map:
		keys := x.Keys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return out, nil
	case String:
		out := make([]Value, 0, utf8.RuneCountInString(string(x)))
		for _, r := range string(x) {
			out = append(out, String(r))
		}
		return out, nil
	}
	return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot iterate over %s", v.Kind())
}
