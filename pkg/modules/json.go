package modules

import (
	"bytes"
	"sort"
	"strings"

	"github.com/segmentio/encoding/json"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

func jsonModule() *Module {
	return &Module{Name: "json", Funcs: map[string]Func{
		"parse": func(args []value.Value) (value.Value, error) {
			if err := arity("json.parse", args, 1); err != nil {
				return nil, err
			}
			s, err := stringArg("json.parse", args[0])
			if err != nil {
				return nil, err
			}
			return ParseJSON(s)
		},
		"stringify": func(args []value.Value) (value.Value, error) {
			if err := arity("json.stringify", args, 1); err != nil {
				return nil, err
			}
			data, err := EncodeJSON(args[0])
			if err != nil {
				return nil, err
			}
			return value.String(data), nil
		},
		"pretty": func(args []value.Value) (value.Value, error) {
			if err := arity("json.pretty", args, 1); err != nil {
				return nil, err
			}
			data, err := EncodeJSON(args[0])
			if err != nil {
				return nil, err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, data, "", "  "); err != nil {
				return nil, gerrors.Runtime(gerrors.Generic, "json.pretty: %v", err)
			}
			return value.String(out.String()), nil
		},
	}}
}

// ParseJSON decodes a JSON document. Integral numbers become Int; object
// keys are ordered lexically.
func ParseJSON(s string) (value.Value, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, gerrors.Runtime(gerrors.Generic, "json.parse: %v", err)
	}
	return fromJSON(doc), nil
}

func fromJSON(x interface{}) value.Value {
	switch n := x.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(n)
	case string:
		return value.String(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return value.Int(i)
		}
		f, _ := n.Float64()
		return value.Float(f)
	case []interface{}:
		elems := make([]value.Value, len(n))
		for i, e := range n {
			elems[i] = fromJSON(e)
		}
		return value.NewArray(elems...)
	case map[string]interface{}:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := value.NewMap()
		for _, k := range keys {
			m.Set(k, fromJSON(n[k]))
		}
		return m
	}
	return value.Null{}
}

// EncodeJSON renders v compactly, keeping map insertion order.
func EncodeJSON(v value.Value) ([]byte, error) {
	if value.Cyclic(v) {
		return nil, gerrors.Runtime(gerrors.TypeMismatch, "cannot encode a cyclic %s as JSON", value.TypeName(v))
	}
	var b bytes.Buffer
	if err := encodeJSON(&b, v); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func encodeJSON(b *bytes.Buffer, v value.Value) error {
	switch x := value.Unwrap(v).(type) {
	case *value.Array:
		b.WriteByte('[')
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeJSON(b, e); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	case *value.Map:
		b.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			e, _ := x.Get(k)
			if err := encodeJSON(b, e); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil
	}
	native, err := value.ToNative(v)
	if err != nil {
		return err
	}
	data, err := json.Marshal(native)
	if err != nil {
		return gerrors.Runtime(gerrors.TypeMismatch, "cannot encode %s as JSON: %v", v, err)
	}
	b.Write(data)
	return nil
}
