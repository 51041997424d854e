// Package bridge carries the terminal value of a natively built script
// back to the process that launched it. The child writes a tagged JSON
// envelope to the file named by $GOX_RESULT; the parent decodes it into a
// value.Value.
package bridge

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/segmentio/encoding/json"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

// ResultEnv names the environment variable holding the envelope path.
const ResultEnv = "GOX_RESULT"

// Failure kinds.
const (
	KindRuntime = "runtime"
	KindMarshal = "marshal"
)

// Envelope is one encoded value. Scalars carry Value, arrays carry Items,
// maps carry Keys and Items in insertion order. A failed run carries
// only Error.
type Envelope struct {
	Type  string          `json:"type,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Keys  []string        `json:"keys,omitempty"`
	Items []*Envelope     `json:"items,omitempty"`
	Error *Failure        `json:"error,omitempty"`
}

type Failure struct {
	Kind    string    `json:"kind"`
	Detail  string    `json:"detail,omitempty"`
	Message string    `json:"message"`
	Pos     *Location `json:"pos,omitempty"`
}

// Location is the script position of a runtime failure.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// MarshalError is a conversion failure between script values and the Go
// types of an embedded function.
type MarshalError struct {
	Entry   string
	Message string
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entry, e.Message)
}

// ArgError reports that argument i of entry could not be converted.
func ArgError(entry string, i int, err error) error {
	return &MarshalError{Entry: entry, Message: fmt.Sprintf("argument %d: %v", i+1, err)}
}

// ResultError reports that the value returned by entry could not be
// converted.
func ResultError(entry string, err error) error {
	return &MarshalError{Entry: entry, Message: fmt.Sprintf("result: %v", err)}
}

// Encode converts v into an envelope.
func Encode(v value.Value) (*Envelope, error) {
	if value.Cyclic(v) {
		return nil, &MarshalError{Entry: "result", Message: "a cyclic " + value.TypeName(v) + " cannot cross the native boundary"}
	}
	return encode(v)
}

func encode(v value.Value) (*Envelope, error) {
	switch x := value.Unwrap(v).(type) {
	case value.Null:
		return &Envelope{Type: "null"}, nil
	case value.Int:
		return scalar("int64", int64(x))
	case value.Float:
		return encodeFloat(float64(x))
	case value.Bool:
		return scalar("bool", bool(x))
	case value.String:
		return scalar("string", string(x))
	case *value.Array:
		env := &Envelope{Type: "array", Items: make([]*Envelope, 0, len(x.Elems))}
		for _, e := range x.Elems {
			item, err := encode(e)
			if err != nil {
				return nil, err
			}
			env.Items = append(env.Items, item)
		}
		return env, nil
	case *value.Map:
		env := &Envelope{Type: "map", Keys: x.Keys()}
		for _, k := range env.Keys {
			e, _ := x.Get(k)
			item, err := encode(e)
			if err != nil {
				return nil, err
			}
			env.Items = append(env.Items, item)
		}
		return env, nil
	}
	return nil, &MarshalError{Entry: "result", Message: fmt.Sprintf("%s cannot cross the native boundary", v.Kind())}
}

// Non-finite floats have no JSON number form; they travel as the strings
// "inf", "-inf" and "nan".
var nonFinite = map[string]float64{
	"inf":  math.Inf(1),
	"-inf": math.Inf(-1),
	"nan":  math.NaN(),
}

func encodeFloat(f float64) (*Envelope, error) {
	switch {
	case math.IsNaN(f):
		return scalar("float64", "nan")
	case math.IsInf(f, 1):
		return scalar("float64", "inf")
	case math.IsInf(f, -1):
		return scalar("float64", "-inf")
	}
	return scalar("float64", f)
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return 0, err
		}
		f, ok := nonFinite[name]
		if !ok {
			return 0, fmt.Errorf("unknown float %q", name)
		}
		return f, nil
	}
	var f float64
	err := json.Unmarshal(raw, &f)
	return f, err
}

func scalar(tag string, x interface{}) (*Envelope, error) {
	raw, err := json.Marshal(x)
	if err != nil {
		return nil, &MarshalError{Entry: "result", Message: err.Error()}
	}
	return &Envelope{Type: tag, Value: raw}, nil
}

// Fail builds the envelope of a failed run.
func Fail(err error) *Envelope {
	f := &Failure{Kind: KindRuntime, Message: err.Error()}
	switch e := err.(type) {
	case *MarshalError:
		f.Kind = KindMarshal
	case *gerrors.RuntimeError:
		f.Detail = string(e.Kind)
		f.Message = e.Message
		if e.Pos.IsValid() {
			f.Pos = &Location{File: e.Pos.File, Line: e.Pos.Line, Column: e.Pos.Column}
		}
	}
	return &Envelope{Error: f}
}

// Decode converts an envelope back into a value. A failure envelope of
// kind runtime becomes a RuntimeError, kind marshal a BuildError.
func Decode(env *Envelope) (value.Value, error) {
	if env.Error != nil {
		if env.Error.Kind == KindMarshal {
			return nil, gerrors.Build("marshal", "%s", env.Error.Message)
		}
		kind := gerrors.RuntimeKind(env.Error.Detail)
		if kind == "" {
			kind = gerrors.Generic
		}
		rt := &gerrors.RuntimeError{Kind: kind, Message: env.Error.Message}
		if p := env.Error.Pos; p != nil {
			rt.Pos = gerrors.Position{File: p.File, Line: p.Line, Column: p.Column}
		}
		return nil, rt
	}
	switch env.Type {
	case "null":
		return value.Null{}, nil
	case "int64":
		var n int64
		err := json.Unmarshal(env.Value, &n)
		return value.Int(n), decodeErr(env, err)
	case "float64":
		f, err := decodeFloat(env.Value)
		return value.Float(f), decodeErr(env, err)
	case "bool":
		var b bool
		err := json.Unmarshal(env.Value, &b)
		return value.Bool(b), decodeErr(env, err)
	case "string":
		var s string
		err := json.Unmarshal(env.Value, &s)
		return value.String(s), decodeErr(env, err)
	case "array":
		elems := make([]value.Value, len(env.Items))
		for i, item := range env.Items {
			v, err := Decode(item)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return value.NewArray(elems...), nil
	case "map":
		if len(env.Keys) != len(env.Items) {
			return nil, gerrors.Build("marshal", "map envelope has %d keys and %d values", len(env.Keys), len(env.Items))
		}
		m := value.NewMap()
		for i, k := range env.Keys {
			v, err := Decode(env.Items[i])
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	}
	return nil, gerrors.Build("marshal", "unknown envelope type %q", env.Type)
}

func decodeErr(env *Envelope, err error) error {
	if err == nil {
		return nil
	}
	return gerrors.Build("marshal", "decoding %s: %v", env.Type, err)
}

// Write encodes the outcome of a run to w. An unencodable result is
// written as a marshal failure.
func Write(w io.Writer, v value.Value, runErr error) error {
	var env *Envelope
	if runErr != nil {
		env = Fail(runErr)
	} else {
		var err error
		if env, err = Encode(v); err != nil {
			env = Fail(err)
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Read decodes an envelope from data and tags the result with its Go
// type.
func Read(data []byte) (value.Value, error) {
	var env Envelope
	if err := json.Unmarshal(bytes.TrimSpace(data), &env); err != nil {
		return nil, gerrors.Build("marshal", "malformed result envelope: %v", err)
	}
	v, err := Decode(&env)
	if err != nil {
		return nil, err
	}
	return &value.Compiled{Tag: env.Type, Inner: v}, nil
}

// Finish is called by generated programs at exit. It records the outcome
// in $GOX_RESULT when set, reports errors on stderr and returns the exit
// status.
func Finish(v value.Value, runErr error) int {
	if path := os.Getenv(ResultEnv); path != "" {
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "gox: writing result: %v\n", err)
			return 1
		}
		werr := Write(f, v, runErr)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			fmt.Fprintf(os.Stderr, "gox: writing result: %v\n", werr)
			return 1
		}
		if runErr != nil {
			return exitCode(runErr)
		}
		return 0
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return exitCode(runErr)
	}
	return 0
}

func exitCode(err error) int {
	if _, ok := err.(*MarshalError); ok {
		return 3
	}
	return gerrors.ExitCode(err)
}
