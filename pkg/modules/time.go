package modules

import (
	"time"

	gerrors "github.com/btouchard/gox/pkg/errors"
	"github.com/btouchard/gox/pkg/value"
)

func timeModule(o Options) *Module {
	return &Module{Name: "time", Funcs: map[string]Func{
		"now": func(args []value.Value) (value.Value, error) {
			if err := arity("time.now", args, 0); err != nil {
				return nil, err
			}
			return value.Float(float64(o.Now().UnixNano()) / 1e9), nil
		},
		"millis": func(args []value.Value) (value.Value, error) {
			if err := arity("time.millis", args, 0); err != nil {
				return nil, err
			}
			return value.Int(o.Now().UnixNano() / int64(time.Millisecond)), nil
		},
		"sleep": func(args []value.Value) (value.Value, error) {
			if err := arity("time.sleep", args, 1); err != nil {
				return nil, err
			}
			ms, err := value.AsFloat64(args[0])
			if err != nil || ms < 0 {
				return nil, gerrors.Runtime(gerrors.ArgumentError, "time.sleep expects a non-negative number of milliseconds")
			}
			time.Sleep(time.Duration(ms * float64(time.Millisecond)))
			return value.Null{}, nil
		},
		"format": func(args []value.Value) (value.Value, error) {
			if len(args) < 1 || len(args) > 2 {
				return nil, gerrors.Runtime(gerrors.ArgumentError, "time.format expects a timestamp and an optional layout")
			}
			secs, err := value.AsFloat64(args[0])
			if err != nil {
				return nil, err
			}
			layout := time.RFC3339
			if len(args) == 2 {
				if layout, err = stringArg("time.format", args[1]); err != nil {
					return nil, err
				}
			}
			t := time.Unix(0, int64(secs*1e9)).UTC()
			return value.String(t.Format(layout)), nil
		},
	}}
}
