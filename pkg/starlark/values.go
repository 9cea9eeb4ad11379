package starlark

import (
	"github.com/neurodesk/vltemplate/pkg/engine"
	"go.starlark.net/starlark"
)

// ConvertToStarlark converts an engine value to a Starlark value
func ConvertToStarlark(val engine.Value) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case engine.StringValue:
		return starlark.String(string(v))
	case engine.IntValue:
		return starlark.MakeInt64(int64(v))
	case engine.FloatValue:
		return starlark.Float(float64(v))
	case engine.BoolValue:
		return starlark.Bool(bool(v))
	case engine.ListValue:
		items := make([]starlark.Value, len(v))
		for i, item := range v {
			items[i] = ConvertToStarlark(item)
		}
		return starlark.NewList(items)
	case engine.DictValue:
		dict := starlark.NewDict(len(v))
		for key, value := range v {
			_ = dict.SetKey(starlark.String(key), ConvertToStarlark(value))
		}
		return dict
	case engine.NoneValue:
		return starlark.None
	default:
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to an engine value. Lists
// and tuples both become engine.ListValue so either can drive a loop.
func ConvertFromStarlark(val starlark.Value) engine.Value {
	if val == nil || val == starlark.None {
		return engine.NoneValue{}
	}

	switch v := val.(type) {
	case starlark.String:
		return engine.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return engine.IntValue(i)
		}
		// too large for int64
		return engine.StringValue(v.String())
	case starlark.Float:
		return engine.FloatValue(float64(v))
	case starlark.Bool:
		return engine.BoolValue(bool(v))
	case *starlark.List:
		items := make(engine.ListValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make(engine.ListValue, len(v))
		for i, item := range v {
			items[i] = ConvertFromStarlark(item)
		}
		return items
	case *starlark.Dict:
		dict := make(engine.DictValue)
		for _, item := range v.Items() {
			key, value := item[0], item[1]
			if keyStr, ok := key.(starlark.String); ok {
				dict[string(keyStr)] = ConvertFromStarlark(value)
			} else {
				dict[key.String()] = ConvertFromStarlark(value)
			}
		}
		return dict
	default:
		return engine.StringValue(val.String())
	}
}
