// Package gardenwall implements the boundary between host JSON-shaped Go
// values and MistQL's runtime Value (§4.7): Decode converts host data in,
// Encode converts a runtime Value back out.
//
// Grounded on the original Python implementation's gardenwall.py +
// runtime_value.py `RuntimeValue.of`/`to_python` (the thin wrapper and the
// actual conversion table it delegates to), adapted to Go's dynamically
// typed decode targets (encoding/json's map[string]interface{}/[]interface{}
// plus the broader set github.com/spf13/cast already knows how to coerce —
// integers of every width, json.Number, etc.).
package gardenwall

import (
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/mistql/mistql-go/pkg/types"
)

// Decode recursively converts a host value into a runtime Value, per
// §4.7's conversion table. Non-finite floats collapse to Null; dates/times
// become ISO-8601 Strings.
func Decode(data interface{}) (types.Value, error) {
	switch v := data.(type) {
	case nil:
		return types.Null, nil
	case types.Value:
		return v, nil
	case bool:
		return types.Bool(v), nil
	case string:
		return types.String(v), nil
	case time.Time:
		return types.String(v.Format(time.RFC3339Nano)), nil
	case []interface{}:
		return decodeArray(v)
	case map[string]interface{}:
		return decodeObject(v)
	default:
		if n, err := cast.ToFloat64E(v); err == nil {
			return decodeNumber(n), nil
		}
		return types.Null, fmt.Errorf("gardenwall: cannot convert host value of type %T", data)
	}
}

func decodeNumber(n float64) types.Value {
	if !types.IsFiniteNumber(n) {
		return types.Null
	}
	return types.Number(n)
}

func decodeArray(items []interface{}) (types.Value, error) {
	out := make([]types.Value, len(items))
	for i, item := range items {
		v, err := Decode(item)
		if err != nil {
			return types.Null, err
		}
		out[i] = v
	}
	return types.NewArray(out), nil
}

func decodeObject(m map[string]interface{}) (types.Value, error) {
	// Go's map iteration order is random, but JSON objects carry no
	// canonical key order of their own once decoded into a Go map — callers
	// who need insertion order preserved from the wire should decode with
	// an order-preserving JSON decoder upstream (e.g. DecodeJSON, whose
	// types.Value result Decode passes through unchanged) and pass that in
	// instead of a plain map.
	out := types.NewObject()
	for key, item := range m {
		v, err := Decode(item)
		if err != nil {
			return types.Null, err
		}
		out.Set(key, v)
	}
	return types.NewObjectValue(out), nil
}

// Encode converts a runtime Value back into host-representable data:
// Null/Boolean/Number/String pass through to their Go equivalents,
// Array/Object recurse, and Function/Regex are not JSON-representable
// (§4.7).
func Encode(v types.Value) (interface{}, error) {
	switch v.Kind() {
	case types.KindNull:
		return nil, nil
	case types.KindBoolean:
		return v.AsBool(), nil
	case types.KindNumber:
		return v.AsNumber(), nil
	case types.KindString:
		return v.AsString(), nil
	case types.KindArray:
		arr := v.AsArray()
		out := make([]interface{}, len(arr))
		for i, item := range arr {
			enc, err := Encode(item)
			if err != nil {
				return nil, err
			}
			out[i] = enc
		}
		return out, nil
	case types.KindObject:
		obj := v.AsObject()
		out := make(map[string]interface{}, obj.Len())
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			enc, err := Encode(pair.Value)
			if err != nil {
				return nil, err
			}
			out[pair.Key] = enc
		}
		return out, nil
	case types.KindFunction:
		return nil, types.RuntimeErrorf("cannot export a function value across the garden wall")
	case types.KindRegex:
		return nil, types.RuntimeErrorf("cannot export a regex value across the garden wall")
	default:
		return nil, types.InternalErrorf("unknown value kind %s", v.Kind())
	}
}
