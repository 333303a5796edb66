package gardenwall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mistql/mistql-go/pkg/types"
)

// DecodeJSON parses raw JSON bytes directly into a runtime Value, preserving
// object key order from the wire (§3's "insertion-ordered mapping"
// invariant) — decoding through encoding/json's map[string]interface{} first
// would lose that order, since Go map iteration is unordered. Numbers
// decode via json.Number to avoid float64 precision loss before the
// garden-wall's own Number conversion applies.
func DecodeJSON(data []byte) (types.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return types.Null, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return types.Null, fmt.Errorf("gardenwall: trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (types.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return types.Null, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *json.Decoder, tok json.Token) (types.Value, error) {
	switch t := tok.(type) {
	case nil:
		return types.Null, nil
	case bool:
		return types.Bool(t), nil
	case string:
		return types.String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return types.Null, fmt.Errorf("gardenwall: invalid JSON number %q: %w", t.String(), err)
		}
		return decodeNumber(f), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeJSONArray(dec)
		case '{':
			return decodeJSONObject(dec)
		default:
			return types.Null, fmt.Errorf("gardenwall: unexpected JSON delimiter %q", t)
		}
	default:
		return types.Null, fmt.Errorf("gardenwall: unexpected JSON token %T", tok)
	}
}

func decodeJSONArray(dec *json.Decoder) (types.Value, error) {
	var items []types.Value
	for dec.More() {
		v, err := decodeJSONValue(dec)
		if err != nil {
			return types.Null, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return types.Null, err
	}
	return types.NewArray(items), nil
}

func decodeJSONObject(dec *json.Decoder) (types.Value, error) {
	obj := types.NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return types.Null, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return types.Null, fmt.Errorf("gardenwall: JSON object key is not a string")
		}
		v, err := decodeJSONValue(dec)
		if err != nil {
			return types.Null, err
		}
		obj.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return types.Null, err
	}
	return types.NewObjectValue(obj), nil
}

// EncodeJSON serializes a runtime Value as JSON, honoring Object key order.
func EncodeJSON(v types.Value) ([]byte, error) {
	plain, err := Encode(v)
	if err != nil {
		return nil, err
	}
	if v.IsObject() || v.IsArray() {
		return marshalOrdered(v)
	}
	return json.Marshal(plain)
}

// marshalOrdered walks the Value directly rather than round-tripping
// through Encode's map[string]interface{}, so Object keys serialize in
// insertion order instead of encoding/json's alphabetical map ordering.
func marshalOrdered(v types.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeOrdered(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeOrdered(buf *bytes.Buffer, v types.Value) error {
	switch v.Kind() {
	case types.KindNull:
		buf.WriteString("null")
		return nil
	case types.KindBoolean, types.KindNumber, types.KindString:
		enc, err := Encode(v)
		if err != nil {
			return err
		}
		b, err := json.Marshal(enc)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case types.KindArray:
		buf.WriteByte('[')
		for i, item := range v.AsArray() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeOrdered(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case types.KindObject:
		buf.WriteByte('{')
		first := true
		for pair := v.AsObject().Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyJSON, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			if err := writeOrdered(buf, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return types.RuntimeErrorf("cannot export a value of type %s as JSON", v.Kind())
	}
}
