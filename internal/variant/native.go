package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FromNative converts values shaped like encoding/json output into a Value.
// Numbers must be integral; booleans and other types are rejected.
func FromNative(in any) (Value, error) {
	switch val := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case string:
		return Text(val), nil
	case json.Number:
		n, err := strconv.ParseInt(val.String(), 10, 64)
		if err != nil {
			return Null(), fmt.Errorf("number %s is not a 64-bit integer", val)
		}
		return Int(n), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case int32:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case float64:
		if val != math.Trunc(val) || val >= math.MaxInt64 || val < math.MinInt64 {
			return Null(), fmt.Errorf("number %v is not a 64-bit integer", val)
		}
		return Int(int64(val)), nil
	case []any:
		items := make([]Value, 0, len(val))
		for i, raw := range val {
			item, err := FromNative(raw)
			if err != nil {
				return Null(), fmt.Errorf("list index %d: %w", i, err)
			}
			items = append(items, item)
		}
		return Value{kind: KindList, items: items}, nil
	case []string:
		return TextList(val...), nil
	case map[string]any:
		out := Map()
		for key, raw := range val {
			member, err := FromNative(raw)
			if err != nil {
				return Null(), fmt.Errorf("member %q: %w", key, err)
			}
			out.fields[key] = member
		}
		return out, nil
	case map[string]string:
		out := Map()
		for key, s := range val {
			out.fields[key] = Text(s)
		}
		return out, nil
	default:
		return Null(), fmt.Errorf("unsupported value type %T", in)
	}
}

// Native converts v into nil, int64, string, []any, or map[string]any so it
// can be handed to encoding/json.
func (v Value) Native() any {
	switch v.kind {
	case KindInt:
		return v.num
	case KindText:
		return v.str
	case KindList:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.fields))
		for key, member := range v.fields {
			out[key] = member.Native()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes v through its native form; encoding/json sorts map keys.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// ParseJSON decodes a JSON document into a Value, keeping integers exact.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return Null(), fmt.Errorf("decode json: trailing data")
	}
	return FromNative(raw)
}
