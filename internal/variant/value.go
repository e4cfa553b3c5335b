package variant

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which member of the union a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindText
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ErrTypeMismatch is matched by every *TypeError.
var ErrTypeMismatch = errors.New("type mismatch")

// TypeError reports an accessor used against the wrong kind.
type TypeError struct {
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Want, e.Got)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// Value is one dynamically typed call parameter or result.
// The zero Value is Null.
type Value struct {
	kind   Kind
	num    int64
	str    string
	items  []Value
	fields map[string]Value
}

func Null() Value { return Value{} }

func Int(n int64) Value { return Value{kind: KindInt, num: n} }

func Text(s string) Value { return Value{kind: KindText, str: s} }

// List builds a list holding items in order.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// TextList builds a list of Text values.
func TextList(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = Text(s)
	}
	return Value{kind: KindList, items: out}
}

// Map builds an empty map.
func Map() Value { return Value{kind: KindMap, fields: make(map[string]Value)} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsList() bool { return v.kind == KindList }
func (v Value) IsMap() bool  { return v.kind == KindMap }

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, &TypeError{Want: KindInt, Got: v.kind}
	}
	return v.num, nil
}

func (v Value) AsText() (string, error) {
	if v.kind != KindText {
		return "", &TypeError{Want: KindText, Got: v.kind}
	}
	return v.str, nil
}

// AsList returns the list members. The slice is shared with v.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, &TypeError{Want: KindList, Got: v.kind}
	}
	return v.items, nil
}

// AsMap returns the map members. The map is shared with v.
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, &TypeError{Want: KindMap, Got: v.kind}
	}
	return v.fields, nil
}

// Len reports the member count of a list or map and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.items)
	case KindMap:
		return len(v.fields)
	default:
		return 0
	}
}

// Index returns list member i, or Null when v is not a list or i is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindList || i < 0 || i >= len(v.items) {
		return Null()
	}
	return v.items[i]
}

// Get returns the member stored under key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Null(), false
	}
	member, ok := v.fields[key]
	return member, ok
}

// Keys returns map keys in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Append adds items to the tail of a list.
func (v *Value) Append(items ...Value) error {
	if v.kind != KindList {
		return &TypeError{Want: KindList, Got: v.kind}
	}
	v.items = append(v.items, items...)
	return nil
}

// Insert places item at index i, clamping i into [0, len].
func (v *Value) Insert(i int, item Value) error {
	if v.kind != KindList {
		return &TypeError{Want: KindList, Got: v.kind}
	}
	if i < 0 {
		i = 0
	}
	if i > len(v.items) {
		i = len(v.items)
	}
	v.items = append(v.items, Value{})
	copy(v.items[i+1:], v.items[i:])
	v.items[i] = item
	return nil
}

// Set stores member under key, replacing any previous member.
func (v *Value) Set(key string, member Value) error {
	if v.kind != KindMap {
		return &TypeError{Want: KindMap, Got: v.kind}
	}
	if v.fields == nil {
		v.fields = make(map[string]Value)
	}
	v.fields[key] = member
	return nil
}

// MustSet is Set for values known to be maps, typically freshly built by Map().
func (v *Value) MustSet(key string, member Value) *Value {
	if err := v.Set(key, member); err != nil {
		panic(err)
	}
	return v
}

// String renders a compact debugging representation.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindInt:
		b.WriteString(strconv.FormatInt(v.num, 10))
	case KindText:
		b.WriteString(strconv.Quote(v.str))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, key := range v.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(key)
			b.WriteString(": ")
			v.fields[key].write(b)
		}
		b.WriteByte('}')
	}
}
