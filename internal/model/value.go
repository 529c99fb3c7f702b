package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the tagged variants of Value.
type Kind int

const (
	// KindNull is the absence of a value (also the zero Value).
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is the opaque tagged value exchanged between steps through Context.
// It is tree-shaped by construction: a list or map Value owns copies of its
// children, never a reference back into an ancestor.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// NewString wraps a string.
func NewString(s string) Value { return Value{kind: KindString, str: s} }

// NewNumber wraps a float64.
func NewNumber(n float64) Value { return Value{kind: KindNumber, num: n} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewList wraps a slice of values, copying it.
func NewList(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// NewMap wraps a map of values, copying it.
func NewMap(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindMap, m: cp}
}

// Kind reports which variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string form of v regardless of kind: the scalar
// contents for string/number/bool, "" for null, and a JSON rendering for
// list/map. This is the degrade-to-text path used by the concat aggregation
// strategy and by Context's "missing key defaults to empty string" rule.
func (v Value) AsString() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNull:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// String implements fmt.Stringer via AsString.
func (v Value) String() string { return v.AsString() }

// Number returns the numeric value and whether v is a KindNumber.
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Bool returns the boolean value and whether v is a KindBool.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// List returns the element slice and whether v is a KindList.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Map returns the field map and whether v is a KindMap.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// FromAny wraps a native Go value (as produced by encoding/json or
// gopkg.in/yaml.v3 unmarshalling into interface{}) into a Value tree.
func FromAny(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case string:
		return NewString(t)
	case bool:
		return NewBool(t)
	case int:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case float64:
		return NewNumber(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return NewList(items)
	case []Value:
		return NewList(t)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = FromAny(item)
		}
		return NewMap(fields)
	case map[any]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[fmt.Sprintf("%v", k)] = FromAny(item)
		}
		return NewMap(fields)
	case Value:
		return t
	default:
		return NewString(fmt.Sprintf("%v", t))
	}
}

// ToAny unwraps a Value tree back into native Go types, mirroring FromAny.
func (v Value) ToAny() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.ToAny()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// sortedMapKeys returns m's keys sorted, for walking a Value map
// deterministically.
func sortedMapKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
