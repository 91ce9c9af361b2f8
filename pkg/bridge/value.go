// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	bridgeerr "github.com/webbridge-dev/webbridge/pkg/errors"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Accepts reports whether v can be read as a value of kind k.
//
// KindBool also accepts the numbers 1 and 0. Pages have historically sent
// flags either way, so the two are indistinguishable through this check.
func (k Kind) Accepts(v Value) bool {
	if v.kind == k {
		return true
	}
	if k == KindBool && v.kind == KindNumber {
		return v.num == 1 || v.num == 0
	}
	return false
}

// Value is an argument decoded from the page: null, bool, number, string,
// array or object. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	arr  []Value
	obj  map[string]Value
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func Int(n int) Value { return Value{kind: KindNumber, num: float64(n)} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, obj: maps.Clone(fields)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean reading of v, applying the 1/0 coercion.
func (v Value) Bool() (bool, bool) {
	switch {
	case v.kind == KindBool:
		return v.b, true
	case KindBool.Accepts(v):
		return v.num == 1, true
	default:
		return false, false
	}
}

func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// intLimit is 2^63 (2^31 on 32-bit platforms), the first magnitude past the
// int range. It is exact as a float64.
var intLimit = -float64(math.MinInt)

// Int returns the number truncated toward zero. Numbers outside the int range
// report false.
func (v Value) Int() (int, bool) {
	if v.kind != KindNumber || math.IsNaN(v.num) || v.num >= intLimit || v.num < -intLimit {
		return 0, false
	}
	return int(v.num), true
}

func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Items returns a copy of the array elements.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return slices.Clone(v.arr), true
}

// Fields returns a copy of the object members.
func (v Value) Fields() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return maps.Clone(v.obj), true
}

// Interface converts v to plain Go values: nil, bool, float64, string,
// []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return bridgeerr.Wrap(err, bridgeerr.CodeBridgeArgumentDecodeInvalid, "decoding value")
	}
	decoded, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// ParseValue decodes a JSON document into a Value.
func ParseValue(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Value{}, err
	}
	return v, nil
}

// FromInterface converts decoded JSON or configuration data into a Value.
func FromInterface(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, bridgeerr.Wrap(err, bridgeerr.CodeBridgeArgumentDecodeInvalid, "decoding number")
		}
		return Number(n), nil
	case string:
		return String(t), nil
	case Value:
		return t, nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Value{kind: KindArray, arr: items}, nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			fields[k] = v
		}
		return Value{kind: KindObject, obj: fields}, nil
	case map[any]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			fields[fmt.Sprint(k)] = v
		}
		return Value{kind: KindObject, obj: fields}, nil
	default:
		return Value{}, bridgeerr.Errorf(bridgeerr.CodeBridgeArgumentDecodeInvalid,
			"unsupported value type %T", raw)
	}
}
