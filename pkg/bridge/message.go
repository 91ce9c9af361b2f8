// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"strconv"
)

// MessageKind identifies the payload variant carried by a Message.
type MessageKind uint8

const (
	MessageNone MessageKind = iota
	MessageBool
	MessageInt
	MessageDouble
	MessageString
	MessageArray
	MessageMap
	MessageMultipart
)

func (k MessageKind) String() string {
	switch k {
	case MessageNone:
		return "none"
	case MessageBool:
		return "bool"
	case MessageInt:
		return "int"
	case MessageDouble:
		return "double"
	case MessageString:
		return "string"
	case MessageArray:
		return "array"
	case MessageMap:
		return "map"
	case MessageMultipart:
		return "multipart"
	default:
		return "unknown"
	}
}

// Message is the payload of a Result. The zero Message carries nothing and
// serializes to null.
type Message struct {
	kind  MessageKind
	b     bool
	i     int64
	d     float64
	s     string
	arr   []Message
	m     map[string]Message
	parts []Result
}

func NoMessage() Message { return Message{} }

func BoolMessage(b bool) Message { return Message{kind: MessageBool, b: b} }

func IntMessage(i int64) Message { return Message{kind: MessageInt, i: i} }

func DoubleMessage(d float64) Message { return Message{kind: MessageDouble, d: d} }

func StringMessage(s string) Message { return Message{kind: MessageString, s: s} }

func ArrayMessage(items ...Message) Message {
	return Message{kind: MessageArray, arr: slices.Clone(items)}
}

func MapMessage(fields map[string]Message) Message {
	if fields == nil {
		fields = map[string]Message{}
	}
	return Message{kind: MessageMap, m: maps.Clone(fields)}
}

// MultipartMessage fans several logically distinct results out in one
// delivery. Each part keeps its own status.
func MultipartMessage(parts ...Result) Message {
	return Message{kind: MessageMultipart, parts: slices.Clone(parts)}
}

// ValueMessage converts an argument value into a message. Integral numbers
// become MessageInt.
func ValueMessage(v Value) Message {
	switch v.Kind() {
	case KindBool:
		b, _ := v.Bool()
		return BoolMessage(b)
	case KindNumber:
		n, _ := v.Number()
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return IntMessage(int64(n))
		}
		return DoubleMessage(n)
	case KindString:
		s, _ := v.Str()
		return StringMessage(s)
	case KindArray:
		items, _ := v.Items()
		out := make([]Message, len(items))
		for i, item := range items {
			out[i] = ValueMessage(item)
		}
		return Message{kind: MessageArray, arr: out}
	case KindObject:
		fields, _ := v.Fields()
		out := make(map[string]Message, len(fields))
		for k, item := range fields {
			out[k] = ValueMessage(item)
		}
		return Message{kind: MessageMap, m: out}
	default:
		return NoMessage()
	}
}

func (m Message) Kind() MessageKind { return m.kind }

func (m Message) Bool() (bool, bool) { return m.b, m.kind == MessageBool }

func (m Message) Int() (int64, bool) { return m.i, m.kind == MessageInt }

func (m Message) Double() (float64, bool) { return m.d, m.kind == MessageDouble }

func (m Message) Str() (string, bool) { return m.s, m.kind == MessageString }

func (m Message) Items() ([]Message, bool) {
	return slices.Clone(m.arr), m.kind == MessageArray
}

func (m Message) Fields() (map[string]Message, bool) {
	return maps.Clone(m.m), m.kind == MessageMap
}

func (m Message) Parts() ([]Result, bool) {
	return slices.Clone(m.parts), m.kind == MessageMultipart
}

// AppendScript appends the script literal for m to dst. The output is valid
// JSON; non-finite doubles are written as null.
func (m Message) AppendScript(dst []byte) []byte {
	switch m.kind {
	case MessageBool:
		return strconv.AppendBool(dst, m.b)
	case MessageInt:
		return strconv.AppendInt(dst, m.i, 10)
	case MessageDouble:
		if math.IsNaN(m.d) || math.IsInf(m.d, 0) {
			return append(dst, "null"...)
		}
		return strconv.AppendFloat(dst, m.d, 'g', -1, 64)
	case MessageString:
		return appendString(dst, m.s)
	case MessageArray:
		dst = append(dst, '[')
		for i, item := range m.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendScript(dst)
		}
		return append(dst, ']')
	case MessageMap:
		dst = append(dst, '{')
		for i, k := range slices.Sorted(maps.Keys(m.m)) {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendString(dst, k)
			dst = append(dst, ':')
			dst = m.m[k].AppendScript(dst)
		}
		return append(dst, '}')
	case MessageMultipart:
		dst = append(dst, '[')
		for i, part := range m.parts {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = append(dst, `{"status":`...)
			dst = strconv.AppendInt(dst, int64(part.Status()), 10)
			dst = append(dst, `,"message":`...)
			dst = part.Message().AppendScript(dst)
			dst = append(dst, '}')
		}
		return append(dst, ']')
	default:
		return append(dst, "null"...)
	}
}

func (m Message) MarshalJSON() ([]byte, error) {
	return m.AppendScript(nil), nil
}

// appendString writes s as a JSON string literal. encoding/json already
// escapes U+2028 and U+2029, which keeps the literal safe inside a script.
func appendString(dst []byte, s string) []byte {
	encoded, _ := json.Marshal(s)
	return append(dst, encoded...)
}
