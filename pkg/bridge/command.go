// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import "slices"

// Command is one invocation from the page. It is built once by the manager,
// handed to exactly one plugin action, and may be kept by the plugin to send
// further results while the previous result kept the callback alive.
type Command struct {
	args       []Value
	callbackID string
	pageID     string
	host       Host
}

// CommandOption configures a Command at construction.
type CommandOption func(*Command)

// WithPage binds the command to the page load it arrived on.
func WithPage(pageID string) CommandOption {
	return func(c *Command) {
		c.pageID = pageID
	}
}

func NewCommand(args []Value, callbackID string, host Host, opts ...CommandOption) *Command {
	c := &Command{
		args:       slices.Clone(args),
		callbackID: callbackID,
		host:       host,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Command) CallbackID() string { return c.callbackID }

// PageID identifies the page load the command belongs to.
func (c *Command) PageID() string { return c.pageID }

// Host returns the manager that owns this command.
func (c *Command) Host() Host { return c.host }

func (c *Command) Len() int { return len(c.args) }

func (c *Command) Arguments() []Value { return slices.Clone(c.args) }

// ArgumentAt returns the argument at index. Out-of-range indexes and explicit
// nulls are both reported as absent.
func (c *Command) ArgumentAt(index int) (Value, bool) {
	if index < 0 || index >= len(c.args) {
		return Value{}, false
	}
	v := c.args[index]
	if v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// ArgumentOr returns the argument at index, or def when it is absent.
func (c *Command) ArgumentOr(index int, def Value) Value {
	if v, ok := c.ArgumentAt(index); ok {
		return v
	}
	return def
}

// ArgumentAs returns the argument at index, or def when it is absent or
// cannot be read as kind.
func (c *Command) ArgumentAs(index int, def Value, kind Kind) Value {
	v, ok := c.ArgumentAt(index)
	if !ok || !kind.Accepts(v) {
		return def
	}
	return v
}

func (c *Command) has(index int, kind Kind) bool {
	v, ok := c.ArgumentAt(index)
	return ok && kind.Accepts(v)
}

func (c *Command) HasBoolAt(index int) bool { return c.has(index, KindBool) }

// BoolAt reads a boolean slot. The numbers 1 and 0 read as true and false.
func (c *Command) BoolAt(index int, def bool) bool {
	b, ok := c.ArgumentAs(index, Bool(def), KindBool).Bool()
	if !ok {
		return def
	}
	return b
}

func (c *Command) HasIntAt(index int) bool {
	if !c.has(index, KindNumber) {
		return false
	}
	_, ok := c.args[index].Int()
	return ok
}

func (c *Command) IntAt(index int, def int) int {
	if !c.HasIntAt(index) {
		return def
	}
	n, _ := c.args[index].Int()
	return n
}

func (c *Command) HasDoubleAt(index int) bool { return c.has(index, KindNumber) }

func (c *Command) DoubleAt(index int, def float64) float64 {
	n, ok := c.ArgumentAs(index, Number(def), KindNumber).Number()
	if !ok {
		return def
	}
	return n
}

func (c *Command) HasStringAt(index int) bool { return c.has(index, KindString) }

func (c *Command) StringAt(index int, def string) string {
	s, ok := c.ArgumentAs(index, String(def), KindString).Str()
	if !ok {
		return def
	}
	return s
}

func (c *Command) HasArrayAt(index int) bool { return c.has(index, KindArray) }

func (c *Command) ArrayAt(index int, def []Value) []Value {
	if !c.HasArrayAt(index) {
		return def
	}
	items, _ := c.args[index].Items()
	return items
}

func (c *Command) HasDictionaryAt(index int) bool { return c.has(index, KindObject) }

func (c *Command) DictionaryAt(index int, def map[string]Value) map[string]Value {
	if !c.HasDictionaryAt(index) {
		return def
	}
	fields, _ := c.args[index].Fields()
	return fields
}

// SendResult forwards result to the owning manager for delivery.
func (c *Command) SendResult(result Result) {
	if c.host == nil {
		return
	}
	c.host.SendResult(c, result)
}

func (c *Command) success(msg Message, keep bool) {
	c.SendResult(NewResult(StatusOK, msg).WithKeepCallback(keep))
}

func (c *Command) fail(msg Message, keep bool) {
	c.SendResult(NewResult(StatusGenericError, msg).WithKeepCallback(keep))
}

func (c *Command) Success() { c.success(NoMessage(), false) }
func (c *Command) SuccessWithBool(b bool) { c.success(BoolMessage(b), false) }
func (c *Command) SuccessWithInt(i int) { c.success(IntMessage(int64(i)), false) }
func (c *Command) SuccessWithDouble(d float64) { c.success(DoubleMessage(d), false) }
func (c *Command) SuccessWithString(s string) { c.success(StringMessage(s), false) }
func (c *Command) SuccessWithArray(a []Message) { c.success(ArrayMessage(a...), false) }
func (c *Command) SuccessWithMultipart(p ...Result) { c.success(MultipartMessage(p...), false) }
func (c *Command) SuccessWithMessage(m Message) { c.success(m, false) }

func (c *Command) SuccessWithDictionary(d map[string]Message) {
	c.success(MapMessage(d), false)
}

// SuccessAndKeepCallback delivers a success while keeping the page callback
// registered for further responses.
func (c *Command) SuccessAndKeepCallback(m Message) { c.success(m, true) }

func (c *Command) SuccessWithBoolAndKeepCallback(b bool) { c.success(BoolMessage(b), true) }
func (c *Command) SuccessWithIntAndKeepCallback(i int) { c.success(IntMessage(int64(i)), true) }
func (c *Command) SuccessWithDoubleAndKeepCallback(d float64) {
	c.success(DoubleMessage(d), true)
}
func (c *Command) SuccessWithStringAndKeepCallback(s string) { c.success(StringMessage(s), true) }
func (c *Command) SuccessWithArrayAndKeepCallback(a []Message) {
	c.success(ArrayMessage(a...), true)
}
func (c *Command) SuccessWithDictionaryAndKeepCallback(d map[string]Message) {
	c.success(MapMessage(d), true)
}
func (c *Command) SuccessWithMultipartAndKeepCallback(p ...Result) {
	c.success(MultipartMessage(p...), true)
}

func (c *Command) Error() { c.fail(NoMessage(), false) }
func (c *Command) ErrorWithBool(b bool) { c.fail(BoolMessage(b), false) }
func (c *Command) ErrorWithInt(i int) { c.fail(IntMessage(int64(i)), false) }
func (c *Command) ErrorWithDouble(d float64) { c.fail(DoubleMessage(d), false) }
func (c *Command) ErrorWithString(s string) { c.fail(StringMessage(s), false) }
func (c *Command) ErrorWithArray(a []Message) { c.fail(ArrayMessage(a...), false) }
func (c *Command) ErrorWithMessage(m Message) { c.fail(m, false) }

func (c *Command) ErrorWithDictionary(d map[string]Message) {
	c.fail(MapMessage(d), false)
}

func (c *Command) ErrorAndKeepCallback(m Message) { c.fail(m, true) }

func (c *Command) ErrorWithBoolAndKeepCallback(b bool) { c.fail(BoolMessage(b), true) }
func (c *Command) ErrorWithIntAndKeepCallback(i int) { c.fail(IntMessage(int64(i)), true) }
func (c *Command) ErrorWithDoubleAndKeepCallback(d float64) { c.fail(DoubleMessage(d), true) }
func (c *Command) ErrorWithStringAndKeepCallback(s string) { c.fail(StringMessage(s), true) }
func (c *Command) ErrorWithArrayAndKeepCallback(a []Message) { c.fail(ArrayMessage(a...), true) }
func (c *Command) ErrorWithDictionaryAndKeepCallback(d map[string]Message) {
	c.fail(MapMessage(d), true)
}

// ErrorWithStatus delivers a failure classified with a plugin-selected status.
func (c *Command) ErrorWithStatus(status Status, m Message) {
	c.SendResult(NewResult(status, m))
}

// Progress responses always keep the callback.
func (c *Command) Progress() { c.success(NoMessage(), true) }
func (c *Command) ProgressWithBool(b bool) { c.success(BoolMessage(b), true) }
func (c *Command) ProgressWithInt(i int) { c.success(IntMessage(int64(i)), true) }
func (c *Command) ProgressWithDouble(d float64) { c.success(DoubleMessage(d), true) }
func (c *Command) ProgressWithString(s string) { c.success(StringMessage(s), true) }
func (c *Command) ProgressWithArray(a []Message) { c.success(ArrayMessage(a...), true) }
func (c *Command) ProgressWithMessage(m Message) { c.success(m, true) }

func (c *Command) ProgressWithDictionary(d map[string]Message) {
	c.success(MapMessage(d), true)
}
