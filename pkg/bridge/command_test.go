// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge_test

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

type sent struct {
	callbackID string
	result     bridge.Result
}

type recordingHost struct {
	mu   sync.Mutex
	sent []sent
}

func (h *recordingHost) SendResult(cmd *bridge.Command, result bridge.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sent{callbackID: cmd.CallbackID(), result: result})
}

func (h *recordingHost) ExecuteJavaScript(string, func(string, error)) {}

func (h *recordingHost) GetPluginByName(string) (bridge.Plugin, bool) { return nil, false }

func (h *recordingHost) last(t *testing.T) bridge.Result {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.sent)
	return h.sent[len(h.sent)-1].result
}

func TestCommand_ArgumentAccessors(t *testing.T) {
	cmd := bridge.NewCommand([]bridge.Value{
		bridge.Int(1),
		bridge.String("x"),
		bridge.Null(),
		bridge.Number(2.75),
		bridge.Array(bridge.Int(1), bridge.Int(2)),
		bridge.Object(map[string]bridge.Value{"k": bridge.Bool(true)}),
		bridge.Int(0),
	}, "cb-1", nil)

	assert.Equal(t, 7, cmd.Len())
	assert.Equal(t, "cb-1", cmd.CallbackID())

	assert.True(t, cmd.HasBoolAt(0))
	assert.True(t, cmd.BoolAt(0, false))
	assert.True(t, cmd.HasBoolAt(6))
	assert.False(t, cmd.BoolAt(6, true))
	assert.False(t, cmd.HasBoolAt(1))
	assert.True(t, cmd.BoolAt(1, true))

	assert.Equal(t, "x", cmd.StringAt(1, "d"))
	assert.Equal(t, "d", cmd.StringAt(0, "d"))
	assert.Equal(t, "d", cmd.StringAt(2, "d"))
	assert.False(t, cmd.HasStringAt(2))

	assert.Equal(t, 2, cmd.IntAt(3, 9))
	assert.Equal(t, 2.75, cmd.DoubleAt(3, 0))
	assert.Equal(t, 9, cmd.IntAt(1, 9))

	assert.Len(t, cmd.ArrayAt(4, nil), 2)
	assert.Nil(t, cmd.ArrayAt(5, nil))
	fields := cmd.DictionaryAt(5, nil)
	require.Contains(t, fields, "k")
	assert.True(t, cmd.HasDictionaryAt(5))
	assert.False(t, cmd.HasDictionaryAt(4))
}

func TestCommand_IntAtOutOfRange(t *testing.T) {
	cmd := bridge.NewCommand([]bridge.Value{
		bridge.Number(1e20),
		bridge.Number(-1e20),
		bridge.Number(math.Inf(1)),
		bridge.Number(math.NaN()),
		bridge.Number(-3.7),
		bridge.Number(math.MinInt),
	}, "cb", nil)

	tests := []struct {
		name    string
		index   int
		wantHas bool
		want    int
	}{
		{name: "large positive", index: 0, want: 7},
		{name: "large negative", index: 1, want: 7},
		{name: "infinity", index: 2, want: 7},
		{name: "nan", index: 3, want: 7},
		{name: "negative fraction truncates", index: 4, wantHas: true, want: -3},
		{name: "min int fits", index: 5, wantHas: true, want: math.MinInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantHas, cmd.HasIntAt(tt.index))
			assert.Equal(t, tt.want, cmd.IntAt(tt.index, 7))
			assert.True(t, cmd.HasDoubleAt(tt.index))
		})
	}
}

func TestCommand_AbsentArguments(t *testing.T) {
	cmd := bridge.NewCommand([]bridge.Value{bridge.Null()}, "cb", nil)

	tests := []struct {
		name  string
		index int
	}{
		{name: "explicit null", index: 0},
		{name: "past end", index: 1},
		{name: "negative", index: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := cmd.ArgumentAt(tt.index)
			assert.False(t, ok)
			assert.Equal(t, bridge.String("def"), cmd.ArgumentOr(tt.index, bridge.String("def")))
			assert.Equal(t, 5, cmd.IntAt(tt.index, 5))
		})
	}
}

func TestCommand_ArgumentAs(t *testing.T) {
	cmd := bridge.NewCommand([]bridge.Value{bridge.Int(1), bridge.Int(3)}, "cb", nil)

	got := cmd.ArgumentAs(0, bridge.Bool(false), bridge.KindBool)
	b, ok := got.Bool()
	require.True(t, ok)
	assert.True(t, b)

	got = cmd.ArgumentAs(1, bridge.String("fallback"), bridge.KindBool)
	assert.Equal(t, bridge.String("fallback"), got)
}

func TestCommand_ArgumentsAreCopied(t *testing.T) {
	args := []bridge.Value{bridge.String("a")}
	cmd := bridge.NewCommand(args, "cb", nil)
	args[0] = bridge.String("b")

	assert.Equal(t, "a", cmd.StringAt(0, ""))

	out := cmd.Arguments()
	out[0] = bridge.String("c")
	assert.Equal(t, "a", cmd.StringAt(0, ""))
}

func TestCommand_Responders(t *testing.T) {
	tests := []struct {
		name       string
		respond    func(*bridge.Command)
		wantStatus bridge.Status
		wantKeep   bool
		wantScript string
	}{
		{
			name:       "success",
			respond:    (*bridge.Command).Success,
			wantStatus: bridge.StatusOK,
			wantScript: "null",
		},
		{
			name:       "success with int",
			respond:    func(c *bridge.Command) { c.SuccessWithInt(5) },
			wantStatus: bridge.StatusOK,
			wantScript: "5",
		},
		{
			name:       "success keep callback",
			respond:    func(c *bridge.Command) { c.SuccessAndKeepCallback(bridge.StringMessage("s")) },
			wantStatus: bridge.StatusOK,
			wantKeep:   true,
			wantScript: `"s"`,
		},
		{
			name:       "success with string keep callback",
			respond:    func(c *bridge.Command) { c.SuccessWithStringAndKeepCallback("s") },
			wantStatus: bridge.StatusOK,
			wantKeep:   true,
			wantScript: `"s"`,
		},
		{
			name:       "success with int keep callback",
			respond:    func(c *bridge.Command) { c.SuccessWithIntAndKeepCallback(3) },
			wantStatus: bridge.StatusOK,
			wantKeep:   true,
			wantScript: "3",
		},
		{
			name: "success with dictionary keep callback",
			respond: func(c *bridge.Command) {
				c.SuccessWithDictionaryAndKeepCallback(map[string]bridge.Message{"a": bridge.BoolMessage(true)})
			},
			wantStatus: bridge.StatusOK,
			wantKeep:   true,
			wantScript: `{"a":true}`,
		},
		{
			name:       "error with string",
			respond:    func(c *bridge.Command) { c.ErrorWithString("boom") },
			wantStatus: bridge.StatusGenericError,
			wantScript: `"boom"`,
		},
		{
			name:       "error keep callback",
			respond:    func(c *bridge.Command) { c.ErrorAndKeepCallback(bridge.BoolMessage(false)) },
			wantStatus: bridge.StatusGenericError,
			wantKeep:   true,
			wantScript: "false",
		},
		{
			name:       "error with int keep callback",
			respond:    func(c *bridge.Command) { c.ErrorWithIntAndKeepCallback(4) },
			wantStatus: bridge.StatusGenericError,
			wantKeep:   true,
			wantScript: "4",
		},
		{
			name:       "error with array keep callback",
			respond:    func(c *bridge.Command) { c.ErrorWithArrayAndKeepCallback([]bridge.Message{bridge.IntMessage(1)}) },
			wantStatus: bridge.StatusGenericError,
			wantKeep:   true,
			wantScript: "[1]",
		},
		{
			name: "error with status",
			respond: func(c *bridge.Command) {
				c.ErrorWithStatus(bridge.StatusInvalidAction, bridge.NoMessage())
			},
			wantStatus: bridge.StatusInvalidAction,
			wantScript: "null",
		},
		{
			name:       "progress",
			respond:    func(c *bridge.Command) { c.ProgressWithDouble(0.5) },
			wantStatus: bridge.StatusOK,
			wantKeep:   true,
			wantScript: "0.5",
		},
		{
			name: "dictionary",
			respond: func(c *bridge.Command) {
				c.SuccessWithDictionary(map[string]bridge.Message{
					"b": bridge.IntMessage(2),
					"a": bridge.StringMessage("x"),
				})
			},
			wantStatus: bridge.StatusOK,
			wantScript: `{"a":"x","b":2}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &recordingHost{}
			cmd := bridge.NewCommand(nil, "cb-9", host)

			tt.respond(cmd)

			got := host.last(t)
			assert.Equal(t, tt.wantStatus, got.Status())
			assert.Equal(t, tt.wantKeep, got.KeepCallback())
			assert.Equal(t, tt.wantScript, string(got.Message().AppendScript(nil)))
		})
	}
}

func TestCommand_WithPage(t *testing.T) {
	cmd := bridge.NewCommand(nil, "cb", nil, bridge.WithPage("page-1"))
	assert.Equal(t, "page-1", cmd.PageID())

	// No host: responders are a no-op.
	assert.NotPanics(t, cmd.Success)
}
