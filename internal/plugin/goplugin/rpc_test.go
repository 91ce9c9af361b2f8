// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package goplugin_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/internal/plugin/goplugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

var textBackend = goplugin.Handlers{
	"upper": func(args []bridge.Value) ([]bridge.Result, error) {
		s, ok := args[0].Str()
		if !ok {
			return []bridge.Result{bridge.NewResult(bridge.StatusInvalidAction, bridge.StringMessage("want a string"))}, nil
		}
		return []bridge.Result{bridge.NewResult(bridge.StatusOK, bridge.StringMessage(strings.ToUpper(s)))}, nil
	},
	"split": func(args []bridge.Value) ([]bridge.Result, error) {
		s, _ := args[0].Str()
		var results []bridge.Result
		for _, w := range strings.Fields(s) {
			results = append(results, bridge.NewResult(bridge.StatusOK, bridge.StringMessage(w)).WithKeepCallback(true))
		}
		return results, nil
	},
	"describe": func([]bridge.Value) ([]bridge.Result, error) {
		return []bridge.Result{bridge.NewResult(bridge.StatusOK, bridge.MapMessage(map[string]bridge.Message{
			"count": bridge.IntMessage(2),
			"parts": bridge.MultipartMessage(
				bridge.NewResult(bridge.StatusOK, bridge.DoubleMessage(1.5)),
				bridge.NewResult(bridge.StatusIOError, bridge.ArrayMessage(bridge.BoolMessage(true))),
			),
		}))}, nil
	},
	"fail": func([]bridge.Value) ([]bridge.Result, error) {
		return nil, fmt.Errorf("backend exploded")
	},
}

func dispense(t *testing.T) *goplugin.RPCClient {
	t.Helper()
	client, _ := plugin.TestPluginRPCConn(t, goplugin.PluginMap(textBackend), nil)
	t.Cleanup(func() { _ = client.Close() })

	raw, err := client.Dispense("backend")
	require.NoError(t, err)
	stub, ok := raw.(*goplugin.RPCClient)
	require.True(t, ok)
	return stub
}

type resultHost struct {
	mu      sync.Mutex
	results []bridge.Result
}

func (h *resultHost) SendResult(_ *bridge.Command, r bridge.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, r)
}

func (h *resultHost) ExecuteJavaScript(string, func(string, error)) {}

func (h *resultHost) GetPluginByName(string) (bridge.Plugin, bool) { return nil, false }

func (h *resultHost) waitFor(t *testing.T, n int) []bridge.Result {
	t.Helper()
	var out []bridge.Result
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		out = append([]bridge.Result(nil), h.results...)
		return len(out) >= n
	}, 2*time.Second, 5*time.Millisecond)
	return out
}

func TestRPCClient_Methods(t *testing.T) {
	stub := dispense(t)

	methods, err := stub.Methods()
	require.NoError(t, err)
	assert.Equal(t, []string{"describe", "fail", "split", "upper"}, methods)
}

func TestRPCClient_Invoke(t *testing.T) {
	stub := dispense(t)

	results, err := stub.Invoke("upper", []bridge.Value{bridge.String("hello")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	s, _ := results[0].Message().Str()
	assert.Equal(t, "HELLO", s)

	results, err = stub.Invoke("describe", nil)
	require.NoError(t, err)
	fields, ok := results[0].Message().Fields()
	require.True(t, ok)
	n, _ := fields["count"].Int()
	assert.Equal(t, int64(2), n)
	parts, ok := fields["parts"].Parts()
	require.True(t, ok)
	require.Len(t, parts, 2)
	d, _ := parts[0].Message().Double()
	assert.Equal(t, 1.5, d)
	assert.Equal(t, bridge.StatusIOError, parts[1].Status())

	results, err = stub.Invoke("nope", nil)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusInvalidAction, results[0].Status())

	_, err = stub.Invoke("fail", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend exploded")
}

func TestRemote(t *testing.T) {
	stub := dispense(t)
	killed := false

	remote, err := goplugin.NewRemote("com.example.text", stub, nil, func() { killed = true })
	require.NoError(t, err)
	assert.Equal(t, "com.example.text", remote.Name())
	assert.Equal(t, []string{"describe", "fail", "split", "upper"}, remote.Methods())

	t.Run("single result", func(t *testing.T) {
		h := &resultHost{}
		require.True(t, remote.Execute("upper", bridge.NewCommand([]bridge.Value{bridge.String("go")}, "cb", h)))
		got := h.waitFor(t, 1)
		s, _ := got[0].Message().Str()
		assert.Equal(t, "GO", s)
		assert.False(t, got[0].KeepCallback())
	})

	t.Run("last result releases callback", func(t *testing.T) {
		h := &resultHost{}
		require.True(t, remote.Execute("split", bridge.NewCommand([]bridge.Value{bridge.String("a b c")}, "cb", h)))
		got := h.waitFor(t, 3)
		assert.True(t, got[0].KeepCallback())
		assert.True(t, got[1].KeepCallback())
		assert.False(t, got[2].KeepCallback())
	})

	t.Run("transport error", func(t *testing.T) {
		h := &resultHost{}
		require.True(t, remote.Execute("fail", bridge.NewCommand(nil, "cb", h)))
		got := h.waitFor(t, 1)
		assert.Equal(t, bridge.StatusIOError, got[0].Status())
	})

	t.Run("unknown action", func(t *testing.T) {
		assert.False(t, remote.Execute("missing", bridge.NewCommand(nil, "cb", &resultHost{})))
	})

	require.NoError(t, remote.Close())
	assert.True(t, killed)
}

func TestNewRemote_RestrictedMethods(t *testing.T) {
	stub := dispense(t)

	remote, err := goplugin.NewRemote("text", stub, []string{"upper"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"upper"}, remote.Methods())
	require.NoError(t, remote.Close())

	_, err = goplugin.NewRemote("text", stub, []string{"translate"}, nil)
	assert.Error(t, err)
}
