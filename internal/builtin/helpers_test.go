// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

// resultHost records every result sent for its commands.
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

func (h *resultHost) all() []bridge.Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]bridge.Result(nil), h.results...)
}

// call runs action synchronously and returns the single result it produced.
func call(t *testing.T, p bridge.Plugin, action string, args ...bridge.Value) bridge.Result {
	t.Helper()
	h := &resultHost{}
	require.True(t, p.Execute(action, bridge.NewCommand(args, "cb", h)), "action %s not recognized", action)
	results := h.all()
	require.Len(t, results, 1)
	return results[0]
}

func str(t *testing.T, m bridge.Message) string {
	t.Helper()
	s, ok := m.Str()
	require.True(t, ok, "message kind %s", m.Kind())
	return s
}

func strs(t *testing.T, m bridge.Message) []string {
	t.Helper()
	items, ok := m.Items()
	require.True(t, ok, "message kind %s", m.Kind())
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = str(t, item)
	}
	return out
}
