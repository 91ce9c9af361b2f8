// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func hostPlugin(name string) plugin.Factory {
	return func(u *url.URL) (bridge.Plugin, error) {
		host := ""
		if u != nil {
			host = u.Host
		}
		return bridge.NewPlugin(name, map[string]bridge.Handler{
			"host": func(cmd *bridge.Command) { cmd.SuccessWithString(host) },
		}), nil
	}
}

func TestCatalog_Build(t *testing.T) {
	cat := plugin.NewCatalog()
	cat.Add("b", hostPlugin("b"))
	cat.Add("a", hostPlugin("a"))
	cat.AddPlugin(bridge.NewPlugin("c", nil))
	cat.Add("dev.x", hostPlugin("dev.x"))

	assert.Equal(t, []string{"a", "b", "c", "dev.x"}, cat.Names())
	assert.True(t, cat.Has("a"))
	assert.False(t, cat.Has("z"))

	u, err := url.Parse("https://app.example.com/index.html")
	require.NoError(t, err)

	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{name: "ordered", names: []string{"b", "a"}, want: []string{"b", "a"}},
		{name: "wildcard", names: []string{"*"}, want: []string{"a", "b", "c", "dev.x"}},
		{name: "duplicates collapse", names: []string{"a", "*"}, want: []string{"a", "b", "c", "dev.x"}},
		{name: "empty", names: nil, want: []string{}},
		{name: "glob", names: []string{"dev.*"}, want: []string{"dev.x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugins, err := cat.Build(u, tt.names...)
			require.NoError(t, err)
			got := make([]string, 0, len(plugins))
			for _, p := range plugins {
				got = append(got, p.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_BuildUnknown(t *testing.T) {
	cat := plugin.NewCatalog()
	_, err := cat.Build(nil, "missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodePluginNotFound))
}

func TestCatalog_Describe(t *testing.T) {
	cat := plugin.NewCatalog()
	cat.Add("a", hostPlugin("a"))
	cat.Add("broken", func(*url.URL) (bridge.Plugin, error) {
		return nil, errors.New(errors.CodePluginRuntimeStartFailure, "nope")
	})

	desc := cat.Describe()
	assert.Equal(t, []string{"host"}, desc["a"])
	assert.Contains(t, desc, "broken")
	assert.Nil(t, desc["broken"])
}
