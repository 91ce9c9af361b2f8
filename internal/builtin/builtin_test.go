// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/internal/builtin"
	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/internal/store"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

func TestRegister(t *testing.T) {
	cat := plugin.NewCatalog()
	builtin.Register(cat, builtin.Deps{})
	assert.Equal(t, []string{builtin.EchoName, builtin.TickerName}, cat.Names())

	cat = plugin.NewCatalog()
	builtin.Register(cat, builtin.Deps{
		KV:        store.NewMemoryKVStore(),
		Secrets:   secrets.NewMemoryStore(),
		Probe:     fakeProbe{},
		Clipboard: &memClipboard{},
	})
	assert.Len(t, cat.Names(), 6)

	u, err := url.Parse("https://app.example.com/")
	require.NoError(t, err)
	plugins, err := cat.Build(u, "dev.webbridge.*")
	require.NoError(t, err)
	require.Len(t, plugins, 6)

	var storage bridge.Plugin
	for _, p := range plugins {
		if p.Name() == builtin.StorageName {
			storage = p
		}
	}
	require.NotNil(t, storage)
	assert.Equal(t, []string{"clear", "get", "keys", "remove", "set"}, storage.Methods())
}
