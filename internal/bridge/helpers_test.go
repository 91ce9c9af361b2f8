// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge_test

import (
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	bridgemgr "github.com/webbridge-dev/webbridge/internal/bridge"
	"github.com/webbridge-dev/webbridge/internal/surface/surfacetest"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

// holdPlugin keeps every command it receives so tests can respond later.
type holdPlugin struct {
	name string

	mu   sync.Mutex
	cmds map[string]*bridge.Command
	seen []string
}

func newHoldPlugin(name string) *holdPlugin {
	return &holdPlugin{name: name, cmds: make(map[string]*bridge.Command)}
}

func (p *holdPlugin) Name() string { return p.name }
func (p *holdPlugin) Methods() []string { return []string{"hold"} }

func (p *holdPlugin) Execute(action string, cmd *bridge.Command) bool {
	if action != "hold" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cmds[cmd.CallbackID()] = cmd
	p.seen = append(p.seen, cmd.StringAt(0, ""))
	return true
}

func (p *holdPlugin) command(t *testing.T, callbackID string) *bridge.Command {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, ok := p.cmds[callbackID]
	require.True(t, ok, "no command for callback %s", callbackID)
	return cmd
}

func (p *holdPlugin) arguments() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.seen...)
}

func echoPlugin() bridge.Plugin {
	return bridge.NewPlugin("echo", map[string]bridge.Handler{
		"echo": func(cmd *bridge.Command) {
			cmd.SuccessWithString(cmd.StringAt(0, ""))
		},
		"boom": func(cmd *bridge.Command) {
			panic("plugin exploded")
		},
	})
}

// readyManager returns a manager that has finished loading a page with the
// given plugins, with the readiness script already flushed and cleared.
func readyManager(t *testing.T, plugins ...bridge.Plugin) (*bridgemgr.Manager, *surfacetest.Recorder) {
	t.Helper()
	rec := surfacetest.New()
	m := bridgemgr.NewManager("test", rec, nil)
	m.ResetWithPlugins(plugins, nil)
	require.NoError(t, m.FinishWebviewLoad(t.Context()))
	rec.Flush()
	rec.Reset()
	return m, rec
}

type ruleProvider struct {
	host     string
	plugins  []bridge.Plugin
	settings bridge.Settings
}

func (p ruleProvider) ShouldProvide(u *url.URL) bool { return u != nil && u.Hostname() == p.host }
func (p ruleProvider) PluginsFor(*url.URL) []bridge.Plugin { return p.plugins }
func (p ruleProvider) SettingsFor(*url.URL) bridge.Settings { return p.settings }

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
