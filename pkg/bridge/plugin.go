// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	"net/url"
	"slices"
	"sort"
)

// Plugin is a named unit of native functionality invocable from the page.
//
// Execute reports whether action was recognized. It may return before any
// result is produced; the command is complete only once a responder on it is
// called.
type Plugin interface {
	// Name is unique within a manager and follows the reverse-FQDN convention.
	Name() string
	Methods() []string
	Execute(action string, cmd *Command) bool
}

// Host is the owning manager as seen from a Command and its plugin.
type Host interface {
	SendResult(cmd *Command, result Result)
	ExecuteJavaScript(source string, done func(result string, err error))
	GetPluginByName(name string) (Plugin, bool)
}

// Settings is the per-page configuration handed to the page on readiness.
type Settings map[string]any

// ConfigProvider decides, per URL, whether the bridge attaches to a page and
// with which plugins and settings.
type ConfigProvider interface {
	ShouldProvide(u *url.URL) bool
	PluginsFor(u *url.URL) []Plugin
	SettingsFor(u *url.URL) Settings
}

// Handler runs one plugin action.
type Handler func(cmd *Command)

type funcPlugin struct {
	name     string
	handlers map[string]Handler
}

// NewPlugin builds a Plugin from per-action handlers. Unknown actions are
// reported as unrecognized.
func NewPlugin(name string, handlers map[string]Handler) Plugin {
	return &funcPlugin{name: name, handlers: handlers}
}

func (p *funcPlugin) Name() string { return p.name }

func (p *funcPlugin) Methods() []string {
	methods := make([]string, 0, len(p.handlers))
	for m := range p.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func (p *funcPlugin) Execute(action string, cmd *Command) bool {
	h, ok := p.handlers[action]
	if !ok {
		return false
	}
	h(cmd)
	return true
}

// HasMethod reports whether p lists action among its methods.
func HasMethod(p Plugin, action string) bool {
	return slices.Contains(p.Methods(), action)
}
