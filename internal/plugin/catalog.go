// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin

import (
	"net/url"
	"sort"
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Factory builds a plugin instance for the page at u. u may be nil when the
// instance is only inspected.
type Factory func(u *url.URL) (bridge.Plugin, error)

// Catalog holds the plugin factories known to a host, keyed by plugin name.
// Page rules refer to plugins by name and the catalog instantiates them
// fresh for every page load.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// Add registers f under name, replacing any existing factory.
func (c *Catalog) Add(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// AddPlugin registers a single shared instance.
func (c *Catalog) AddPlugin(p bridge.Plugin) {
	c.Add(p.Name(), func(*url.URL) (bridge.Plugin, error) { return p, nil })
}

func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[name]
	return ok
}

// Names returns every registered plugin name in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named plugins for u, in the order given. Entries
// holding a glob (see MatchName) expand to every registered plugin they
// match, in sorted order.
func (c *Catalog) Build(u *url.URL, names ...string) ([]bridge.Plugin, error) {
	expanded := make([]string, 0, len(names))
	for _, name := range names {
		if !IsPattern(name) {
			expanded = append(expanded, name)
			continue
		}
		for _, candidate := range c.Names() {
			ok, err := MatchName(name, candidate)
			if err != nil {
				return nil, err
			}
			if ok {
				expanded = append(expanded, candidate)
			}
		}
	}

	seen := make(map[string]struct{}, len(expanded))
	plugins := make([]bridge.Plugin, 0, len(expanded))
	for _, name := range expanded {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		c.mu.RLock()
		f, ok := c.factories[name]
		c.mu.RUnlock()
		if !ok {
			return nil, errors.New(errors.CodePluginNotFound, "plugin not in catalog",
				errors.FieldPlugin(name))
		}
		p, err := f(u)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePluginRuntimeStartFailure, "instantiating plugin",
				errors.FieldPlugin(name))
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// Describe instantiates every plugin without a page and reports its methods.
// Plugins that fail to instantiate are reported with no methods.
func (c *Catalog) Describe() map[string][]string {
	out := make(map[string][]string)
	for _, name := range c.Names() {
		plugins, err := c.Build(nil, name)
		if err != nil || len(plugins) == 0 {
			out[name] = nil
			continue
		}
		methods := plugins[0].Methods()
		sort.Strings(methods)
		out[name] = methods
	}
	return out
}
