// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin

import (
	"slices"
	"sort"
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

// Registry maps plugin names to instances. Registering an existing name
// replaces the previous instance. Nil plugins are ignored.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]bridge.Plugin
}

func NewRegistry(plugins ...bridge.Plugin) *Registry {
	r := &Registry{plugins: make(map[string]bridge.Plugin, len(plugins))}
	for _, p := range plugins {
		if p != nil {
			r.plugins[p.Name()] = p
		}
	}
	return r
}

func (r *Registry) Register(p bridge.Plugin) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Name()] = p
}

// Unregister removes name if present. Commands already handed to the plugin
// are unaffected.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.plugins, name)
}

func (r *Registry) Lookup(name string) (bridge.Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.plugins)
}

// Replace clears the registry and registers plugins in one step. Later
// entries win on duplicate names.
func (r *Registry) Replace(plugins []bridge.Plugin) {
	next := make(map[string]bridge.Plugin, len(plugins))
	for _, p := range plugins {
		if p != nil {
			next[p.Name()] = p
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins = next
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered plugins ordered by name.
func (r *Registry) List() []bridge.Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]bridge.Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		list = append(list, p)
	}
	slices.SortFunc(list, func(a, b bridge.Plugin) int {
		switch {
		case a.Name() < b.Name():
			return -1
		case a.Name() > b.Name():
			return 1
		default:
			return 0
		}
	})
	return list
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}
