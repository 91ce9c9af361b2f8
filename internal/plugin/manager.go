// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Loaded is a started external plugin.
type Loaded interface {
	bridge.Plugin
	Close() error
}

// Loader starts plugins of one tier.
type Loader interface {
	Load(ctx context.Context, m *Manifest) (Loaded, error)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLoader handles tier with l.
func WithLoader(tier Tier, l Loader) ManagerOption {
	return func(m *Manager) {
		m.loaders[tier] = l
	}
}

// Manager discovers external plugins under a directory and runs them.
// Each subdirectory holding a plugin.yaml is one plugin.
type Manager struct {
	dir     string
	loaders map[Tier]Loader

	mu        sync.RWMutex
	instances map[string]*Instance
}

func NewManager(dir string, opts ...ManagerOption) *Manager {
	m := &Manager{
		dir:       dir,
		loaders:   make(map[Tier]Loader),
		instances: make(map[string]*Instance),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Discover reads every manifest under the plugin directory. Unreadable or
// invalid manifests are logged and skipped. A missing directory yields no
// plugins.
func (m *Manager) Discover(ctx context.Context) ([]*Manifest, error) {
	entries, err := os.ReadDir(m.dir)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePluginDiscoveryFailure, "reading plugins directory",
			errors.Field("dir", m.dir))
	}

	var manifests []*Manifest
	for _, entry := range entries {
		if ctx.Err() != nil {
			return manifests, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.dir, entry.Name())
		path := filepath.Join(dir, ManifestFile)
		data, err := os.ReadFile(path)
		if err != nil {
			if !stderrors.Is(err, fs.ErrNotExist) {
				slog.Warn("skipping plugin: cannot read manifest", "path", path, "error", err)
			}
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping plugin: invalid manifest", "path", path, "error", err)
			continue
		}
		manifest.Dir = dir

		m.mu.Lock()
		if _, dup := m.instances[manifest.Name]; dup {
			m.mu.Unlock()
			slog.Warn("skipping plugin: duplicate name", "path", path, "plugin", manifest.Name)
			continue
		}
		m.instances[manifest.Name] = newInstance(manifest)
		m.mu.Unlock()

		manifests = append(manifests, manifest)
	}

	return manifests, nil
}

// Start loads every discovered plugin and adds the ones that start to cat.
// A plugin that fails to load is left in StateError; Start itself only
// fails when the context ends.
func (m *Manager) Start(ctx context.Context, cat *Catalog) error {
	for _, inst := range m.List() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if inst.State() != StateDiscovered {
			continue
		}
		if err := inst.transition(StateLoading); err != nil {
			return err
		}

		loader, ok := m.loaders[inst.manifest.Tier]
		if !ok {
			err := errors.New(errors.CodePluginRuntimeStartFailure, "no loader for tier",
				errors.FieldPlugin(inst.Name()), errors.Field("tier", string(inst.manifest.Tier)))
			inst.fail(err)
			slog.Warn("plugin not started", "plugin", inst.Name(), "error", err)
			continue
		}

		loaded, err := loader.Load(ctx, inst.manifest)
		if err != nil {
			inst.fail(err)
			slog.Warn("plugin not started", "plugin", inst.Name(), "error", err)
			continue
		}

		inst.mu.Lock()
		inst.plugin = loaded
		inst.mu.Unlock()
		if err := inst.transition(StateRunning); err != nil {
			_ = loaded.Close()
			return err
		}

		cat.AddPlugin(loaded)
		slog.Info("plugin started", "plugin", inst.Name(), "tier", inst.manifest.Tier,
			"methods", len(loaded.Methods()))
	}
	return nil
}

func (m *Manager) Get(name string) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inst, ok := m.instances[name]
	if !ok {
		return nil, errors.Errorf(errors.CodePluginNotFound, "plugin %q not found", name)
	}
	return inst, nil
}

// List returns every known instance sorted by name.
func (m *Manager) List() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		list = append(list, inst)
	}
	sort.Slice(list, func(a, b int) bool { return list[a].Name() < list[b].Name() })
	return list
}

// Close stops every running plugin.
func (m *Manager) Close() error {
	var errs []error
	for _, inst := range m.List() {
		if inst.State() != StateRunning {
			continue
		}
		if err := inst.transition(StateStopping); err != nil {
			errs = append(errs, err)
			continue
		}
		inst.mu.RLock()
		p := inst.plugin
		inst.mu.RUnlock()
		if err := p.Close(); err != nil {
			inst.fail(err)
			errs = append(errs, err)
			continue
		}
		if err := inst.transition(StateStopped); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(stderrors.Join(errs...), errors.CodePluginRuntimeCallFailure, "stopping plugins")
	}
	return nil
}
