// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"context"
	"log/slog"

	hcplugin "github.com/hashicorp/go-plugin"

	"github.com/webbridge-dev/webbridge/internal/builtin"
	"github.com/webbridge-dev/webbridge/internal/config"
	"github.com/webbridge-dev/webbridge/internal/pageconfig"
	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/internal/plugin/goplugin"
	"github.com/webbridge-dev/webbridge/internal/plugin/wasm"
	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/internal/store"
	_ "github.com/webbridge-dev/webbridge/internal/store/sqlite" // register sqlite backend
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Host holds everything a bridge needs from the process: the plugin
// catalog, the page rules, and the backends behind them.
type Host struct {
	Catalog  *plugin.Catalog
	Provider *pageconfig.Provider
	// Plugins is nil when no plugin directory is configured.
	Plugins *plugin.Manager

	kv       store.KVStore
	wasmHost *wasm.Host
}

// WireHost builds the catalog from the built-in plugins and any external
// plugins found in the plugin directory, then compiles the page rules
// against it.
func WireHost(ctx context.Context, cfg *config.Config) (*Host, error) {
	h := &Host{Catalog: plugin.NewCatalog()}

	kv, err := store.NewKVStore(&store.StorageConfig{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCLISetupFailure, "opening plugin storage")
	}
	h.kv = kv

	deps := builtin.Deps{KV: kv}
	switch cfg.Plugins.Keychain {
	case "keyring":
		deps.Secrets = secrets.NewKeyringStore()
	case "memory":
		deps.Secrets = secrets.NewMemoryStore()
	}
	if cfg.Plugins.System {
		deps.Probe = builtin.GopsutilProbe{}
	}
	if cfg.Plugins.Clipboard {
		deps.Clipboard = builtin.SystemClipboard{}
	}
	builtin.Register(h.Catalog, deps)

	if cfg.Plugins.Dir != "" {
		h.wasmHost = wasm.NewHost(ctx, wasm.WithExecTimeout(cfg.Plugins.WasmTimeout))
		h.Plugins = plugin.NewManager(cfg.Plugins.Dir,
			plugin.WithLoader(plugin.TierWasm, wasm.Loader{Host: h.wasmHost}),
			plugin.WithLoader(plugin.TierProcess, goplugin.Loader{Launcher: cfg.Plugins.Launcher}),
		)

		manifests, err := h.Plugins.Discover(ctx)
		if err != nil {
			slog.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
		} else if len(manifests) > 0 {
			slog.Info("discovered plugins", "count", len(manifests))
		}
		if err := h.Plugins.Start(ctx, h.Catalog); err != nil {
			_ = h.Close()
			return nil, errors.Wrap(err, errors.CodeCLISetupFailure, "starting plugins")
		}
	}

	provider, err := pageconfig.New(h.Catalog, cfg.Pages)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	h.Provider = provider

	return h, nil
}

// Close stops external plugins and releases the storage backend.
func (h *Host) Close() error {
	var errs []error
	if h.Plugins != nil {
		if err := h.Plugins.Close(); err != nil {
			errs = append(errs, err)
		}
		hcplugin.CleanupClients()
	}
	if h.wasmHost != nil {
		if err := h.wasmHost.Close(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if h.kv != nil {
		if err := h.kv.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
