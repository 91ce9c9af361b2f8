// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package builtin provides the plugins every webbridge host ships with.
package builtin

import (
	"net/url"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/internal/store"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

const (
	EchoName      = "dev.webbridge.echo"
	TickerName    = "dev.webbridge.ticker"
	StorageName   = "dev.webbridge.storage"
	KeychainName  = "dev.webbridge.keychain"
	SystemName    = "dev.webbridge.system"
	ClipboardName = "dev.webbridge.clipboard"
)

// Deps are the backends shared by built-in plugin instances. A nil backend
// leaves the corresponding plugin out of the catalog.
type Deps struct {
	KV        store.KVStore
	Secrets   secrets.Store
	Probe     Probe
	Clipboard Clipboard
}

// Register adds every built-in plugin whose backend is available to cat.
func Register(cat *plugin.Catalog, deps Deps) {
	cat.AddPlugin(NewEcho())
	cat.AddPlugin(NewTicker())
	if deps.KV != nil {
		cat.Add(StorageName, func(u *url.URL) (bridge.Plugin, error) {
			return NewStorage(deps.KV, Origin(u)), nil
		})
	}
	if deps.Secrets != nil {
		cat.Add(KeychainName, func(u *url.URL) (bridge.Plugin, error) {
			return NewKeychain(deps.Secrets, Origin(u)), nil
		})
	}
	if deps.Probe != nil {
		cat.AddPlugin(NewSystem(deps.Probe))
	}
	if deps.Clipboard != nil {
		cat.AddPlugin(NewClipboard(deps.Clipboard))
	}
}

// Origin is the scope a page's persisted data lives under: scheme and host
// for network pages, the scheme alone for everything else.
func Origin(u *url.URL) string {
	switch {
	case u == nil:
		return "null"
	case u.Host != "":
		return u.Scheme + "://" + u.Host
	case u.Scheme != "":
		return u.Scheme + ":"
	default:
		return "null"
	}
}

// failWith answers cmd with status and the error text.
func failWith(cmd *bridge.Command, status bridge.Status, err error) {
	cmd.ErrorWithStatus(status, bridge.StringMessage(err.Error()))
}
