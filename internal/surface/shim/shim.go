// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package shim holds the page-side scripts that pair with the bridge.
package shim

import (
	_ "embed"
	"strings"
)

//go:embed bridge.js
var bridgeJS string

//go:embed bridge-ws.js
var bridgeWSJS string

// Bridge returns the page shim installed under namespace.
func Bridge(namespace string) string {
	return strings.ReplaceAll(bridgeJS, "__NS__", namespace)
}

// WebSocket returns the browser transport that connects the shim to a host
// at endpoint. A path-only endpoint is resolved against the page's host.
func WebSocket(namespace, endpoint string) string {
	return strings.NewReplacer("__NS__", namespace, "__ENDPOINT__", endpoint).Replace(bridgeWSJS)
}
