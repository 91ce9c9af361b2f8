// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package goplugin runs process-tier plugins as hashicorp/go-plugin
// subprocesses speaking net/rpc.
package goplugin

import (
	"os/exec"
	"slices"

	"github.com/hashicorp/go-plugin"
)

const (
	protocolVersion = 1
	magicCookieKey  = "WEBBRIDGE_PLUGIN"
	magicCookieVal  = "d2ViYnJpZGdlLXByb2Nlc3MtcGx1Z2lu" // "webbridge-process-plugin" base64

	// pluginKey is the single plugin every process serves.
	pluginKey = "backend"
)

func HandshakeConfig() plugin.HandshakeConfig {
	return plugin.HandshakeConfig{
		ProtocolVersion:  protocolVersion,
		MagicCookieKey:   magicCookieKey,
		MagicCookieValue: magicCookieVal,
	}
}

// PluginMap is the plugin set on both sides of the connection. The host
// passes a nil impl.
func PluginMap(impl Backend) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		pluginKey: &BackendPlugin{Impl: impl},
	}
}

// ClientConfig launches binaryPath, prefixed by launcher when non-empty.
func ClientConfig(binaryPath string, launcher []string) *plugin.ClientConfig {
	return &plugin.ClientConfig{
		HandshakeConfig:  HandshakeConfig(),
		Plugins:          PluginMap(nil),
		Cmd:              buildCommand(binaryPath, launcher),
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
	}
}

func buildCommand(binaryPath string, launcher []string) *exec.Cmd {
	if len(launcher) == 0 {
		return exec.Command(binaryPath)
	}

	args := append(slices.Clone(launcher), binaryPath)
	return exec.Command(args[0], args[1:]...)
}

// Serve runs impl as a plugin process. It is called from the plugin's main
// and does not return.
func Serve(impl Backend) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig(),
		Plugins:         PluginMap(impl),
	})
}
