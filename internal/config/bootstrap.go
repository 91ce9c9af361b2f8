// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

//go:embed webbridge.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/webbridge/webbridge.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConfigLoadReadFailure, "resolving config directory")
	}
	return filepath.Join(dir, "webbridge", "webbridge.yaml"), nil
}

// DefaultDataDir returns ~/.local/share/webbridge, honouring XDG_DATA_HOME.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "webbridge"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConfigLoadReadFailure, "resolving home directory")
	}
	return filepath.Join(home, ".local", "share", "webbridge"), nil
}

// BootstrapConfig writes the default config to path unless a file already
// exists there. It returns true when a file was written. Failures are logged
// and otherwise ignored.
func BootstrapConfig(path string) bool {
	if _, err := os.Stat(path); err == nil {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		slog.Debug("skipping config bootstrap", "path", path, "error", err)
		return false
	}
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap", "path", path, "error", err)
		return false
	}
	slog.Info("created default config", "path", path)
	return true
}
