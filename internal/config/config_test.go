// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/internal/config"
	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *config.Config {
	return &config.Config{
		Bridge:  config.BridgeConfig{Namespace: "nativeBridge", ScriptTimeout: time.Second},
		Server:  config.ServerConfig{Listen: "127.0.0.1:8765"},
		Storage: config.StorageConfig{Backend: "memory"},
		Plugins: config.PluginsConfig{Keychain: "memory"},
		Telemetry: config.TelemetryConfig{
			SampleRatio: 1,
		},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "nativeBridge", cfg.Bridge.Namespace)
	assert.Equal(t, 10*time.Second, cfg.Bridge.ScriptTimeout)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Listen)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "webbridge", "storage.db"), cfg.Storage.Path)
	assert.Equal(t, "keyring", cfg.Plugins.Keychain)
	require.Len(t, cfg.Pages, 1)
	assert.Equal(t, []string{"*"}, cfg.Pages[0].Plugins)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
bridge:
  namespace: wb
  script_timeout: 250ms
storage:
  backend: memory
pages:
  - host: "*.example.com"
    path_prefix: /app
    plugins: [dev.webbridge.echo, "dev.webbridge.*"]
    settings:
      theme: dark
  - host: ads.example.com
    deny: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "wb", cfg.Bridge.Namespace)
	assert.Equal(t, 250*time.Millisecond, cfg.Bridge.ScriptTimeout)
	require.Len(t, cfg.Pages, 2)
	assert.Equal(t, "*.example.com", cfg.Pages[0].Host)
	assert.Equal(t, "/app", cfg.Pages[0].PathPrefix)
	assert.Equal(t, []string{"dev.webbridge.echo", "dev.webbridge.*"}, cfg.Pages[0].Plugins)
	assert.Equal(t, "dark", cfg.Pages[0].Settings["theme"])
	assert.True(t, cfg.Pages[1].Deny)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("WEBBRIDGE_SERVER_LISTEN", "0.0.0.0:9000")
	t.Setenv("WEBBRIDGE_STORAGE_BACKEND", "memory")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
	assert.Equal(t, "memory", cfg.Storage.Backend)
}

func TestLoad_ResolvesKeyringValues(t *testing.T) {
	store := secrets.NewMemoryStore()
	require.NoError(t, store.Set("webbridge", "otlp", "Bearer t0ken"))

	path := writeConfig(t, `
storage:
  backend: memory
telemetry:
  headers:
    authorization: keyring://webbridge/otlp
`)
	cfg, err := config.LoadWithSecrets(path, store)
	require.NoError(t, err)
	assert.Equal(t, "Bearer t0ken", cfg.Telemetry.Headers["authorization"])
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigLoadReadFailure))

	_, err = config.Load(writeConfig(t, "logging:\n  level: loud\nstorage:\n  backend: memory\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConfigValidateInvalidValue))
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.Empty(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"namespace empty", func(c *config.Config) { c.Bridge.Namespace = "" }, "bridge.namespace"},
		{"namespace not identifier", func(c *config.Config) { c.Bridge.Namespace = "native-bridge" }, "bridge.namespace"},
		{"namespace leading digit", func(c *config.Config) { c.Bridge.Namespace = "1bridge" }, "bridge.namespace"},
		{"timeout", func(c *config.Config) { c.Bridge.ScriptTimeout = 0 }, "bridge.script_timeout"},
		{"listen empty", func(c *config.Config) { c.Server.Listen = "" }, "server.listen"},
		{"listen no port", func(c *config.Config) { c.Server.Listen = "localhost" }, "server.listen"},
		{"listen bad port", func(c *config.Config) { c.Server.Listen = ":99999" }, "server.listen port"},
		{"origin", func(c *config.Config) { c.Server.AllowedOrigins = []string{"example.com"} }, "server.allowed_origins[0]"},
		{"storage", func(c *config.Config) { c.Storage.Backend = "postgres" }, "storage.backend"},
		{"keychain", func(c *config.Config) { c.Plugins.Keychain = "vault" }, "plugins.keychain"},
		{"sample ratio", func(c *config.Config) { c.Telemetry.SampleRatio = 2 }, "telemetry.sample_ratio"},
		{"telemetry endpoint", func(c *config.Config) { c.Telemetry.Enabled = true }, "telemetry.endpoint"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0].Error(), tt.want)
			assert.True(t, errors.HasCode(errs[0], errors.CodeConfigValidateInvalidValue))
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Bridge.Namespace = ""
	cfg.Storage.Backend = ""
	cfg.Logging.Level = ""
	assert.Len(t, cfg.Validate(), 3)
}

func TestValidate_AllowedOriginsWildcard(t *testing.T) {
	cfg := validConfig()
	cfg.Server.AllowedOrigins = []string{"*", "https://app.example.com"}
	assert.Empty(t, cfg.Validate())
}

func TestBootstrapConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "webbridge.yaml")
	assert.True(t, config.BootstrapConfig(path))
	assert.False(t, config.BootstrapConfig(path))

	t.Setenv("XDG_DATA_HOME", t.TempDir())
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nativeBridge", cfg.Bridge.Namespace)
	require.Len(t, cfg.Pages, 1)
	assert.Equal(t, "*", cfg.Pages[0].Host)
}
