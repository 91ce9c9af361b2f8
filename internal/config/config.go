// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package config

import (
	stderrors "errors"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/webbridge-dev/webbridge/internal/pageconfig"
	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Config is the top-level webbridge configuration.
type Config struct {
	Bridge    BridgeConfig      `mapstructure:"bridge"`
	Server    ServerConfig      `mapstructure:"server"`
	Storage   StorageConfig     `mapstructure:"storage"`
	Plugins   PluginsConfig     `mapstructure:"plugins"`
	Pages     []pageconfig.Rule `mapstructure:"pages"`
	Telemetry TelemetryConfig   `mapstructure:"telemetry"`
	Logging   LoggingConfig     `mapstructure:"logging"`
}

// BridgeConfig controls the page-side bridge object.
type BridgeConfig struct {
	// Namespace is the window property the shim installs itself under.
	Namespace     string        `mapstructure:"namespace"`
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
}

// ServerConfig controls the development host.
type ServerConfig struct {
	Listen         string          `mapstructure:"listen"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles new bridge connections per client IP.
type RateLimitConfig struct {
	// RequestsPerSecond of zero disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// StorageConfig selects the backend behind the storage plugin.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// PluginsConfig controls which plugins the host offers.
type PluginsConfig struct {
	// Dir is scanned for plugin.yaml manifests. Empty disables discovery.
	Dir       string `mapstructure:"dir"`
	Keychain  string `mapstructure:"keychain"`
	Clipboard bool   `mapstructure:"clipboard"`
	System    bool   `mapstructure:"system"`

	// Launcher is prepended to the command line of process-tier plugins,
	// e.g. ["nice", "-n", "10"].
	Launcher []string `mapstructure:"launcher"`
	// WasmTimeout bounds a single wasm-tier call. Zero disables the bound.
	WasmTimeout time.Duration `mapstructure:"wasm_timeout"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Endpoint    string            `mapstructure:"endpoint"`
	Insecure    bool              `mapstructure:"insecure"`
	Headers     map[string]string `mapstructure:"headers"`
	ServiceName string            `mapstructure:"service_name"`
	SampleRatio float64           `mapstructure:"sample_ratio"`
}

// LoggingConfig controls the process-wide slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bridge.namespace", "nativeBridge")
	v.SetDefault("bridge.script_timeout", "10s")
	v.SetDefault("server.listen", "127.0.0.1:8765")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 10)
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", "")
	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.keychain", "keyring")
	v.SetDefault("plugins.clipboard", true)
	v.SetDefault("plugins.system", true)
	v.SetDefault("plugins.launcher", []string{})
	v.SetDefault("plugins.wasm_timeout", "5s")
	v.SetDefault("pages", []map[string]any{{"plugins": []string{"*"}}})
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.service_name", "webbridge")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads configuration from path (or defaults only when path is empty)
// with WEBBRIDGE_ environment overrides, then resolves keyring:// values.
func Load(path string) (*Config, error) {
	return LoadWithSecrets(path, secrets.NewKeyringStore())
}

// LoadWithSecrets is Load with an explicit store for keyring:// values.
func LoadWithSecrets(path string, store secrets.Store) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("WEBBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, errors.CodeConfigLoadReadFailure, "reading config %s", path)
		}
	}

	if err := secrets.ResolveViper(v, store); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseInvalidFormat, "unmarshalling config")
	}

	if cfg.Storage.Path == "" && cfg.Storage.Backend == "sqlite" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.Path = filepath.Join(dir, "storage.db")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.Wrap(stderrors.Join(errs...), errors.CodeConfigValidateInvalidValue, "validating config")
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting every
// problem rather than stopping at the first.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateBridge()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validatePlugins()...)
	errs = append(errs, c.validateTelemetry()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

func invalid(format string, args ...any) error {
	return errors.Errorf(errors.CodeConfigValidateInvalidValue, "config: "+format, args...)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func (c *Config) validateBridge() []error {
	var errs []error
	if !isIdentifier(c.Bridge.Namespace) {
		errs = append(errs, invalid("bridge.namespace must be a script identifier, got %q", c.Bridge.Namespace))
	}
	if c.Bridge.ScriptTimeout <= 0 {
		errs = append(errs, invalid("bridge.script_timeout must be positive, got %s", c.Bridge.ScriptTimeout))
	}
	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		return append(errs, invalid("server.listen must not be empty"))
	}
	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		return append(errs, invalid("server.listen must be a valid host:port address, got %q", c.Server.Listen))
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		errs = append(errs, invalid("server.listen port must be between 0 and 65535, got %q", portStr))
	}

	for i, origin := range c.Server.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, invalid("server.allowed_origins[%d] must be an absolute origin, got %q", i, origin))
		}
	}

	if rl := c.Server.RateLimit; rl.RequestsPerSecond < 0 {
		errs = append(errs, invalid("server.rate_limit.requests_per_second must not be negative, got %g", rl.RequestsPerSecond))
	} else if rl.RequestsPerSecond > 0 && rl.Burst <= 0 {
		errs = append(errs, invalid("server.rate_limit.burst must be positive when a rate is set, got %d", rl.Burst))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
		return nil
	default:
		return []error{invalid("storage.backend must be one of [sqlite, memory], got %q", c.Storage.Backend)}
	}
}

func (c *Config) validatePlugins() []error {
	var errs []error
	switch c.Plugins.Keychain {
	case "keyring", "memory", "off":
	default:
		errs = append(errs, invalid("plugins.keychain must be one of [keyring, memory, off], got %q", c.Plugins.Keychain))
	}
	if c.Plugins.WasmTimeout < 0 {
		errs = append(errs, invalid("plugins.wasm_timeout must not be negative, got %s", c.Plugins.WasmTimeout))
	}
	return errs
}

func (c *Config) validateTelemetry() []error {
	var errs []error
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, invalid("telemetry.sample_ratio must be between 0 and 1, got %g", c.Telemetry.SampleRatio))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, invalid("telemetry.endpoint is required when telemetry is enabled"))
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, invalid("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, invalid("logging.format must be one of [text, json], got %q", c.Logging.Format))
	}
	return errs
}
