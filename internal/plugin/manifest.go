// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin

import (
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Tier selects how an external plugin is executed.
type Tier string

const (
	// TierWasm runs a WebAssembly module in-process; exported functions
	// become actions.
	TierWasm Tier = "wasm"
	// TierProcess runs a separate executable speaking the go-plugin
	// protocol.
	TierProcess Tier = "process"
)

// ManifestFile is the file discovery looks for in each plugin directory.
const ManifestFile = "plugin.yaml"

var (
	segmentRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	methodRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// semverRe matches MAJOR.MINOR.PATCH with optional pre-release and
	// build metadata and no "v" prefix.
	semverRe = regexp.MustCompile(
		`^(?:0|[1-9]\d*)\.(?:0|[1-9]\d*)\.(?:0|[1-9]\d*)` +
			`(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?` +
			`(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`,
	)
)

// Manifest describes an external plugin on disk.
type Manifest struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description,omitempty"`
	Tier        Tier     `yaml:"tier"`
	Entry       string   `yaml:"entry"`
	Methods     []string `yaml:"methods,omitempty"`

	// Dir is the directory the manifest was read from.
	Dir string `yaml:"-"`
}

// ParseManifest decodes and validates a manifest. All validation problems
// are reported together.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.CodePluginManifestValidateInvalid, "parsing manifest")
	}
	if errs := m.Validate(); len(errs) > 0 {
		return nil, errors.Wrap(errs[0], errors.CodePluginManifestValidateInvalid, "validating manifest",
			errors.Field("problems", len(errs)))
	}
	return &m, nil
}

func invalidManifest(format string, args ...any) error {
	return errors.Errorf(errors.CodePluginManifestValidateInvalid, "manifest: "+format, args...)
}

// Validate checks the manifest and returns every problem found.
func (m *Manifest) Validate() []error {
	var errs []error

	if !validPluginName(m.Name) {
		errs = append(errs, invalidManifest("name must be a dotted identifier such as com.example.maps, got %q", m.Name))
	}

	switch {
	case m.Version == "":
		errs = append(errs, invalidManifest("version must not be empty"))
	case !semverRe.MatchString(m.Version):
		errs = append(errs, invalidManifest("version must be semver (MAJOR.MINOR.PATCH), got %q", m.Version))
	}

	switch m.Tier {
	case TierWasm, TierProcess:
	default:
		errs = append(errs, invalidManifest("tier must be one of [wasm, process], got %q", m.Tier))
	}

	switch {
	case strings.TrimSpace(m.Entry) == "":
		errs = append(errs, invalidManifest("entry must not be empty"))
	case filepath.IsAbs(m.Entry) || strings.HasPrefix(filepath.Clean(m.Entry), ".."):
		errs = append(errs, invalidManifest("entry must stay inside the plugin directory, got %q", m.Entry))
	}

	seen := make(map[string]bool, len(m.Methods))
	for i, method := range m.Methods {
		if !methodRe.MatchString(method) {
			errs = append(errs, invalidManifest("methods[%d] %q is not a valid action name", i, method))
		}
		if seen[method] {
			errs = append(errs, invalidManifest("methods[%d] %q is listed twice", i, method))
		}
		seen[method] = true
	}

	return errs
}

// EntryPath resolves Entry against the manifest directory.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, filepath.Clean(m.Entry))
}

func validPluginName(name string) bool {
	if !validDotted(name) {
		return false
	}
	for _, seg := range strings.Split(name, ".") {
		if !segmentRe.MatchString(seg) {
			return false
		}
	}
	return true
}
