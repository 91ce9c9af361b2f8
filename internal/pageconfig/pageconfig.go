// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package pageconfig decides, from configured rules, which pages the bridge
// attaches to and which plugins and settings each page receives.
package pageconfig

import (
	stderrors "errors"
	"log/slog"
	"maps"
	"net/url"
	"path"
	"strings"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Rule selects pages by URL. Empty fields match anything. Host is a glob
// over the lowercase hostname ("*.example.com"); PathPrefix must prefix the
// URL path.
type Rule struct {
	Scheme     string         `mapstructure:"scheme" yaml:"scheme"`
	Host       string         `mapstructure:"host" yaml:"host"`
	PathPrefix string         `mapstructure:"path_prefix" yaml:"path_prefix"`
	Plugins    []string       `mapstructure:"plugins" yaml:"plugins"`
	Settings   map[string]any `mapstructure:"settings" yaml:"settings"`
	// Deny stops the bridge from attaching to matching pages.
	Deny bool `mapstructure:"deny" yaml:"deny"`
}

// Matches reports whether r selects u.
func (r Rule) Matches(u *url.URL) bool {
	if u == nil {
		return false
	}
	if r.Scheme != "" && !strings.EqualFold(r.Scheme, u.Scheme) {
		return false
	}
	if r.Host != "" {
		ok, err := path.Match(strings.ToLower(r.Host), strings.ToLower(u.Hostname()))
		if err != nil || !ok {
			return false
		}
	}
	if r.PathPrefix != "" && !strings.HasPrefix(u.Path, r.PathPrefix) {
		return false
	}
	return true
}

// Validate checks r against the plugins known to cat.
func (r Rule) Validate(cat *plugin.Catalog) []error {
	var errs []error
	if r.Host != "" {
		if _, err := path.Match(r.Host, ""); err != nil {
			errs = append(errs, errors.Errorf(errors.CodeConfigValidateInvalidValue,
				"pages: invalid host pattern %q", r.Host))
		}
	}
	for _, name := range r.Plugins {
		if plugin.IsPattern(name) || cat.Has(name) {
			continue
		}
		errs = append(errs, errors.Errorf(errors.CodeConfigValidateInvalidValue,
			"pages: unknown plugin %q", name))
	}
	return errs
}

var _ bridge.ConfigProvider = (*Provider)(nil)

// Provider applies the first rule that matches a URL. URLs no rule matches
// are not provided for.
type Provider struct {
	catalog *plugin.Catalog
	rules   []Rule
}

// New validates rules against cat and returns a provider over them.
func New(cat *plugin.Catalog, rules []Rule) (*Provider, error) {
	var errs []error
	for _, r := range rules {
		errs = append(errs, r.Validate(cat)...)
	}
	if len(errs) > 0 {
		return nil, errors.Wrap(stderrors.Join(errs...), errors.CodeConfigValidateInvalidValue, "invalid page rules")
	}
	return &Provider{catalog: cat, rules: append([]Rule(nil), rules...)}, nil
}

func (p *Provider) match(u *url.URL) (Rule, bool) {
	for _, r := range p.rules {
		if r.Matches(u) {
			return r, true
		}
	}
	return Rule{}, false
}

func (p *Provider) ShouldProvide(u *url.URL) bool {
	r, ok := p.match(u)
	return ok && !r.Deny
}

// PluginsFor instantiates the matching rule's plugins for u. A plugin that
// fails to instantiate leaves the page with no plugins.
func (p *Provider) PluginsFor(u *url.URL) []bridge.Plugin {
	r, ok := p.match(u)
	if !ok || r.Deny {
		return nil
	}
	plugins, err := p.catalog.Build(u, r.Plugins...)
	if err != nil {
		slog.Error("building page plugins", "url", u.Redacted(), "error", err)
		return nil
	}
	return plugins
}

func (p *Provider) SettingsFor(u *url.URL) bridge.Settings {
	r, ok := p.match(u)
	if !ok || r.Deny {
		return nil
	}
	return bridge.Settings(maps.Clone(r.Settings))
}

// Static provides the same plugins and settings to every page.
type Static struct {
	Plugins  []bridge.Plugin
	Settings bridge.Settings
}

var _ bridge.ConfigProvider = Static{}

func (s Static) ShouldProvide(*url.URL) bool { return true }

func (s Static) PluginsFor(*url.URL) []bridge.Plugin { return s.Plugins }

func (s Static) SettingsFor(*url.URL) bridge.Settings { return maps.Clone(s.Settings) }
