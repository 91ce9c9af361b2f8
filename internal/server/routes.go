// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-plugins",
		Method:      http.MethodGet,
		Path:        "/api/v1/plugins",
		Summary:     "List plugins the host can offer",
		Tags:        []string{"plugins"},
	}, s.handleListPlugins)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-plugin",
		Method:      http.MethodGet,
		Path:        "/api/v1/plugins/{name}",
		Summary:     "Get plugin details",
		Tags:        []string{"plugins"},
	}, s.handleGetPlugin)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions",
		Summary:     "List connected pages",
		Tags:        []string{"sessions"},
	}, s.handleListSessions)
}

// PluginSummary describes one plugin. External plugins that failed to start
// are listed with their error and no methods.
type PluginSummary struct {
	Name    string   `json:"name" doc:"Reverse-FQDN plugin name"`
	Methods []string `json:"methods" doc:"Actions the plugin accepts"`
	Source  string   `json:"source" enum:"builtin,external" doc:"Where the plugin comes from"`
	Version string   `json:"version,omitempty"`
	Tier    string   `json:"tier,omitempty" doc:"Runtime tier of an external plugin"`
	State   string   `json:"state,omitempty" doc:"Lifecycle state of an external plugin"`
	Error   string   `json:"error,omitempty"`
}

type listPluginsOutput struct {
	Body struct {
		Plugins []PluginSummary `json:"plugins"`
	}
}

type pluginNameInput struct {
	Name string `path:"name"`
}

type getPluginOutput struct {
	Body PluginSummary
}

// SessionSummary describes one connected page.
type SessionSummary struct {
	ID               string    `json:"id"`
	URL              string    `json:"url,omitempty"`
	Origin           string    `json:"origin,omitempty"`
	PageID           string    `json:"page_id"`
	State            string    `json:"state"`
	Plugins          []string  `json:"plugins"`
	PendingCallbacks int       `json:"pending_callbacks"`
	ConnectedAt      time.Time `json:"connected_at"`
}

type listSessionsOutput struct {
	Body struct {
		Sessions []SessionSummary `json:"sessions"`
	}
}

func (s *Server) pluginSummaries() []PluginSummary {
	byName := make(map[string]PluginSummary)
	for name, methods := range s.svc.Catalog.Describe() {
		byName[name] = PluginSummary{Name: name, Methods: methods, Source: "builtin"}
	}

	if s.svc.Plugins != nil {
		for _, inst := range s.svc.Plugins.List() {
			m := inst.Manifest()
			sum := byName[inst.Name()]
			sum.Name = inst.Name()
			sum.Source = "external"
			sum.Version = m.Version
			sum.Tier = string(m.Tier)
			sum.State = inst.State().String()
			if err := inst.Err(); err != nil {
				sum.Error = err.Error()
			}
			byName[inst.Name()] = sum
		}
	}

	out := make([]PluginSummary, 0, len(byName))
	for _, sum := range byName {
		if sum.Methods == nil {
			sum.Methods = []string{}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Server) handleListPlugins(context.Context, *struct{}) (*listPluginsOutput, error) {
	out := &listPluginsOutput{}
	out.Body.Plugins = s.pluginSummaries()
	return out, nil
}

func (s *Server) handleGetPlugin(_ context.Context, input *pluginNameInput) (*getPluginOutput, error) {
	for _, sum := range s.pluginSummaries() {
		if sum.Name == input.Name {
			return &getPluginOutput{Body: sum}, nil
		}
	}
	return nil, huma.Error404NotFound(fmt.Sprintf("plugin %q not found", input.Name))
}

func (s *Server) handleListSessions(context.Context, *struct{}) (*listSessionsOutput, error) {
	out := &listSessionsOutput{}
	out.Body.Sessions = s.sessions.summaries()
	return out, nil
}
