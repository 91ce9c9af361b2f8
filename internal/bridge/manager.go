// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/internal/surface"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	bridgeerr "github.com/webbridge-dev/webbridge/pkg/errors"
)

const tracerName = "github.com/webbridge-dev/webbridge/internal/bridge"

// DefaultScriptTimeout bounds ExecuteJavaScript calls made by plugins.
const DefaultScriptTimeout = 10 * time.Second

var (
	_ bridge.Host      = (*Manager)(nil)
	_ surface.Listener = (*Manager)(nil)
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the page global the shim is installed under.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

func WithScriptTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.scriptTimeout = d
		}
	}
}

// PluginInfo describes a registered plugin.
type PluginInfo struct {
	Name    string   `json:"name"`
	Methods []string `json:"methods"`
}

// Manager routes commands from one page surface to native plugins and
// delivers their results back to the page.
//
// Commands that arrive before the page is ready are buffered and flushed in
// arrival order by FinishWebviewLoad. Each page load gets a fresh identity;
// results produced for an earlier page are dropped.
type Manager struct {
	name          string
	surface       surface.Surface
	provider      bridge.ConfigProvider
	registry      *plugin.Registry
	namespace     string
	tracer        trace.Tracer
	scriptTimeout time.Duration

	mu       sync.Mutex
	state    State
	pageID   string
	pageURL  string
	settings bridge.Settings
	pending  []gjson.Result
	// live holds callbacks that may still receive results; known also keeps
	// retired ones so late responses on the same page are still forwarded.
	live  map[string]*bridge.Command
	known map[string]struct{}

	// activePage mirrors pageID for checks made on the surface's domain.
	activePage atomic.Value
}

// NewManager creates a manager and attaches it to s. A nil provider attaches
// the bridge to every page with no plugins or settings.
func NewManager(name string, s surface.Surface, provider bridge.ConfigProvider, opts ...Option) *Manager {
	if provider == nil {
		provider = emptyProvider{}
	}
	m := &Manager{
		name:          name,
		surface:       s,
		provider:      provider,
		registry:      plugin.NewRegistry(),
		namespace:     DefaultNamespace,
		tracer:        otel.Tracer(tracerName),
		scriptTimeout: DefaultScriptTimeout,
		state:         StateUninitialized,
		live:          make(map[string]*bridge.Command),
		known:         make(map[string]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	m.setPageLocked(uuid.NewString())
	s.Attach(m)
	return m
}

func (m *Manager) Name() string { return m.name }

func (m *Manager) Namespace() string { return m.namespace }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// URL is the address of the page last seen loading.
func (m *Manager) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageURL
}

// PageID identifies the current page load.
func (m *Manager) PageID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pageID
}

func (m *Manager) Settings() bridge.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.settings)
}

// IsPending reports whether callbackID can still receive results on the
// current page.
func (m *Manager) IsPending(callbackID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live[callbackID]
	return ok
}

// PendingCallbacks returns the live callback ids in sorted order.
func (m *Manager) PendingCallbacks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.live))
	for id := range m.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BufferedCommands returns the number of commands waiting for readiness.
func (m *Manager) BufferedCommands() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Manager) Plugins() []PluginInfo {
	list := m.registry.List()
	out := make([]PluginInfo, len(list))
	for i, p := range list {
		out[i] = PluginInfo{Name: p.Name(), Methods: p.Methods()}
	}
	return out
}

func (m *Manager) GetPluginByName(name string) (bridge.Plugin, bool) {
	return m.registry.Lookup(name)
}

// RegisterPlugin adds p to the current page. A ready page is told about it
// immediately; otherwise it is announced with the readiness notification.
func (m *Manager) RegisterPlugin(p bridge.Plugin) {
	if p == nil {
		return
	}
	m.registry.Register(p)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateReady || m.state == StateDraining {
		m.enqueueLocked(m.pageID, registerScript(m.namespace, p))
	}
}

// UnregisterPlugin removes name from the current page. Commands already
// handed to the plugin keep delivering normally.
func (m *Manager) UnregisterPlugin(name string) {
	m.registry.Unregister(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateReady || m.state == StateDraining {
		m.enqueueLocked(m.pageID, unregisterScript(m.namespace, name))
	}
}

// ClearPlugins removes every plugin from the current page.
func (m *Manager) ClearPlugins() {
	m.registry.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateReady || m.state == StateDraining {
		m.enqueueLocked(m.pageID, "window."+m.namespace+"._clearPlugins();")
	}
}

// DidStartLoad starts a new page identity. Commands from the previous page
// are discarded and new ones are buffered until the page is ready.
func (m *Manager) DidStartLoad(u *url.URL) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.beginPageLocked()
	m.state = StateLoading
	m.pageURL = urlString(u)
	slog.Debug("page load started",
		"manager", m.name, "url", urlString(u), "page_id", m.pageID)
}

// DidFinishLoad consults the provider and either prepares the page and
// signals readiness, or detaches the bridge from it.
func (m *Manager) DidFinishLoad(ctx context.Context, u *url.URL) {
	m.mu.Lock()
	m.pageURL = urlString(u)
	m.mu.Unlock()

	if !m.provider.ShouldProvide(u) {
		m.detach(u)
		return
	}

	m.ResetWithPlugins(m.provider.PluginsFor(u), m.provider.SettingsFor(u))
	if err := m.FinishWebviewLoad(ctx); err != nil {
		slog.Warn("finishing page load",
			"manager", m.name, "url", urlString(u), "error", err)
	}
}

func (m *Manager) detach(u *url.URL) {
	m.registry.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.beginPageLocked()
	m.settings = nil
	m.state = StateDetached
	slog.Info("bridge not provided for page", "manager", m.name, "url", urlString(u))
}

// ResetWithPlugins prepares the manager for a new page with the given plugins
// and settings, then waits for FinishWebviewLoad.
//
// When a load has just started, or nothing has been loaded yet, commands
// buffered so far are kept as belonging to the new page. Otherwise the
// previous page's buffered commands and callbacks are discarded.
func (m *Manager) ResetWithPlugins(plugins []bridge.Plugin, settings bridge.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLoading && m.state != StateUninitialized {
		m.beginPageLocked()
	}
	clear(m.live)
	clear(m.known)
	m.registry.Replace(plugins)
	m.settings = maps.Clone(settings)
	m.state = StateAwaitingReady
	slog.Debug("bridge reset",
		"manager", m.name, "page_id", m.pageID, "plugins", len(plugins), "buffered", len(m.pending))
}

// FinishWebviewLoad notifies the page that the bridge is ready and flushes
// buffered commands in arrival order. Commands that arrive while the buffer
// drains join the end of it.
func (m *Manager) FinishWebviewLoad(ctx context.Context) error {
	m.mu.Lock()
	if !ValidTransition(m.state, StateDraining) {
		err := transitionError(m.state, StateDraining)
		m.mu.Unlock()
		return err
	}
	script, err := readyScript(m.namespace, m.settings, m.registry.List())
	if err != nil {
		slog.Warn("page settings not encodable, sending empty settings",
			"manager", m.name, "page_id", m.pageID, "error", err)
		m.settings = bridge.Settings{}
		script, _ = readyScript(m.namespace, m.settings, m.registry.List())
	}
	m.state = StateDraining
	page := m.pageID
	m.enqueueLocked(page, script)
	m.mu.Unlock()

	flushed := 0
	for {
		m.mu.Lock()
		if m.pageID != page || m.state != StateDraining {
			m.mu.Unlock()
			slog.Debug("page replaced while draining", "manager", m.name, "page_id", page)
			return nil
		}
		if len(m.pending) == 0 {
			m.state = StateReady
			m.mu.Unlock()
			break
		}
		raw := m.pending[0]
		m.pending[0] = gjson.Result{}
		m.pending = m.pending[1:]
		m.mu.Unlock()

		m.dispatch(ctx, page, raw)
		flushed++
	}

	slog.Debug("bridge ready", "manager", m.name, "page_id", page, "flushed", flushed)
	return nil
}

// HandleCommands decodes a batch of command descriptors and dispatches them
// in order, or buffers them while the page is not ready yet.
func (m *Manager) HandleCommands(ctx context.Context, batch []byte) {
	entries, err := splitBatch(batch)
	if err != nil {
		slog.Warn("dropping command batch", "manager", m.name, "error", err)
		return
	}

	for _, raw := range entries {
		m.mu.Lock()
		state := m.state
		if state.Buffering() {
			m.pending = append(m.pending, raw)
			m.mu.Unlock()
			continue
		}
		page := m.pageID
		m.mu.Unlock()

		if state == StateDetached {
			slog.Debug("dropping command for detached page", "manager", m.name)
			continue
		}
		m.dispatch(ctx, page, raw)
	}
}

func (m *Manager) dispatch(ctx context.Context, page string, raw gjson.Result) {
	d, err := decodeDescriptor(raw)
	if err != nil {
		if d.callbackID == "" {
			slog.Warn("dropping malformed command", "manager", m.name, "error", err)
			return
		}
		if !m.track(page, d.callbackID, nil) {
			return
		}
		slog.Warn("malformed command",
			"manager", m.name, "callback_id", d.callbackID, "error", err)
		m.deliver(page, d.callbackID,
			bridge.NewResult(bridge.StatusSerializationError, bridge.StringMessage(err.Error())))
		return
	}

	cmd := bridge.NewCommand(d.args, d.callbackID, m, bridge.WithPage(page))
	if !m.track(page, d.callbackID, cmd) {
		return
	}

	_, span := m.tracer.Start(ctx, "bridge.dispatch", trace.WithAttributes(
		attribute.String("bridge.manager", m.name),
		attribute.String("bridge.plugin", d.plugin),
		attribute.String("bridge.action", d.action),
		attribute.String("bridge.callback_id", d.callbackID),
	))
	defer span.End()

	p, ok := m.registry.Lookup(d.plugin)
	if ok && m.execute(p, d.action, cmd) {
		return
	}

	span.SetStatus(codes.Error, "invalid action")
	slog.Warn("unresolved plugin action",
		"manager", m.name, "plugin", d.plugin, "action", d.action,
		"callback_id", d.callbackID, "plugin_found", ok)
	m.deliver(page, d.callbackID, bridge.NewResult(bridge.StatusInvalidAction, bridge.NoMessage()))
}

// track records callbackID as live on page. It refuses ids that are already
// live and commands for a page that has been replaced.
func (m *Manager) track(page, callbackID string, cmd *bridge.Command) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pageID != page {
		return false
	}
	if _, dup := m.live[callbackID]; dup {
		slog.Warn("command with callback id already pending",
			"manager", m.name, "callback_id", callbackID)
		return false
	}
	m.live[callbackID] = cmd
	m.known[callbackID] = struct{}{}
	return true
}

func (m *Manager) execute(p bridge.Plugin, action string, cmd *bridge.Command) (recognized bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("plugin panic recovered",
				"manager", m.name,
				"plugin", p.Name(),
				"action", action,
				"callback_id", cmd.CallbackID(),
				"panic", r,
				"stack", string(debug.Stack()))
			cmd.ErrorWithStatus(bridge.StatusGenericError,
				bridge.StringMessage(fmt.Sprintf("plugin %s failed", p.Name())))
			recognized = true
		}
	}()
	return p.Execute(action, cmd)
}

// SendResult delivers a result produced by a plugin for cmd.
func (m *Manager) SendResult(cmd *bridge.Command, result bridge.Result) {
	if cmd == nil {
		return
	}
	m.deliver(cmd.PageID(), cmd.CallbackID(), result)
}

// SendPluginResponse delivers result to callbackID on the current page.
func (m *Manager) SendPluginResponse(callbackID string, result bridge.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverLocked(m.pageID, callbackID, result)
}

func (m *Manager) deliver(page, callbackID string, result bridge.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliverLocked(page, callbackID, result)
}

// deliverLocked is the single path by which results reach the page.
func (m *Manager) deliverLocked(page, callbackID string, result bridge.Result) {
	if page != m.pageID {
		slog.Debug("dropping result for replaced page",
			"manager", m.name, "callback_id", callbackID)
		return
	}
	if _, ok := m.known[callbackID]; !ok {
		slog.Debug("dropping result for unknown callback",
			"manager", m.name, "callback_id", callbackID)
		return
	}
	if !result.KeepCallback() {
		delete(m.live, callbackID)
	}
	m.enqueueLocked(page, callbackScript(m.namespace, callbackID, result))
}

// enqueueLocked hands script to the surface. Scripts reach the page in the
// order they were enqueued, and never reach a later page.
func (m *Manager) enqueueLocked(page, script string) {
	ok := m.surface.Dispatch(func(in surface.Injector) {
		if m.activePage.Load() != page {
			return
		}
		if err := in.Inject(script); err != nil {
			slog.Warn("script injection failed", "manager", m.name, "error", err)
		}
	})
	if !ok {
		slog.Debug("surface closed, dropping script", "manager", m.name)
	}
}

// ExecuteJavaScript evaluates source in the page asynchronously and reports
// the outcome to done, which may be nil.
func (m *Manager) ExecuteJavaScript(source string, done func(string, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.scriptTimeout)
		defer cancel()
		result, err := m.surface.ExecuteScript(ctx, source)
		if err != nil {
			err = bridgeerr.With(err, bridgeerr.Field("manager", m.name))
		}
		if done != nil {
			done(result, err)
		}
	}()
}

func (m *Manager) beginPageLocked() {
	m.setPageLocked(uuid.NewString())
	m.pending = nil
	clear(m.live)
	clear(m.known)
}

func (m *Manager) setPageLocked(id string) {
	m.pageID = id
	m.activePage.Store(id)
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

type emptyProvider struct{}

func (emptyProvider) ShouldProvide(*url.URL) bool { return true }
func (emptyProvider) PluginsFor(*url.URL) []bridge.Plugin { return nil }
func (emptyProvider) SettingsFor(*url.URL) bridge.Settings { return bridge.Settings{} }
