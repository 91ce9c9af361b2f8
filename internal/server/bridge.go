// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package server

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bridgemgr "github.com/webbridge-dev/webbridge/internal/bridge"
	"github.com/webbridge-dev/webbridge/internal/surface/shim"
	"github.com/webbridge-dev/webbridge/internal/surface/wsbridge"
)

// BridgePath is the websocket endpoint pages connect to.
const BridgePath = "/api/v1/bridge"

func (s *Server) registerBridgeRoutes() {
	s.router.Get("/bridge.js", s.handleShim)
	s.router.Get("/bridge-ws.js", s.handleTransport)
	s.router.With(rateLimitMiddleware(s.cfg.RateLimit, s.done)).Get(BridgePath, s.handleBridge)
}

func (s *Server) namespace() string {
	if s.cfg.Namespace == "" {
		return bridgemgr.DefaultNamespace
	}
	return s.cfg.Namespace
}

func writeScript(w http.ResponseWriter, source string) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write([]byte(source))
}

func (s *Server) handleShim(w http.ResponseWriter, _ *http.Request) {
	writeScript(w, shim.Bridge(s.namespace()))
}

func (s *Server) handleTransport(w http.ResponseWriter, _ *http.Request) {
	writeScript(w, shim.WebSocket(s.namespace(), BridgePath))
}

// handleBridge attaches a fresh bridge manager to the connecting page and
// serves it until the page goes away.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	conn, err := wsbridge.Accept(w, r, s.cfg.AllowedOrigins, "page-"+id[:8])
	if err != nil {
		slog.Warn("rejecting bridge connection",
			"remote", r.RemoteAddr, "origin", r.Header.Get("Origin"), "error", err)
		return
	}

	mgr := bridgemgr.NewManager(id, conn, s.svc.Provider,
		bridgemgr.WithNamespace(s.namespace()),
		bridgemgr.WithScriptTimeout(s.cfg.ScriptTimeout),
		bridgemgr.WithTracer(s.svc.Tracer),
	)

	sess := &session{
		id:          id,
		origin:      r.Header.Get("Origin"),
		conn:        conn,
		mgr:         mgr,
		connectedAt: time.Now().UTC(),
	}
	if !s.sessions.add(sess) {
		conn.Close()
		return
	}
	defer s.sessions.remove(id)

	slog.Info("page connected", "session", id, "origin", sess.origin, "remote", r.RemoteAddr)
	if err := conn.Serve(s.baseCtx); err != nil {
		slog.Warn("page connection ended with error", "session", id, "error", err)
	}
	slog.Info("page disconnected", "session", id, "url", mgr.URL())
}

type session struct {
	id          string
	origin      string
	conn        *wsbridge.Conn
	mgr         *bridgemgr.Manager
	connectedAt time.Time
}

type sessions struct {
	mu     sync.Mutex
	byID   map[string]*session
	closed bool
}

func newSessions() *sessions {
	return &sessions{byID: make(map[string]*session)}
}

// add reports false once closeAll has run.
func (ss *sessions) add(s *session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.closed {
		return false
	}
	ss.byID[s.id] = s
	return true
}

func (ss *sessions) remove(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.byID, id)
}

func (ss *sessions) snapshot() []*session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*session, 0, len(ss.byID))
	for _, s := range ss.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].connectedAt.Equal(out[j].connectedAt) {
			return out[i].connectedAt.Before(out[j].connectedAt)
		}
		return out[i].id < out[j].id
	})
	return out
}

func (ss *sessions) closeAll() {
	ss.mu.Lock()
	ss.closed = true
	ss.mu.Unlock()

	for _, s := range ss.snapshot() {
		s.conn.Close()
	}
}

func (ss *sessions) summaries() []SessionSummary {
	list := ss.snapshot()
	out := make([]SessionSummary, len(list))
	for i, s := range list {
		infos := s.mgr.Plugins()
		names := make([]string, len(infos))
		for j, p := range infos {
			names[j] = p.Name
		}
		out[i] = SessionSummary{
			ID:               s.id,
			URL:              s.mgr.URL(),
			Origin:           s.origin,
			PageID:           s.mgr.PageID(),
			State:            s.mgr.State().String(),
			Plugins:          names,
			PendingCallbacks: len(s.mgr.PendingCallbacks()),
			ConnectedAt:      s.connectedAt,
		}
	}
	return out
}
