// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package wsbridge attaches the bridge to a browser page over a websocket.
// The page runs the shim plus the websocket transport script; the host
// injects script by sending it over the socket.
package wsbridge

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webbridge-dev/webbridge/internal/runloop"
	"github.com/webbridge-dev/webbridge/internal/surface"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var _ surface.Surface = (*Conn)(nil)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 << 20
)

// Message types exchanged with the page.
const (
	TypeLoadStart  = "load-start"
	TypeLoadFinish = "load-finish"
	TypeExec       = "exec"
	TypeResult     = "result"
	TypeInject     = "inject"
	TypeEval       = "eval"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type   string `json:"type"`
	URL    string `json:"url,omitempty"`
	Batch  string `json:"batch,omitempty"`
	ID     int64  `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
	Value  string `json:"value,omitempty"`
	Error  string `json:"error,omitempty"`
}

type evalResult struct {
	value string
	err   error
}

// Conn is one connected page.
type Conn struct {
	name string
	ws   *websocket.Conn
	loop *runloop.Loop

	mu       sync.Mutex
	listener surface.Listener
	waiters  map[int64]chan evalResult
	nextID   int64

	done      chan struct{}
	closeOnce sync.Once
}

// Upgrader returns a websocket upgrader accepting the given origins. An
// empty list or "*" accepts any origin.
func Upgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 || slices.Contains(origins, "*") {
				return true
			}
			return slices.Contains(origins, r.Header.Get("Origin"))
		},
	}
}

// Accept upgrades the request and wraps the connection.
func Accept(w http.ResponseWriter, r *http.Request, origins []string, name string) (*Conn, error) {
	up := Upgrader(origins)
	ws, err := up.Upgrade(w, r, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBridgeTransportFailure, "upgrading websocket")
	}
	return NewConn(ws, name), nil
}

func NewConn(ws *websocket.Conn, name string) *Conn {
	ws.SetReadLimit(maxMessageSize)
	return &Conn{
		name:    name,
		ws:      ws,
		loop:    runloop.New(name),
		waiters: make(map[int64]chan evalResult),
		done:    make(chan struct{}),
	}
}

func (c *Conn) Name() string { return c.name }

func (c *Conn) Attach(l surface.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

func (c *Conn) attached() surface.Listener {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listener
}

func (c *Conn) Dispatch(fn func(surface.Injector)) bool {
	return c.loop.Post(func() {
		fn(injector{c})
	})
}

// ExecuteScript sends source to the page and waits for its result.
func (c *Conn) ExecuteScript(ctx context.Context, source string) (string, error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan evalResult, 1)
	c.waiters[id] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	err := c.loop.Submit(ctx, func(context.Context) error {
		return c.write(Message{Type: TypeEval, ID: id, Source: source})
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeRunloopClosed) {
			return "", errors.New(errors.CodeBridgeSurfaceClosed, "page connection closed",
				errors.Field("surface", c.name))
		}
		return "", err
	}

	select {
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), errors.CodeBridgeScriptTimeout, "waiting for page result",
			errors.Field("surface", c.name))
	case <-c.done:
		return "", errors.New(errors.CodeBridgeSurfaceClosed, "page connection closed",
			errors.Field("surface", c.name))
	case res := <-ch:
		return res.value, res.err
	}
}

// Serve reads frames from the page until the connection closes or ctx is
// done. Listener calls run on the connection's loop in frame order.
func (c *Conn) Serve(ctx context.Context) error {
	defer c.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.Close()
	})
	defer stop()

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.CodeBridgeTransportFailure, "reading page frame",
				errors.Field("surface", c.name))
		}
		c.handle(ctx, msg)
	}
}

func (c *Conn) handle(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeLoadStart, TypeLoadFinish:
		u, err := url.Parse(msg.URL)
		if err != nil {
			slog.Warn("ignoring load event with bad url",
				"surface", c.name, "url", msg.URL, "error", err)
			return
		}
		c.loop.Post(func() {
			l := c.attached()
			if l == nil {
				return
			}
			if msg.Type == TypeLoadStart {
				l.DidStartLoad(u)
			} else {
				l.DidFinishLoad(ctx, u)
			}
		})
	case TypeExec:
		batch := []byte(msg.Batch)
		c.loop.Post(func() {
			if l := c.attached(); l != nil {
				l.HandleCommands(ctx, batch)
			}
		})
	case TypeResult:
		c.mu.Lock()
		ch, ok := c.waiters[msg.ID]
		c.mu.Unlock()
		if !ok {
			return
		}
		res := evalResult{value: msg.Value}
		if msg.Error != "" {
			res.err = errors.New(errors.CodeBridgeScriptFailure, msg.Error,
				errors.Field("surface", c.name))
		}
		select {
		case ch <- res:
		default:
		}
	default:
		slog.Debug("ignoring unknown page frame", "surface", c.name, "type", msg.Type)
	}
}

func (c *Conn) write(msg Message) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteJSON(msg); err != nil {
		return errors.Wrap(err, errors.CodeBridgeTransportFailure, "writing page frame",
			errors.Field("surface", c.name))
	}
	return nil
}

// Close stops the loop and closes the socket. Close is idempotent.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.loop.Close()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = c.ws.Close()
	})
}

// Done is closed when the connection ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

type injector struct{ c *Conn }

func (i injector) Inject(source string) error {
	return i.c.write(Message{Type: TypeInject, Source: source})
}
