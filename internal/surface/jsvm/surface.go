// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package jsvm is a headless page surface backed by an embedded JavaScript
// runtime. Each Load starts a fresh runtime with the bridge shim installed.
package jsvm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"

	"github.com/webbridge-dev/webbridge/internal/runloop"
	"github.com/webbridge-dev/webbridge/internal/surface"
	"github.com/webbridge-dev/webbridge/internal/surface/shim"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var _ surface.Surface = (*Surface)(nil)

const defaultNamespace = "nativeBridge"

// Option configures a Surface.
type Option func(*Surface)

// WithNamespace sets the global the shim is installed under. It must match
// the manager's namespace.
func WithNamespace(ns string) Option {
	return func(s *Surface) {
		if ns != "" {
			s.namespace = ns
		}
	}
}

// WithName labels the surface in logs.
func WithName(name string) Option {
	return func(s *Surface) {
		s.name = name
	}
}

type Surface struct {
	name      string
	namespace string
	loop      *runloop.Loop

	mu       sync.Mutex
	listener surface.Listener

	// Owned by the loop goroutine.
	vm       *goja.Runtime
	ctx      context.Context
	timers   map[int64]*time.Timer
	nextTime int64

	// generation changes on every Load; timers from older pages do not fire.
	generation atomic.Int64
	current    atomic.Pointer[goja.Runtime]
}

func New(opts ...Option) *Surface {
	s := &Surface{
		name:      "jsvm",
		namespace: defaultNamespace,
		timers:    make(map[int64]*time.Timer),
	}
	for _, o := range opts {
		o(s)
	}
	s.loop = runloop.New(s.name)
	return s
}

func (s *Surface) Attach(l surface.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

func (s *Surface) attached() surface.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

func (s *Surface) Dispatch(fn func(surface.Injector)) bool {
	return s.loop.Post(func() {
		fn(injector{s})
	})
}

// Load replaces the page with source loaded from rawURL. The listener sees
// the load start before the shim is installed and the load finish after the
// page's top-level script has run. A script error does not stop the load
// from finishing; it is returned afterwards.
func (s *Surface) Load(ctx context.Context, rawURL, source string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(err, errors.CodeBridgeURLInvalid, "parsing page url %q", rawURL)
	}

	return s.loop.Submit(ctx, func(ctx context.Context) error {
		s.reset(ctx)
		l := s.attached()

		if l != nil {
			l.DidStartLoad(u)
		}

		if _, err := s.vm.RunString(shim.Bridge(s.namespace)); err != nil {
			return errors.Wrap(err, errors.CodeBridgeScriptFailure, "installing bridge shim")
		}

		_, runErr := s.vm.RunScript(u.String(), source)
		if runErr != nil {
			slog.Warn("page script failed", "surface", s.name, "url", u.String(), "error", runErr)
		}

		if l != nil {
			l.DidFinishLoad(ctx, u)
		}

		if runErr != nil {
			return errors.Wrap(runErr, errors.CodeBridgeScriptFailure, "running page script",
				errors.Field("url", u.String()))
		}
		return nil
	})
}

// reset starts a fresh runtime. Runs on the loop.
func (s *Surface) reset(ctx context.Context) {
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.generation.Add(1)

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	s.vm = vm
	s.ctx = context.WithoutCancel(ctx)
	s.current.Store(vm)

	global := vm.GlobalObject()
	_ = global.Set("window", global)
	_ = global.Set("globalThis", global)
	_ = vm.Set("console", s.console(vm))
	_ = vm.Set("setTimeout", s.setTimeout)
	_ = vm.Set("clearTimeout", s.clearTimeout)

	jsi := vm.NewObject()
	_ = jsi.Set("exec", func(batch string) {
		if l := s.attached(); l != nil {
			l.HandleCommands(s.ctx, []byte(batch))
		}
	})
	_ = vm.Set(s.namespace+"JSI", jsi)
}

// ExecuteScript evaluates source in the current page and returns strings
// as-is, null and undefined as "", and anything else as JSON.
func (s *Surface) ExecuteScript(ctx context.Context, source string) (string, error) {
	var out string
	err := s.loop.Submit(ctx, func(ctx context.Context) error {
		if s.vm == nil {
			return errors.New(errors.CodeBridgeSurfaceNotConnected, "no page loaded")
		}

		vm := s.vm
		fired := make(chan struct{})
		stop := context.AfterFunc(ctx, func() {
			vm.Interrupt("execution deadline exceeded")
			close(fired)
		})
		defer func() {
			if !stop() {
				<-fired
				vm.ClearInterrupt()
			}
		}()

		v, err := vm.RunString(source)
		if err != nil {
			var interrupted *goja.InterruptedError
			if stderrors.As(err, &interrupted) {
				vm.ClearInterrupt()
				return errors.Wrap(err, errors.CodeBridgeScriptTimeout, "script interrupted")
			}
			return errors.Wrap(err, errors.CodeBridgeScriptFailure, "evaluating script")
		}
		out, err = export(v)
		return err
	})
	if errors.HasCode(err, errors.CodeRunloopClosed) {
		return "", errors.New(errors.CodeBridgeSurfaceClosed, "surface is closed",
			errors.Field("surface", s.name))
	}
	return out, err
}

func export(v goja.Value) (string, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", nil
	}
	if s, ok := v.Export().(string); ok {
		return s, nil
	}
	encoded, err := json.Marshal(v.Export())
	if err != nil {
		return "", errors.Wrap(err, errors.CodeBridgeMessageEncodeInvalid, "encoding script result")
	}
	return string(encoded), nil
}

// Close interrupts any running script and stops the surface.
func (s *Surface) Close() {
	if vm := s.current.Load(); vm != nil {
		vm.Interrupt("surface closed")
	}
	s.generation.Add(1)
	s.loop.Close()
}

type injector struct{ s *Surface }

func (i injector) Inject(source string) error {
	if i.s.vm == nil {
		return errors.New(errors.CodeBridgeSurfaceNotConnected, "no page loaded")
	}
	if _, err := i.s.vm.RunString(source); err != nil {
		return errors.Wrap(err, errors.CodeBridgeScriptFailure, "injecting script")
	}
	return nil
}

func (s *Surface) console(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			slog.Log(s.ctx, level, "page console",
				"surface", s.name, "message", strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	_ = obj.Set("log", logAt(slog.LevelInfo))
	_ = obj.Set("info", logAt(slog.LevelInfo))
	_ = obj.Set("debug", logAt(slog.LevelDebug))
	_ = obj.Set("warn", logAt(slog.LevelWarn))
	_ = obj.Set("error", logAt(slog.LevelError))
	return obj
}

func (s *Surface) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return goja.Undefined()
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	extra := append([]goja.Value(nil), call.Arguments[min(2, len(call.Arguments)):]...)

	s.nextTime++
	id := s.nextTime
	gen := s.generation.Load()
	s.timers[id] = time.AfterFunc(delay, func() {
		s.loop.Post(func() {
			if s.generation.Load() != gen {
				return
			}
			if _, live := s.timers[id]; !live {
				return
			}
			delete(s.timers, id)
			if _, err := fn(goja.Undefined(), extra...); err != nil {
				slog.Warn("timer callback failed", "surface", s.name, "error", err)
			}
		})
	})
	return s.vm.ToValue(id)
}

func (s *Surface) clearTimeout(call goja.FunctionCall) goja.Value {
	id := call.Argument(0).ToInteger()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	return goja.Undefined()
}
