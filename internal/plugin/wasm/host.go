// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package wasm

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Host owns the wazero runtime every wasm-tier plugin is instantiated in.
type Host struct {
	runtime     wazero.Runtime
	execTimeout time.Duration
}

type Option func(*Host)

// WithExecTimeout bounds every exported function call. Zero disables the
// bound.
func WithExecTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.execTimeout = d
	}
}

// NewHost creates the runtime. Calls are interrupted when their context ends.
func NewHost(ctx context.Context, opts ...Option) *Host {
	h := &Host{}
	for _, o := range opts {
		o(h)
	}
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	h.runtime = wazero.NewRuntimeWithConfig(ctx, cfg)
	return h
}

func (h *Host) ExecTimeout() time.Duration { return h.execTimeout }

// LoadModule compiles and instantiates wasmBytes under name. Names must be
// unique within the host.
func (h *Host) LoadModule(ctx context.Context, name string, wasmBytes []byte) (*Module, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New(errors.CodePluginRuntimeStartFailure, "module name must not be empty")
	}

	compiled, err := h.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodePluginRuntimeStartFailure, "compiling wasm module %s", name)
	}

	instance, err := h.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Wrapf(err, errors.CodePluginRuntimeStartFailure, "instantiating wasm module %s", name)
	}

	return &Module{
		name:        name,
		compiled:    compiled,
		instance:    instance,
		execTimeout: h.execTimeout,
	}, nil
}

// Close shuts the runtime down along with every module in it.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// Module is an instantiated wasm module.
type Module struct {
	name        string
	compiled    wazero.CompiledModule
	instance    api.Module
	execTimeout time.Duration
}

func (m *Module) Name() string { return m.name }

// Exports lists the exported function names in sorted order.
func (m *Module) Exports() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature returns the parameter and result types of an exported function.
func (m *Module) Signature(fnName string) (params, results []api.ValueType, ok bool) {
	def, ok := m.compiled.ExportedFunctions()[fnName]
	if !ok {
		return nil, nil, false
	}
	return def.ParamTypes(), def.ResultTypes(), true
}

func (m *Module) Close(ctx context.Context) error {
	if err := m.instance.Close(ctx); err != nil {
		return err
	}
	return m.compiled.Close(ctx)
}

// Call invokes an exported function, bounded by the host's exec timeout.
func (m *Module) Call(ctx context.Context, fnName string, params ...uint64) ([]uint64, error) {
	if m.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.execTimeout)
		defer cancel()
	}

	fn := m.instance.ExportedFunction(fnName)
	if fn == nil {
		return nil, errors.Errorf(errors.CodePluginRuntimeCallFailure,
			"function %q not exported by module %s", fnName, m.name)
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodePluginRuntimeCallFailure,
			"calling function %q in module %s", fnName, m.name)
	}
	return results, nil
}
