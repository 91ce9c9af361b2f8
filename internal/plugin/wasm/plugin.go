// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package wasm

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var _ plugin.Loaded = (*Plugin)(nil)

// Plugin exposes a module's exported functions as bridge actions. Numeric
// arguments map onto the function's parameters in order; the results come
// back as a number, an array of numbers, or nothing.
type Plugin struct {
	name    string
	module  *Module
	methods []string

	// Calls into one module instance are serialized.
	mu sync.Mutex
}

// NewPlugin wraps mod. An empty methods list exposes every export.
func NewPlugin(name string, mod *Module, methods []string) (*Plugin, error) {
	exports := mod.Exports()
	if len(methods) == 0 {
		methods = exports
	}
	for _, m := range methods {
		if !slices.Contains(exports, m) {
			return nil, errors.Errorf(errors.CodePluginRuntimeStartFailure,
				"method %q is not exported by module %s", m, mod.Name())
		}
	}
	methods = slices.Clone(methods)
	slices.Sort(methods)
	return &Plugin{name: name, module: mod, methods: methods}, nil
}

func (p *Plugin) Name() string { return p.name }

func (p *Plugin) Methods() []string { return slices.Clone(p.methods) }

func (p *Plugin) Execute(action string, cmd *bridge.Command) bool {
	if !slices.Contains(p.methods, action) {
		return false
	}
	go p.call(action, cmd)
	return true
}

func (p *Plugin) Close() error {
	return p.module.Close(context.Background())
}

func (p *Plugin) call(action string, cmd *bridge.Command) {
	paramTypes, resultTypes, _ := p.module.Signature(action)
	if cmd.Len() != len(paramTypes) {
		cmd.ErrorWithStatus(bridge.StatusInvalidAction, bridge.StringMessage(
			fmt.Sprintf("%s expects %d arguments, got %d", action, len(paramTypes), cmd.Len())))
		return
	}

	params := make([]uint64, len(paramTypes))
	for i, t := range paramTypes {
		n, ok := cmd.ArgumentOr(i, bridge.Null()).Number()
		if !ok {
			cmd.ErrorWithStatus(bridge.StatusInvalidAction, bridge.StringMessage(
				fmt.Sprintf("argument %d of %s must be a number", i, action)))
			return
		}
		encoded, err := encode(t, n)
		if err != nil {
			cmd.ErrorWithStatus(bridge.StatusSerializationError, bridge.StringMessage(
				fmt.Sprintf("argument %d of %s: %v", i, action, err)))
			return
		}
		params[i] = encoded
	}

	p.mu.Lock()
	results, err := p.module.Call(context.Background(), action, params...)
	p.mu.Unlock()
	if err != nil {
		cmd.ErrorWithStatus(bridge.StatusGenericError, bridge.StringMessage(err.Error()))
		return
	}

	out := make([]bridge.Message, len(results))
	for i, r := range results {
		out[i] = decode(resultTypes[i], r)
	}
	switch len(out) {
	case 0:
		cmd.Success()
	case 1:
		cmd.SuccessWithMessage(out[0])
	default:
		cmd.SuccessWithArray(out)
	}
}

// encode converts n for a parameter of type t. Integer parameters take only
// whole numbers within their signed range.
func encode(t api.ValueType, n float64) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		if err := checkInteger(n, 1<<31); err != nil {
			return 0, err
		}
		return api.EncodeI32(int32(n)), nil
	case api.ValueTypeI64:
		if err := checkInteger(n, 1<<63); err != nil {
			return 0, err
		}
		return api.EncodeI64(int64(n)), nil
	case api.ValueTypeF32:
		return api.EncodeF32(float32(n)), nil
	case api.ValueTypeF64:
		return api.EncodeF64(n), nil
	default:
		return 0, errors.Errorf(errors.CodePluginArgumentInvalid,
			"unsupported parameter type %s", api.ValueTypeName(t))
	}
}

// checkInteger rejects n unless it is whole and within [-limit, limit).
func checkInteger(n, limit float64) error {
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return errors.Errorf(errors.CodePluginArgumentInvalid, "%v is not an integer", n)
	}
	if n < -limit || n >= limit {
		return errors.Errorf(errors.CodePluginArgumentInvalid, "%v is out of range", n)
	}
	return nil
}

func decode(t api.ValueType, r uint64) bridge.Message {
	switch t {
	case api.ValueTypeI32:
		return bridge.IntMessage(int64(api.DecodeI32(r)))
	case api.ValueTypeI64:
		return bridge.IntMessage(int64(r))
	case api.ValueTypeF32:
		return bridge.DoubleMessage(float64(api.DecodeF32(r)))
	case api.ValueTypeF64:
		return bridge.DoubleMessage(api.DecodeF64(r))
	default:
		return bridge.NoMessage()
	}
}

// Loader starts wasm-tier plugins in a shared Host.
type Loader struct {
	Host *Host
}

func (l Loader) Load(ctx context.Context, m *plugin.Manifest) (plugin.Loaded, error) {
	data, err := os.ReadFile(m.EntryPath())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePluginRuntimeStartFailure, "reading wasm module",
			errors.FieldPlugin(m.Name))
	}
	mod, err := l.Host.LoadModule(ctx, m.Name, data)
	if err != nil {
		return nil, err
	}
	p, err := NewPlugin(m.Name, mod, m.Methods)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return p, nil
}
