// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package goplugin

import (
	"context"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-plugin"

	wbplugin "github.com/webbridge-dev/webbridge/internal/plugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var _ wbplugin.Loaded = (*Remote)(nil)

// Remote is a bridge.Plugin whose actions run in a plugin process.
type Remote struct {
	name    string
	methods []string
	stub    *RPCClient
	kill    func()
}

// NewRemote wraps stub. An empty methods list asks the process for its
// own. kill, when non-nil, is run by Close.
func NewRemote(name string, stub *RPCClient, methods []string, kill func()) (*Remote, error) {
	offered, err := stub.Methods()
	if err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		methods = offered
	}
	for _, m := range methods {
		if !slices.Contains(offered, m) {
			return nil, errors.Errorf(errors.CodePluginRuntimeStartFailure,
				"method %q is not offered by plugin %s", m, name)
		}
	}
	methods = slices.Clone(methods)
	slices.Sort(methods)
	return &Remote{name: name, methods: methods, stub: stub, kill: kill}, nil
}

func (r *Remote) Name() string { return r.name }

func (r *Remote) Methods() []string { return slices.Clone(r.methods) }

func (r *Remote) Execute(action string, cmd *bridge.Command) bool {
	if !slices.Contains(r.methods, action) {
		return false
	}
	go r.invoke(action, cmd)
	return true
}

func (r *Remote) invoke(action string, cmd *bridge.Command) {
	results, err := r.stub.Invoke(action, cmd.Arguments())
	if err != nil {
		slog.Warn("process plugin call failed", "plugin", r.name, "action", action, "error", err)
		cmd.ErrorWithStatus(bridge.StatusIOError, bridge.StringMessage(err.Error()))
		return
	}
	if len(results) == 0 {
		cmd.Success()
		return
	}
	// The call is over once the process replies, so only the last result
	// may release the callback.
	last := len(results) - 1
	for i, res := range results {
		cmd.SendResult(res.WithKeepCallback(i < last))
	}
}

func (r *Remote) Close() error {
	if r.kill != nil {
		r.kill()
	}
	return nil
}

// Loader starts process-tier plugins.
type Loader struct {
	Launcher []string
}

func (l Loader) Load(_ context.Context, m *wbplugin.Manifest) (wbplugin.Loaded, error) {
	client := plugin.NewClient(ClientConfig(m.EntryPath(), l.Launcher))

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, errors.Wrap(err, errors.CodePluginRuntimeStartFailure, "starting plugin process",
			errors.FieldPlugin(m.Name))
	}

	raw, err := rpcClient.Dispense(pluginKey)
	if err != nil {
		client.Kill()
		return nil, errors.Wrap(err, errors.CodePluginRuntimeStartFailure, "dispensing plugin",
			errors.FieldPlugin(m.Name))
	}

	stub, ok := raw.(*RPCClient)
	if !ok {
		client.Kill()
		return nil, errors.Errorf(errors.CodePluginRuntimeStartFailure,
			"plugin %s dispensed unexpected type %T", m.Name, raw)
	}

	remote, err := NewRemote(m.Name, stub, m.Methods, client.Kill)
	if err != nil {
		client.Kill()
		return nil, err
	}
	return remote, nil
}
