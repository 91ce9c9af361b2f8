// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package goplugin

import (
	"encoding/json"
	"net/rpc"
	"slices"
	"sort"

	"github.com/hashicorp/go-plugin"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Backend is implemented by the plugin process.
type Backend interface {
	Methods() []string
	// Invoke runs action and returns the results to deliver, in order. All
	// but the last are delivered as progress.
	Invoke(action string, args []bridge.Value) ([]bridge.Result, error)
}

// Handlers is a Backend built from per-action functions.
type Handlers map[string]func(args []bridge.Value) ([]bridge.Result, error)

func (h Handlers) Methods() []string {
	methods := make([]string, 0, len(h))
	for m := range h {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func (h Handlers) Invoke(action string, args []bridge.Value) ([]bridge.Result, error) {
	fn, ok := h[action]
	if !ok {
		return []bridge.Result{
			bridge.NewResult(bridge.StatusInvalidAction, bridge.StringMessage("unknown action "+action)),
		}, nil
	}
	return fn(args)
}

// InvokeArgs carries a call across the process boundary. Args is the JSON
// encoding of the argument array.
type InvokeArgs struct {
	Action string
	Args   []byte
}

type InvokeReply struct {
	Results []WireResult
}

type WireResult struct {
	Status  int
	Message WireMessage
	Keep    bool
}

// WireMessage is the gob-friendly form of bridge.Message.
type WireMessage struct {
	Kind   uint8
	Bool   bool
	Int    int64
	Double float64
	String string
	Items  []WireMessage
	Fields map[string]WireMessage
	Parts  []WireResult
}

func toWireResult(r bridge.Result) WireResult {
	return WireResult{
		Status:  int(r.Status()),
		Message: toWireMessage(r.Message()),
		Keep:    r.KeepCallback(),
	}
}

func toWireMessage(m bridge.Message) WireMessage {
	w := WireMessage{Kind: uint8(m.Kind())}
	switch m.Kind() {
	case bridge.MessageBool:
		w.Bool, _ = m.Bool()
	case bridge.MessageInt:
		w.Int, _ = m.Int()
	case bridge.MessageDouble:
		w.Double, _ = m.Double()
	case bridge.MessageString:
		w.String, _ = m.Str()
	case bridge.MessageArray:
		items, _ := m.Items()
		for _, item := range items {
			w.Items = append(w.Items, toWireMessage(item))
		}
	case bridge.MessageMap:
		fields, _ := m.Fields()
		w.Fields = make(map[string]WireMessage, len(fields))
		for k, f := range fields {
			w.Fields[k] = toWireMessage(f)
		}
	case bridge.MessageMultipart:
		parts, _ := m.Parts()
		for _, p := range parts {
			w.Parts = append(w.Parts, toWireResult(p))
		}
	}
	return w
}

func fromWireResult(w WireResult) bridge.Result {
	return bridge.NewResult(bridge.Status(w.Status), fromWireMessage(w.Message)).WithKeepCallback(w.Keep)
}

func fromWireMessage(w WireMessage) bridge.Message {
	switch bridge.MessageKind(w.Kind) {
	case bridge.MessageBool:
		return bridge.BoolMessage(w.Bool)
	case bridge.MessageInt:
		return bridge.IntMessage(w.Int)
	case bridge.MessageDouble:
		return bridge.DoubleMessage(w.Double)
	case bridge.MessageString:
		return bridge.StringMessage(w.String)
	case bridge.MessageArray:
		items := make([]bridge.Message, len(w.Items))
		for i, item := range w.Items {
			items[i] = fromWireMessage(item)
		}
		return bridge.ArrayMessage(items...)
	case bridge.MessageMap:
		fields := make(map[string]bridge.Message, len(w.Fields))
		for k, f := range w.Fields {
			fields[k] = fromWireMessage(f)
		}
		return bridge.MapMessage(fields)
	case bridge.MessageMultipart:
		parts := make([]bridge.Result, len(w.Parts))
		for i, p := range w.Parts {
			parts[i] = fromWireResult(p)
		}
		return bridge.MultipartMessage(parts...)
	default:
		return bridge.NoMessage()
	}
}

// RPCServer is served inside the plugin process.
type RPCServer struct {
	Impl Backend
}

func (s *RPCServer) Methods(_ any, resp *[]string) error {
	*resp = s.Impl.Methods()
	return nil
}

func (s *RPCServer) Invoke(args InvokeArgs, resp *InvokeReply) error {
	var values []bridge.Value
	if len(args.Args) > 0 {
		if err := json.Unmarshal(args.Args, &values); err != nil {
			return errors.Wrap(err, errors.CodeBridgeArgumentDecodeInvalid, "decoding arguments",
				errors.FieldAction(args.Action))
		}
	}

	results, err := s.Impl.Invoke(args.Action, values)
	if err != nil {
		return err
	}
	resp.Results = make([]WireResult, len(results))
	for i, r := range results {
		resp.Results[i] = toWireResult(r)
	}
	return nil
}

// RPCClient is the host-side stub for a plugin process.
type RPCClient struct {
	client *rpc.Client
}

func (c *RPCClient) Methods() ([]string, error) {
	var methods []string
	if err := c.client.Call("Plugin.Methods", new(any), &methods); err != nil {
		return nil, errors.Wrap(err, errors.CodePluginRuntimeCallFailure, "listing methods")
	}
	return slices.Clone(methods), nil
}

func (c *RPCClient) Invoke(action string, args []bridge.Value) ([]bridge.Result, error) {
	if args == nil {
		args = []bridge.Value{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBridgeArgumentDecodeInvalid, "encoding arguments",
			errors.FieldAction(action))
	}

	var reply InvokeReply
	if err := c.client.Call("Plugin.Invoke", InvokeArgs{Action: action, Args: encoded}, &reply); err != nil {
		return nil, errors.Wrap(err, errors.CodePluginRuntimeCallFailure, "invoking action",
			errors.FieldAction(action))
	}

	results := make([]bridge.Result, len(reply.Results))
	for i, w := range reply.Results {
		results[i] = fromWireResult(w)
	}
	return results, nil
}

// BackendPlugin binds a Backend to go-plugin's net/rpc transport.
type BackendPlugin struct {
	Impl Backend
}

func (p *BackendPlugin) Server(*plugin.MuxBroker) (any, error) {
	if p.Impl == nil {
		return nil, errors.New(errors.CodePluginRuntimeStartFailure, "no backend to serve")
	}
	return &RPCServer{Impl: p.Impl}, nil
}

func (*BackendPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (any, error) {
	return &RPCClient{client: c}, nil
}
