// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	"github.com/tidwall/gjson"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	bridgeerr "github.com/webbridge-dev/webbridge/pkg/errors"
)

// descriptor is one decoded entry of a command batch.
type descriptor struct {
	callbackID string
	plugin     string
	action     string
	args       []bridge.Value
}

// splitBatch returns the raw entries of a batch in page order.
func splitBatch(batch []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(batch) {
		return nil, bridgeerr.New(bridgeerr.CodeBridgeBatchInvalid, "command batch is not valid JSON")
	}
	root := gjson.ParseBytes(batch)
	if !root.IsArray() {
		return nil, bridgeerr.Errorf(bridgeerr.CodeBridgeBatchInvalid,
			"command batch must be an array, got %s", root.Type)
	}
	return root.Array(), nil
}

// decodeDescriptor accepts the array form [callbackId, plugin, action, args]
// and the object form {callbackId, plugin|service, action, args}. When the
// entry is malformed but a callback id could be read, the returned
// descriptor carries that id alongside the error.
func decodeDescriptor(raw gjson.Result) (descriptor, error) {
	var idField, pluginField, actionField, argsField gjson.Result
	switch {
	case raw.IsArray():
		idField = raw.Get("0")
		pluginField = raw.Get("1")
		actionField = raw.Get("2")
		argsField = raw.Get("3")
	case raw.IsObject():
		idField = raw.Get("callbackId")
		pluginField = raw.Get("plugin")
		if !pluginField.Exists() {
			pluginField = raw.Get("service")
		}
		actionField = raw.Get("action")
		argsField = raw.Get("args")
	default:
		return descriptor{}, bridgeerr.Errorf(bridgeerr.CodeBridgeDescriptorInvalid,
			"descriptor must be an array or object, got %s", raw.Type)
	}

	var d descriptor
	switch idField.Type {
	case gjson.String:
		d.callbackID = idField.Str
	case gjson.Number:
		d.callbackID = idField.Raw
	}
	if d.callbackID == "" {
		return descriptor{}, bridgeerr.New(bridgeerr.CodeBridgeDescriptorInvalid,
			"descriptor has no callback id")
	}

	if pluginField.Type != gjson.String || pluginField.Str == "" {
		return d, bridgeerr.New(bridgeerr.CodeBridgeDescriptorInvalid,
			"descriptor has no plugin name", bridgeerr.FieldCallbackID(d.callbackID))
	}
	d.plugin = pluginField.Str

	if actionField.Type != gjson.String || actionField.Str == "" {
		return d, bridgeerr.New(bridgeerr.CodeBridgeDescriptorInvalid,
			"descriptor has no action", bridgeerr.FieldCallbackID(d.callbackID))
	}
	d.action = actionField.Str

	args, err := decodeArgs(argsField)
	if err != nil {
		return d, bridgeerr.With(err, bridgeerr.FieldCallbackID(d.callbackID),
			bridgeerr.FieldPlugin(d.plugin), bridgeerr.FieldAction(d.action))
	}
	d.args = args
	return d, nil
}

// decodeArgs reads the argument list. Missing or null arguments decode as an
// empty list; a string holding a JSON array is accepted as well.
func decodeArgs(field gjson.Result) ([]bridge.Value, error) {
	switch {
	case !field.Exists(), field.Type == gjson.Null:
		return nil, nil
	case field.Type == gjson.String:
		if !gjson.Valid(field.Str) {
			return nil, bridgeerr.New(bridgeerr.CodeBridgeArgumentDecodeInvalid,
				"arguments string is not valid JSON")
		}
		inner := gjson.Parse(field.Str)
		if !inner.IsArray() {
			return nil, bridgeerr.New(bridgeerr.CodeBridgeArgumentDecodeInvalid,
				"arguments string does not hold an array")
		}
		field = inner
	case !field.IsArray():
		return nil, bridgeerr.Errorf(bridgeerr.CodeBridgeArgumentDecodeInvalid,
			"arguments must be an array, got %s", field.Type)
	}

	items := field.Array()
	args := make([]bridge.Value, 0, len(items))
	for _, item := range items {
		v, err := bridge.FromInterface(item.Value())
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}
