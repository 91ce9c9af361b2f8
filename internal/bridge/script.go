// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	"encoding/json"
	"strconv"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	bridgeerr "github.com/webbridge-dev/webbridge/pkg/errors"
)

// DefaultNamespace is the page global the shim installs itself under.
const DefaultNamespace = "nativeBridge"

func quote(s string) []byte {
	encoded, _ := json.Marshal(s)
	return encoded
}

// callbackScript renders the delivery of one result:
//
//	window.<ns>._callback("<id>", <status>, <message>, <keep>);
func callbackScript(ns, callbackID string, r bridge.Result) string {
	buf := make([]byte, 0, 64+len(callbackID))
	buf = append(buf, "window."...)
	buf = append(buf, ns...)
	buf = append(buf, "._callback("...)
	buf = append(buf, quote(callbackID)...)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(r.Status()), 10)
	buf = append(buf, ',')
	buf = r.Message().AppendScript(buf)
	buf = append(buf, ',')
	buf = strconv.AppendBool(buf, r.KeepCallback())
	buf = append(buf, ");"...)
	return string(buf)
}

// readyScript renders the readiness notification carrying the page settings,
// the plugin names and, index for index, each plugin's methods.
func readyScript(ns string, settings bridge.Settings, plugins []bridge.Plugin) (string, error) {
	if settings == nil {
		settings = bridge.Settings{}
	}
	encodedSettings, err := json.Marshal(settings)
	if err != nil {
		return "", bridgeerr.Wrap(err, bridgeerr.CodeBridgeSettingsInvalid, "encoding page settings")
	}

	names := make([]string, len(plugins))
	methods := make([][]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name()
		methods[i] = p.Methods()
		if methods[i] == nil {
			methods[i] = []string{}
		}
	}
	encodedNames, _ := json.Marshal(names)
	encodedMethods, _ := json.Marshal(methods)

	return "window." + ns + "._didFinishLoad(" + string(encodedSettings) + "," +
		string(encodedNames) + "," + string(encodedMethods) + ");", nil
}

func registerScript(ns string, p bridge.Plugin) string {
	methods := p.Methods()
	if methods == nil {
		methods = []string{}
	}
	encodedMethods, _ := json.Marshal(methods)
	return "window." + ns + "._registerPlugin(" + string(quote(p.Name())) + "," + string(encodedMethods) + ");"
}

func unregisterScript(ns, name string) string {
	return "window." + ns + "._unregisterPlugin(" + string(quote(name)) + ");"
}
