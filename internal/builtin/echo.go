// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin

import "github.com/webbridge-dev/webbridge/pkg/bridge"

// NewEcho returns the echo plugin. echo answers with its first argument,
// echoAll with every argument as an array.
func NewEcho() bridge.Plugin {
	return bridge.NewPlugin(EchoName, map[string]bridge.Handler{
		"echo": func(cmd *bridge.Command) {
			v, ok := cmd.ArgumentAt(0)
			if !ok {
				cmd.Success()
				return
			}
			cmd.SuccessWithMessage(bridge.ValueMessage(v))
		},
		"echoAll": func(cmd *bridge.Command) {
			args := cmd.Arguments()
			out := make([]bridge.Message, len(args))
			for i, a := range args {
				out[i] = bridge.ValueMessage(a)
			}
			cmd.SuccessWithArray(out)
		},
	})
}
