// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"strings"
	"unicode/utf8"

	"github.com/webbridge-dev/webbridge/internal/plugin/goplugin"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

func backend() goplugin.Handlers {
	return goplugin.Handlers{
		"upper":   stringOp(strings.ToUpper),
		"lower":   stringOp(strings.ToLower),
		"reverse": stringOp(reverse),
		"words":   words,
	}
}

func ok(m bridge.Message) bridge.Result { return bridge.NewResult(bridge.StatusOK, m) }

func invalid(msg string) []bridge.Result {
	return []bridge.Result{bridge.NewResult(bridge.StatusInvalidAction, bridge.StringMessage(msg))}
}

func firstString(args []bridge.Value) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	return args[0].Str()
}

func stringOp(fn func(string) string) func([]bridge.Value) ([]bridge.Result, error) {
	return func(args []bridge.Value) ([]bridge.Result, error) {
		s, found := firstString(args)
		if !found {
			return invalid("argument 0 must be a string"), nil
		}
		return []bridge.Result{ok(bridge.StringMessage(fn(s)))}, nil
	}
}

func reverse(s string) string {
	out := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		out = append(out, r)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// words streams each word as progress, then the total count.
func words(args []bridge.Value) ([]bridge.Result, error) {
	s, found := firstString(args)
	if !found {
		return invalid("argument 0 must be a string"), nil
	}
	fields := strings.Fields(s)
	results := make([]bridge.Result, 0, len(fields)+1)
	for _, w := range fields {
		results = append(results, ok(bridge.StringMessage(w)).WithKeepCallback(true))
	}
	return append(results, ok(bridge.IntMessage(int64(len(fields))))), nil
}
