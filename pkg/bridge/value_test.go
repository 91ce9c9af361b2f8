// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	bridgeerr "github.com/webbridge-dev/webbridge/pkg/errors"
)

func TestKind_Accepts(t *testing.T) {
	tests := []struct {
		name string
		kind bridge.Kind
		v    bridge.Value
		want bool
	}{
		{name: "bool from bool", kind: bridge.KindBool, v: bridge.Bool(false), want: true},
		{name: "bool from one", kind: bridge.KindBool, v: bridge.Int(1), want: true},
		{name: "bool from zero", kind: bridge.KindBool, v: bridge.Int(0), want: true},
		{name: "bool from two", kind: bridge.KindBool, v: bridge.Int(2), want: false},
		{name: "bool from string", kind: bridge.KindBool, v: bridge.String("true"), want: false},
		{name: "number from bool", kind: bridge.KindNumber, v: bridge.Bool(true), want: false},
		{name: "string", kind: bridge.KindString, v: bridge.String(""), want: true},
		{name: "object from array", kind: bridge.KindObject, v: bridge.Array(), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Accepts(tt.v))
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := bridge.ParseValue([]byte(`[1, "x", null, {"a": [true]}]`))
	require.NoError(t, err)
	require.Equal(t, bridge.KindArray, v.Kind())

	items, _ := v.Items()
	require.Len(t, items, 4)
	assert.True(t, items[2].IsNull())

	n, ok := items[0].Int()
	require.True(t, ok)
	assert.Equal(t, 1, n)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,"x",null,{"a":[true]}]`, string(out))
}

func TestParseValue_Invalid(t *testing.T) {
	_, err := bridge.ParseValue([]byte(`{`))
	require.Error(t, err)
	assert.Equal(t, bridgeerr.CodeBridgeArgumentDecodeInvalid, bridgeerr.CodeOf(err))
}

func TestFromInterface(t *testing.T) {
	v, err := bridge.FromInterface(map[any]any{"port": 8080, "tags": []any{"a"}})
	require.NoError(t, err)

	fields, ok := v.Fields()
	require.True(t, ok)
	port, _ := fields["port"].Int()
	assert.Equal(t, 8080, port)

	_, err = bridge.FromInterface(struct{}{})
	assert.Error(t, err)
}

func TestNewPlugin(t *testing.T) {
	var called string
	p := bridge.NewPlugin("com.example.p", map[string]bridge.Handler{
		"b": func(cmd *bridge.Command) { called = "b" },
		"a": func(cmd *bridge.Command) { called = "a" },
	})

	assert.Equal(t, "com.example.p", p.Name())
	assert.Equal(t, []string{"a", "b"}, p.Methods())
	assert.True(t, bridge.HasMethod(p, "a"))
	assert.False(t, bridge.HasMethod(p, "c"))

	assert.True(t, p.Execute("b", bridge.NewCommand(nil, "cb", nil)))
	assert.Equal(t, "b", called)
	assert.False(t, p.Execute("c", bridge.NewCommand(nil, "cb", nil)))
}
