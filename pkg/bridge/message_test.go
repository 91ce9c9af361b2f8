// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

func TestMessage_AppendScript(t *testing.T) {
	tests := []struct {
		name string
		msg  bridge.Message
		want string
	}{
		{name: "none", msg: bridge.NoMessage(), want: "null"},
		{name: "bool", msg: bridge.BoolMessage(true), want: "true"},
		{name: "int", msg: bridge.IntMessage(-42), want: "-42"},
		{name: "double", msg: bridge.DoubleMessage(1.5), want: "1.5"},
		{name: "nan", msg: bridge.DoubleMessage(math.NaN()), want: "null"},
		{name: "inf", msg: bridge.DoubleMessage(math.Inf(1)), want: "null"},
		{name: "string escapes", msg: bridge.StringMessage("a\"b\n\u2028"), want: `"a\"b\n\u2028"`},
		{
			name: "nested",
			msg: bridge.ArrayMessage(
				bridge.IntMessage(1),
				bridge.MapMessage(map[string]bridge.Message{"z": bridge.NoMessage(), "a": bridge.BoolMessage(false)}),
			),
			want: `[1,{"a":false,"z":null}]`,
		},
		{
			name: "multipart",
			msg: bridge.MultipartMessage(
				bridge.NewResult(bridge.StatusOK, bridge.StringMessage("x")),
				bridge.NewResult(bridge.StatusIOError, bridge.IntMessage(3)),
			),
			want: `[{"status":1,"message":"x"},{"status":6,"message":3}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.msg.AppendScript(nil)
			assert.Equal(t, tt.want, string(got))
			assert.True(t, json.Valid(got))
		})
	}
}

func TestValueMessage(t *testing.T) {
	v, err := bridge.ParseValue([]byte(`{"n":3,"f":0.25,"s":"x","l":[true,null]}`))
	require.NoError(t, err)

	msg := bridge.ValueMessage(v)
	assert.Equal(t, bridge.MessageMap, msg.Kind())
	assert.Equal(t, `{"f":0.25,"l":[true,null],"n":3,"s":"x"}`, string(msg.AppendScript(nil)))

	fields, ok := msg.Fields()
	require.True(t, ok)
	n, ok := fields["n"].Int()
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}
