// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

func TestStringOps(t *testing.T) {
	tests := []struct {
		action string
		in     string
		want   string
	}{
		{"upper", "héllo", "HÉLLO"},
		{"lower", "ABC", "abc"},
		{"reverse", "añb", "bña"},
		{"reverse", "", ""},
	}

	b := backend()
	for _, tt := range tests {
		t.Run(tt.action+"/"+tt.in, func(t *testing.T) {
			results, err := b.Invoke(tt.action, []bridge.Value{bridge.String(tt.in)})
			require.NoError(t, err)
			require.Len(t, results, 1)
			got, _ := results[0].Message().Str()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWords(t *testing.T) {
	results, err := backend().Invoke("words", []bridge.Value{bridge.String(" one two  three ")})
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, want := range []string{"one", "two", "three"} {
		got, _ := results[i].Message().Str()
		assert.Equal(t, want, got)
		assert.True(t, results[i].KeepCallback())
	}
	n, _ := results[3].Message().Int()
	assert.Equal(t, int64(3), n)
	assert.False(t, results[3].KeepCallback())
}

func TestInvalidArguments(t *testing.T) {
	b := backend()
	for _, action := range []string{"upper", "words"} {
		results, err := b.Invoke(action, []bridge.Value{bridge.Int(1)})
		require.NoError(t, err)
		assert.Equal(t, bridge.StatusInvalidAction, results[0].Status())

		results, err = b.Invoke(action, nil)
		require.NoError(t, err)
		assert.Equal(t, bridge.StatusInvalidAction, results[0].Status())
	}
	assert.Equal(t, []string{"lower", "reverse", "upper", "words"}, b.Methods())
}
