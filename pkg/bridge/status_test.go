// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
)

func TestStatus_Ordinals(t *testing.T) {
	// The page decodes statuses by ordinal, so these values are fixed.
	assert.Equal(t, 0, int(bridge.StatusNoResult))
	assert.Equal(t, 1, int(bridge.StatusOK))
	assert.Equal(t, 7, int(bridge.StatusInvalidAction))
	assert.Equal(t, 8, int(bridge.StatusSerializationError))
	assert.Equal(t, 9, int(bridge.StatusGenericError))
}

func TestStatus_Classification(t *testing.T) {
	for s := bridge.StatusNoResult; s <= bridge.StatusGenericError; s++ {
		t.Run(s.String(), func(t *testing.T) {
			assert.True(t, s.Valid())
			assert.Equal(t, s <= bridge.StatusOK, s.IsSuccess())

			parsed, ok := bridge.ParseStatus(s.String())
			assert.True(t, ok)
			assert.Equal(t, s, parsed)
		})
	}

	assert.False(t, bridge.Status(10).Valid())
	assert.Equal(t, "unknown", bridge.Status(-1).String())
	_, ok := bridge.ParseStatus("nope")
	assert.False(t, ok)
}
