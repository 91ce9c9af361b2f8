// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	bridgemgr "github.com/webbridge-dev/webbridge/internal/bridge"
)

func TestState_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    bridgemgr.State
		to      bridgemgr.State
		allowed bool
	}{
		{"uninitialized to loading", bridgemgr.StateUninitialized, bridgemgr.StateLoading, true},
		{"uninitialized to awaiting", bridgemgr.StateUninitialized, bridgemgr.StateAwaitingReady, true},
		{"loading to awaiting", bridgemgr.StateLoading, bridgemgr.StateAwaitingReady, true},
		{"awaiting to draining", bridgemgr.StateAwaitingReady, bridgemgr.StateDraining, true},
		{"draining to ready", bridgemgr.StateDraining, bridgemgr.StateReady, true},
		{"ready to loading", bridgemgr.StateReady, bridgemgr.StateLoading, true},
		{"ready to awaiting", bridgemgr.StateReady, bridgemgr.StateAwaitingReady, true},
		{"detached to loading", bridgemgr.StateDetached, bridgemgr.StateLoading, true},
		// Invalid transitions
		{"uninitialized to draining", bridgemgr.StateUninitialized, bridgemgr.StateDraining, false},
		{"loading to draining", bridgemgr.StateLoading, bridgemgr.StateDraining, false},
		{"ready to draining", bridgemgr.StateReady, bridgemgr.StateDraining, false},
		{"awaiting to ready", bridgemgr.StateAwaitingReady, bridgemgr.StateReady, false},
		{"detached to ready", bridgemgr.StateDetached, bridgemgr.StateReady, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, bridgemgr.ValidTransition(tt.from, tt.to))
		})
	}
}

func TestState_Buffering(t *testing.T) {
	assert.True(t, bridgemgr.StateLoading.Buffering())
	assert.True(t, bridgemgr.StateDraining.Buffering())
	assert.False(t, bridgemgr.StateReady.Buffering())
	assert.False(t, bridgemgr.StateDetached.Buffering())
	assert.Equal(t, "awaiting_ready", bridgemgr.StateAwaitingReady.String())
}
