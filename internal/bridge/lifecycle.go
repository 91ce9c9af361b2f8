// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

import (
	bridgeerr "github.com/webbridge-dev/webbridge/pkg/errors"
)

// State is the manager's position in a page's lifetime.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAwaitingReady
	StateDraining
	StateReady
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAwaitingReady:
		return "awaiting_ready"
	case StateDraining:
		return "draining"
	case StateReady:
		return "ready"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Buffering reports whether commands arriving in this state are queued
// rather than dispatched or dropped.
func (s State) Buffering() bool {
	switch s {
	case StateUninitialized, StateLoading, StateAwaitingReady, StateDraining:
		return true
	default:
		return false
	}
}

// validTransitions defines allowed state transitions as an adjacency list.
// Navigation may interrupt any state, so every state can move to Loading,
// AwaitingReady (reset) and Detached.
var validTransitions = map[State]map[State]bool{
	StateUninitialized: {
		StateLoading:       true,
		StateAwaitingReady: true,
		StateDetached:      true,
	},
	StateLoading: {
		StateLoading:       true,
		StateAwaitingReady: true,
		StateDetached:      true,
	},
	StateAwaitingReady: {
		StateLoading:       true,
		StateAwaitingReady: true,
		StateDraining:      true,
		StateDetached:      true,
	},
	StateDraining: {
		StateLoading:       true,
		StateAwaitingReady: true,
		StateReady:         true,
		StateDetached:      true,
	},
	StateReady: {
		StateLoading:       true,
		StateAwaitingReady: true,
		StateDetached:      true,
	},
	StateDetached: {
		StateLoading:       true,
		StateAwaitingReady: true,
		StateDetached:      true,
	},
}

// ValidTransition returns true if moving from one state to another is allowed.
func ValidTransition(from, to State) bool {
	allowed, exists := validTransitions[from][to]
	return exists && allowed
}

func transitionError(from, to State) error {
	return bridgeerr.Errorf(bridgeerr.CodeBridgeTransitionInvalid,
		"invalid state transition: %s -> %s", from, to)
}
