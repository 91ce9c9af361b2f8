// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package plugin

import (
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// State is the lifecycle state of an external plugin.
type State int

const (
	StateDiscovered State = iota
	StateLoading
	StateRunning
	StateStopping
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var validTransitions = map[State]map[State]bool{
	StateDiscovered: {StateLoading: true},
	StateLoading:    {StateRunning: true, StateError: true},
	StateRunning:    {StateStopping: true, StateError: true},
	StateStopping:   {StateStopped: true, StateError: true},
	StateStopped:    {},
	StateError:      {},
}

// ValidTransition reports whether an instance may move from one state to
// another.
func ValidTransition(from, to State) bool {
	return validTransitions[from][to]
}

// Instance tracks one external plugin from discovery to shutdown.
type Instance struct {
	manifest *Manifest

	mu     sync.RWMutex
	state  State
	plugin Loaded
	err    error
}

func newInstance(m *Manifest) *Instance {
	return &Instance{manifest: m, state: StateDiscovered}
}

func (i *Instance) Name() string { return i.manifest.Name }

func (i *Instance) Manifest() *Manifest { return i.manifest }

func (i *Instance) State() State {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Err returns the failure that moved the instance to StateError.
func (i *Instance) Err() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.err
}

// Plugin returns the running plugin, if any.
func (i *Instance) Plugin() (bridge.Plugin, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.state != StateRunning || i.plugin == nil {
		return nil, false
	}
	return i.plugin, true
}

func (i *Instance) transition(to State) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !ValidTransition(i.state, to) {
		return errors.Errorf(errors.CodePluginTransitionInvalid,
			"plugin %s: invalid state transition %s -> %s", i.manifest.Name, i.state, to)
	}
	i.state = to
	return nil
}

func (i *Instance) fail(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = StateError
	i.err = err
}
