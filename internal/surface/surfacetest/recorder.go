// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package surfacetest provides a surface double that records injected script
// and runs dispatched work only when told to.
package surfacetest

import (
	"context"
	"slices"
	"sync"

	"github.com/webbridge-dev/webbridge/internal/surface"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var _ surface.Surface = (*Recorder)(nil)

// Recorder is a surface.Surface whose scheduling domain is whoever calls
// Flush.
type Recorder struct {
	// Eval answers ExecuteScript. When nil, ExecuteScript returns "".
	Eval func(source string) (string, error)

	mu        sync.Mutex
	listener  surface.Listener
	queue     []func(surface.Injector)
	scripts   []string
	evaluated []string
	closed    bool
}

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Attach(l surface.Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

func (r *Recorder) Listener() surface.Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listener
}

func (r *Recorder) Dispatch(fn func(surface.Injector)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.queue = append(r.queue, fn)
	return true
}

func (r *Recorder) ExecuteScript(_ context.Context, source string) (string, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", errors.New(errors.CodeBridgeSurfaceClosed, "surface is closed")
	}
	r.evaluated = append(r.evaluated, source)
	eval := r.Eval
	r.mu.Unlock()

	if eval == nil {
		return "", nil
	}
	return eval(source)
}

// Flush runs dispatched work in order, including work dispatched while
// flushing, and returns how many functions ran.
func (r *Recorder) Flush() int {
	ran := 0
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			return ran
		}
		fn := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()

		fn(injector{r})
		ran++
	}
}

// Queued returns the number of dispatched functions waiting for Flush.
func (r *Recorder) Queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Scripts returns the script injected so far.
func (r *Recorder) Scripts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.scripts)
}

// Evaluated returns the sources passed to ExecuteScript.
func (r *Recorder) Evaluated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.evaluated)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = nil
	r.evaluated = nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.queue = nil
}

type injector struct{ r *Recorder }

func (i injector) Inject(source string) error {
	i.r.mu.Lock()
	defer i.r.mu.Unlock()
	i.r.scripts = append(i.r.scripts, source)
	return nil
}
