// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package surface defines the boundary between the bridge and the page
// renderer it is attached to.
package surface

import (
	"context"
	"net/url"
)

// Listener receives load lifecycle events and command batches from a page.
// Surfaces call it from their own scheduling domain.
type Listener interface {
	DidStartLoad(u *url.URL)
	DidFinishLoad(ctx context.Context, u *url.URL)
	HandleCommands(ctx context.Context, batch []byte)
}

// Injector evaluates script in the page without waiting for a result. It is
// only valid inside a function passed to Surface.Dispatch.
type Injector interface {
	Inject(source string) error
}

// Surface is a page renderer that can run script.
type Surface interface {
	// Attach sets the listener that receives page events. A surface has at
	// most one listener.
	Attach(l Listener)

	// Dispatch schedules fn on the surface's scheduling domain. Functions
	// run in the order they were dispatched. Dispatch never blocks and
	// reports false once the surface is closed.
	Dispatch(fn func(Injector)) bool

	// ExecuteScript evaluates source and returns its string result. It must
	// not be called from the surface's own scheduling domain.
	ExecuteScript(ctx context.Context, source string) (string, error)
}
