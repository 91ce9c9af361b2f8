// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package runloop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Loop serialises work onto a single goroutine. Tasks run one at a time in
// the order they were posted. A page surface owns one Loop and every script
// evaluation happens on it.
type Loop struct {
	name string

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool

	done chan struct{}
	once sync.Once
}

// New creates a Loop and starts its goroutine. Call Close when done.
func New(name string) *Loop {
	l := &Loop{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) Name() string { return l.name }

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			if l.closed {
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			<-l.wake
			continue
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.execute(fn)
	}
}

func (l *Loop) execute(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("run loop task panic recovered",
				"loop", l.name,
				"panic", r,
				"stack", string(debug.Stack()))
			err = errors.Errorf(errors.CodeRunloopTaskPanic, "task panic: %v", r)
		}
	}()
	fn()
	return nil
}

// Post enqueues fn without waiting. It reports false once the loop is closed.
// The queue is unbounded so posting from inside a task never blocks.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Submit runs fn on the loop and waits for it to finish. If ctx is done
// before fn starts, fn is skipped and ctx.Err() is returned. Submit must not
// be called from a task on the same loop.
func (l *Loop) Submit(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result := make(chan error, 1)
	posted := l.Post(func() {
		if err := ctx.Err(); err != nil {
			result <- err
			return
		}
		var err error
		if perr := l.execute(func() { err = fn(ctx) }); perr != nil {
			err = perr
		}
		result <- err
	})
	if !posted {
		return errors.New(errors.CodeRunloopClosed, "run loop is closed",
			errors.Field("loop", l.name))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-result:
		return err
	}
}

// Close stops accepting work, runs what is already queued, and waits for the
// goroutine to exit. Close is idempotent.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		select {
		case l.wake <- struct{}{}:
		default:
		}
		<-l.done
	})
}

// Closed reports whether Close has been called.
func (l *Loop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
