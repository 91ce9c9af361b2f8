// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package bridge

// Result is one response from a plugin to the page. Results are values: build
// a new one for every response, even when reusing a Command.
type Result struct {
	status       Status
	message      Message
	keepCallback bool
}

// NewResult creates a result that retires the callback once delivered.
func NewResult(status Status, message Message) Result {
	return Result{status: status, message: message}
}

// WithKeepCallback returns a copy of r with the keep-callback flag set.
func (r Result) WithKeepCallback(keep bool) Result {
	r.keepCallback = keep
	return r
}

func (r Result) Status() Status { return r.status }

func (r Result) Message() Message { return r.message }

// KeepCallback reports whether the page should keep its callback registered
// for further responses.
func (r Result) KeepCallback() bool { return r.keepCallback }
