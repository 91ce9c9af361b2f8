// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package store

import "context"

// KVStore persists string values by key within a scope. Scopes isolate
// pages from each other; the storage plugin uses the page origin.
type KVStore interface {
	// Get returns the value for key, or a storage.key.not_found error.
	Get(ctx context.Context, scope, key string) (string, error)
	Set(ctx context.Context, scope, key, value string) error
	// Delete reports whether the key existed.
	Delete(ctx context.Context, scope, key string) (bool, error)
	// Keys returns the keys in scope in sorted order.
	Keys(ctx context.Context, scope string) ([]string, error)
	// Clear removes every key in scope and returns how many were removed.
	Clear(ctx context.Context, scope string) (int64, error)
	Close() error
}
