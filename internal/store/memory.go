// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func init() {
	RegisterBackend("memory", func(*StorageConfig) (KVStore, error) {
		return NewMemoryKVStore(), nil
	})
}

var _ KVStore = (*MemoryKVStore)(nil)

// MemoryKVStore keeps values in process memory.
type MemoryKVStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{scopes: make(map[string]map[string]string)}
}

func (m *MemoryKVStore) Get(_ context.Context, scope, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.scopes[scope][key]
	if !ok {
		return "", errors.Errorf(errors.CodeStorageKeyNotFound, "key %q not found", key)
	}
	return v, nil
}

func (m *MemoryKVStore) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, ok := m.scopes[scope]
	if !ok {
		entries = make(map[string]string)
		m.scopes[scope] = entries
	}
	entries[key] = value
	return nil
}

func (m *MemoryKVStore) Delete(_ context.Context, scope, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.scopes[scope][key]
	delete(m.scopes[scope], key)
	return ok, nil
}

func (m *MemoryKVStore) Keys(_ context.Context, scope string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.scopes[scope]))
	for k := range m.scopes[scope] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryKVStore) Clear(_ context.Context, scope string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.scopes[scope]))
	delete(m.scopes, scope)
	return n, nil
}

func (m *MemoryKVStore) Close() error { return nil }
