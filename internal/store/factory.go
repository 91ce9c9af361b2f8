// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package store

import (
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// KVStoreFactory opens a store for the given configuration.
type KVStoreFactory func(cfg *StorageConfig) (KVStore, error)

var (
	factories   = map[string]KVStoreFactory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, f KVStoreFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

func resolveBackend(cfg *StorageConfig) string {
	if cfg.Backend == "" {
		return "sqlite"
	}
	return cfg.Backend
}

// NewKVStore opens the configured backend.
func NewKVStore(cfg *StorageConfig) (KVStore, error) {
	if cfg == nil {
		cfg = &StorageConfig{}
	}
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.Errorf(errors.CodeStorageOpenFailure, "unsupported storage backend: %q", backend)
	}

	return factory(cfg)
}
