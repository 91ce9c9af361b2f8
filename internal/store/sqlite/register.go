// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package sqlite

import (
	"os"
	"path/filepath"

	"github.com/webbridge-dev/webbridge/internal/store"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func init() {
	store.RegisterBackend("sqlite", newKVStore)
}

func newKVStore(cfg *store.StorageConfig) (store.KVStore, error) {
	if cfg.Path == "" {
		return nil, errors.New(errors.CodeStorageOpenFailure, "sqlite backend needs a database path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageOpenFailure, "creating storage directory")
	}
	return NewKVStore(cfg.Path)
}
