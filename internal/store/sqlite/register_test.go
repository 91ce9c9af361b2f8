// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package sqlite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/internal/store"
	_ "github.com/webbridge-dev/webbridge/internal/store/sqlite"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func TestRegisteredBackend(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "nested", "deeper", "kv.db")

	kv, err := store.NewKVStore(&store.StorageConfig{Backend: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, kv.Set(ctx, "prefs", "theme", `"dark"`))
	got, err := kv.Get(ctx, "prefs", "theme")
	require.NoError(t, err)
	assert.Equal(t, `"dark"`, got)
}

func TestRegisteredBackend_Errors(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "parent is a file", path: filepath.Join(blocker, "kv.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.NewKVStore(&store.StorageConfig{Backend: "sqlite", Path: tt.path})
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeStorageOpenFailure))
		})
	}
}
