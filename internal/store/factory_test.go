// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webbridge-dev/webbridge/internal/store"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func TestNewKVStore_Memory(t *testing.T) {
	ctx := t.Context()
	kv, err := store.NewKVStore(&store.StorageConfig{Backend: "memory"})
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set(ctx, "s", "b", "2"))
	require.NoError(t, kv.Set(ctx, "s", "a", "1"))

	keys, err := kv.Keys(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	_, err = kv.Get(ctx, "other", "a")
	assert.True(t, errors.IsNotFound(err))

	n, err := kv.Clear(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestNewKVStore_UnknownBackend(t *testing.T) {
	_, err := store.NewKVStore(&store.StorageConfig{Backend: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}
