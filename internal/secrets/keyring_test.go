// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

func init() {
	// Keep tests off the real OS keyring.
	keyring.MockInit()
}

func stores() map[string]secrets.Store {
	return map[string]secrets.Store{
		"keyring": secrets.NewKeyringStore(),
		"memory":  secrets.NewMemoryStore(),
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			svc := "webbridge:" + name + ":crud"

			require.NoError(t, s.Set(svc, "token", "old"))
			require.NoError(t, s.Set(svc, "token", "new"))
			require.NoError(t, s.Set(svc, "alpha", ""))

			v, err := s.Get(svc, "token")
			require.NoError(t, err)
			assert.Equal(t, "new", v)

			keys, err := s.Keys(svc)
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "token"}, keys)

			require.NoError(t, s.Delete(svc, "token"))
			_, err = s.Get(svc, "token")
			assert.True(t, errors.HasCode(err, errors.CodeKeychainNotFound))

			err = s.Delete(svc, "token")
			assert.True(t, errors.IsNotFound(err))

			keys, err = s.Keys(svc)
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha"}, keys)
		})
	}
}

func TestStore_InvalidInput(t *testing.T) {
	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			tests := []struct {
				service string
				key     string
			}{
				{"", "key"},
				{"svc", ""},
				{"svc", "::index"},
			}
			for _, tt := range tests {
				err := s.Set(tt.service, tt.key, "v")
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.CodeKeychainInvalidInput))
			}
		})
	}
}

func TestStore_IsolatedServices(t *testing.T) {
	for name, s := range stores() {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(name+"-a", "k", "a"))
			require.NoError(t, s.Set(name+"-b", "k", "b"))

			v, err := s.Get(name+"-a", "k")
			require.NoError(t, err)
			assert.Equal(t, "a", v)

			keys, err := s.Keys(name + "-empty")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}
