// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package secrets

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI splits keyring://service/key. The key may contain slashes.
func ParseKeyringURI(uri string) (service, key string, err error) {
	rest, ok := strings.CutPrefix(uri, keyringScheme)
	if !ok {
		return "", "", errors.Errorf(errors.CodeKeychainInvalidInput, "not a keyring URI: %q", uri)
	}
	service, key, ok = strings.Cut(rest, "/")
	if !ok || service == "" || key == "" {
		return "", "", errors.Errorf(errors.CodeKeychainInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return service, key, nil
}

// Resolve returns value unchanged unless it is a keyring URI, in which case
// it returns the referenced secret.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}
	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}
	secret, err := store.Get(service, key)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeConfigLoadReadFailure, "resolving keyring URI %q", value)
	}
	return secret, nil
}

// ResolveViper replaces every keyring:// string in v with its secret. It
// stops at the first value that cannot be resolved.
func ResolveViper(v *viper.Viper, store Store) error {
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok || !IsKeyringURI(val) {
			continue
		}
		resolved, err := Resolve(store, val)
		if err != nil {
			return errors.Wrapf(err, errors.CodeConfigLoadReadFailure, "config key %s", key)
		}
		v.Set(key, resolved)
	}
	return nil
}
