// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package secrets

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"slices"

	"github.com/zalando/go-keyring"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// indexKey holds a JSON list of the keys under a service, since the OS
// keyrings cannot enumerate entries.
const indexKey = "::index"

var _ Store = (*KeyringStore)(nil)

// KeyringStore keeps secrets in the OS keyring through go-keyring.
type KeyringStore struct{}

func NewKeyringStore() *KeyringStore { return &KeyringStore{} }

func checkInput(service, key string) error {
	if service == "" {
		return errors.New(errors.CodeKeychainInvalidInput, "service must not be empty")
	}
	if key == "" || key == indexKey {
		return errors.New(errors.CodeKeychainInvalidInput, "invalid secret key",
			errors.Field("key", key))
	}
	return nil
}

func (s *KeyringStore) Set(service, key, value string) error {
	if err := checkInput(service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return errors.Wrapf(err, errors.CodeKeychainBackendFailure, "storing secret %s/%s", service, key)
	}

	keys, err := s.index(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return s.writeIndex(service, append(keys, key))
}

func (s *KeyringStore) Get(service, key string) (string, error) {
	if err := checkInput(service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return "", errors.Errorf(errors.CodeKeychainNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeKeychainBackendFailure, "reading secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkInput(service, key); err != nil {
		return err
	}
	err := keyring.Delete(service, key)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return errors.Errorf(errors.CodeKeychainNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return errors.Wrapf(err, errors.CodeKeychainBackendFailure, "deleting secret %s/%s", service, key)
	}

	keys, err := s.index(service)
	if err != nil {
		return err
	}
	return s.writeIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (s *KeyringStore) Keys(service string) ([]string, error) {
	keys, err := s.index(service)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *KeyringStore) index(service string) ([]string, error) {
	raw, err := keyring.Get(service, indexKey)
	if stderrors.Is(err, keyring.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeKeychainBackendFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, errors.Wrapf(err, errors.CodeKeychainBackendFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func (s *KeyringStore) writeIndex(service string, keys []string) error {
	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil && !stderrors.Is(err, keyring.ErrNotFound) {
			slog.Debug("removing empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return errors.Wrapf(err, errors.CodeKeychainBackendFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return errors.Wrapf(err, errors.CodeKeychainBackendFailure, "saving key index for %s", service)
	}
	return nil
}
