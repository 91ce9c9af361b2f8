// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package secrets

import (
	"maps"
	"slices"
	"sync"

	"github.com/webbridge-dev/webbridge/pkg/errors"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps secrets in process memory. It backs hosts without an OS
// keyring, such as CI containers.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{services: make(map[string]map[string]string)}
}

func (s *MemoryStore) Set(service, key, value string) error {
	if err := checkInput(service, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.services[service] == nil {
		s.services[service] = make(map[string]string)
	}
	s.services[service][key] = value
	return nil
}

func (s *MemoryStore) Get(service, key string) (string, error) {
	if err := checkInput(service, key); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.services[service][key]
	if !ok {
		return "", errors.Errorf(errors.CodeKeychainNotFound, "secret %s/%s not found", service, key)
	}
	return v, nil
}

func (s *MemoryStore) Delete(service, key string) error {
	if err := checkInput(service, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[service][key]; !ok {
		return errors.Errorf(errors.CodeKeychainNotFound, "secret %s/%s not found", service, key)
	}
	delete(s.services[service], key)
	return nil
}

func (s *MemoryStore) Keys(service string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := slices.Sorted(maps.Keys(s.services[service]))
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}
