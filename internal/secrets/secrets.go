// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

// Package secrets stores small secrets by service and key. The keychain
// plugin gives each page origin its own service.
package secrets

// Store is a secret store partitioned by service.
type Store interface {
	Set(service, key, value string) error
	// Get returns a keychain.secret.not_found error for unknown keys.
	Get(service, key string) (string, error)
	// Delete returns a keychain.secret.not_found error for unknown keys.
	Delete(service, key string) error
	// Keys lists the keys stored under service in sorted order.
	Keys(service string) ([]string, error)
}
