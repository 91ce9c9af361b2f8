// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin

import (
	"github.com/webbridge-dev/webbridge/internal/secrets"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

const keychainServicePrefix = "webbridge:"

// Keychain exposes the secret store to one origin. Every origin gets its own
// keyring service so pages cannot read each other's secrets.
type Keychain struct {
	store   secrets.Store
	service string
}

func NewKeychain(store secrets.Store, origin string) *Keychain {
	return &Keychain{store: store, service: keychainServicePrefix + origin}
}

func (k *Keychain) Name() string { return KeychainName }

func (k *Keychain) Methods() []string { return []string{"delete", "get", "keys", "set"} }

func (k *Keychain) Execute(action string, cmd *bridge.Command) bool {
	switch action {
	case "get":
		key, ok := requireKey(cmd)
		if !ok {
			return true
		}
		v, err := k.store.Get(k.service, key)
		switch {
		case errors.IsNotFound(err):
			cmd.Success()
		case err != nil:
			k.fail(cmd, err)
		default:
			cmd.SuccessWithString(v)
		}
	case "set":
		key, ok := requireKey(cmd)
		if !ok {
			return true
		}
		if !cmd.HasStringAt(1) {
			cmd.ErrorWithStatus(bridge.StatusInvalidAction, bridge.StringMessage("secret must be a string"))
			return true
		}
		if err := k.store.Set(k.service, key, cmd.StringAt(1, "")); err != nil {
			k.fail(cmd, err)
			return true
		}
		cmd.Success()
	case "delete":
		key, ok := requireKey(cmd)
		if !ok {
			return true
		}
		err := k.store.Delete(k.service, key)
		switch {
		case errors.IsNotFound(err):
			cmd.SuccessWithBool(false)
		case err != nil:
			k.fail(cmd, err)
		default:
			cmd.SuccessWithBool(true)
		}
	case "keys":
		keys, err := k.store.Keys(k.service)
		if err != nil {
			k.fail(cmd, err)
			return true
		}
		out := make([]bridge.Message, len(keys))
		for i, key := range keys {
			out[i] = bridge.StringMessage(key)
		}
		cmd.SuccessWithArray(out)
	default:
		return false
	}
	return true
}

func (k *Keychain) fail(cmd *bridge.Command, err error) {
	if errors.HasCode(err, errors.CodeKeychainInvalidInput) {
		failWith(cmd, bridge.StatusInvalidAction, err)
		return
	}
	failWith(cmd, bridge.StatusIOError, err)
}
