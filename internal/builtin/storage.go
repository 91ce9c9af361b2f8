// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package builtin

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/webbridge-dev/webbridge/internal/store"
	"github.com/webbridge-dev/webbridge/pkg/bridge"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Storage is a per-origin key/value plugin. Values are kept as JSON so they
// come back with the type the page stored.
type Storage struct {
	kv    store.KVStore
	scope string
}

// NewStorage returns a storage plugin bound to scope.
func NewStorage(kv store.KVStore, scope string) *Storage {
	return &Storage{kv: kv, scope: scope}
}

func (s *Storage) Name() string { return StorageName }

func (s *Storage) Methods() []string {
	return []string{"clear", "get", "keys", "remove", "set"}
}

func (s *Storage) Execute(action string, cmd *bridge.Command) bool {
	switch action {
	case "get":
		s.get(cmd)
	case "set":
		s.set(cmd)
	case "remove":
		s.remove(cmd)
	case "keys":
		s.keys(cmd)
	case "clear":
		s.clear(cmd)
	default:
		return false
	}
	return true
}

func requireKey(cmd *bridge.Command) (string, bool) {
	key := cmd.StringAt(0, "")
	if key == "" {
		cmd.ErrorWithStatus(bridge.StatusInvalidAction, bridge.StringMessage("key must be a non-empty string"))
		return "", false
	}
	return key, true
}

// get answers null for missing keys.
func (s *Storage) get(cmd *bridge.Command) {
	key, ok := requireKey(cmd)
	if !ok {
		return
	}
	raw, err := s.kv.Get(context.Background(), s.scope, key)
	if errors.IsNotFound(err) {
		cmd.Success()
		return
	}
	if err != nil {
		failWith(cmd, bridge.StatusIOError, err)
		return
	}
	v, err := bridge.ParseValue([]byte(raw))
	if err != nil {
		slog.Warn("storage value is not valid JSON", "scope", s.scope, "key", key, "error", err)
		failWith(cmd, bridge.StatusSerializationError, err)
		return
	}
	cmd.SuccessWithMessage(bridge.ValueMessage(v))
}

func (s *Storage) set(cmd *bridge.Command) {
	key, ok := requireKey(cmd)
	if !ok {
		return
	}
	data, err := json.Marshal(cmd.ArgumentOr(1, bridge.Null()))
	if err != nil {
		failWith(cmd, bridge.StatusSerializationError, err)
		return
	}
	if err := s.kv.Set(context.Background(), s.scope, key, string(data)); err != nil {
		failWith(cmd, bridge.StatusIOError, err)
		return
	}
	cmd.Success()
}

func (s *Storage) remove(cmd *bridge.Command) {
	key, ok := requireKey(cmd)
	if !ok {
		return
	}
	existed, err := s.kv.Delete(context.Background(), s.scope, key)
	if err != nil {
		failWith(cmd, bridge.StatusIOError, err)
		return
	}
	cmd.SuccessWithBool(existed)
}

func (s *Storage) keys(cmd *bridge.Command) {
	keys, err := s.kv.Keys(context.Background(), s.scope)
	if err != nil {
		failWith(cmd, bridge.StatusIOError, err)
		return
	}
	out := make([]bridge.Message, len(keys))
	for i, k := range keys {
		out[i] = bridge.StringMessage(k)
	}
	cmd.SuccessWithArray(out)
}

func (s *Storage) clear(cmd *bridge.Command) {
	n, err := s.kv.Clear(context.Background(), s.scope)
	if err != nil {
		failWith(cmd, bridge.StatusIOError, err)
		return
	}
	cmd.SuccessWithInt(int(n))
}
