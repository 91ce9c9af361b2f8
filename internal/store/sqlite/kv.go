// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Webbridge Contributors

package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/webbridge-dev/webbridge/internal/store"
	"github.com/webbridge-dev/webbridge/pkg/errors"
)

// Compile-time interface check.
var _ store.KVStore = (*KVStore)(nil)

// KVStore implements store.KVStore backed by a single SQLite database.
type KVStore struct {
	db *sql.DB
}

// NewKVStore opens (or creates) a SQLite database at dbPath and initialises
// the kv table.
func NewKVStore(dbPath string) (*KVStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageOpenFailure, "opening kv db",
			errors.Field("path", dbPath))
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorageOpenFailure, "pinging kv db",
			errors.Field("path", dbPath))
	}

	if err := migrateKV(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStorageOpenFailure, "migrating kv db",
			errors.Field("path", dbPath))
	}

	return &KVStore{db: db}, nil
}

func migrateKV(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
	scope      TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (scope, key)
);
`
	_, err := db.Exec(ddl)
	return err
}

func (s *KVStore) Get(ctx context.Context, scope, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND key = ?`, scope, key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", errors.Errorf(errors.CodeStorageKeyNotFound, "key %q not found", key)
	}
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeStorageQueryFailure, "reading key %s", key)
	}
	return value, nil
}

func (s *KVStore) Set(ctx context.Context, scope, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO kv (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope, key, value, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrapf(err, errors.CodeStorageQueryFailure, "writing key %s", key)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, scope, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, scope, key)
	if err != nil {
		return false, errors.Wrapf(err, errors.CodeStorageQueryFailure, "deleting key %s", key)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, errors.CodeStorageQueryFailure, "counting deleted rows")
	}
	return n > 0, nil
}

func (s *KVStore) Keys(ctx context.Context, scope string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM kv WHERE scope = ? ORDER BY key`, scope)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageQueryFailure, "listing keys")
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, errors.CodeStorageQueryFailure, "scanning key")
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageQueryFailure, "iterating keys")
	}
	return keys, nil
}

func (s *KVStore) Clear(ctx context.Context, scope string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ?`, scope)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageQueryFailure, "clearing scope")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStorageQueryFailure, "counting cleared rows")
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *KVStore) Close() error { return s.db.Close() }
