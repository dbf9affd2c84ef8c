// Package localstore is the client's durable key/value store.
//
// Values are strings under string keys, kept in a single SQLite table, and
// survive between CLI invocations. Structured values are stored as JSON via
// GetJSON and SetJSON.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/fitness-tracker/internal/repository/sqlite"
)

// Keys used by the client.
const (
	UsersKey       = "fitness-tracker-users"
	CurrentUserKey = "fitness-tracker-current-user"
	dataKeyPrefix  = "fitness-tracker-data-"
)

// DataKey is the key holding the fitness collections of the user with userID.
func DataKey(userID string) string {
	return dataKeyPrefix + userID
}

// ErrCorrupt is returned by GetJSON when a stored value is not valid JSON for
// the requested type.
var ErrCorrupt = errors.New("localstore: corrupt value")

// Store is a key/value store backed by one SQLite file.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the store at path, creating parent directories as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("localstore: creating store directory: %w", err)
	}

	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("localstore: creating kv table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetItem returns the value stored under key. ok is false when the key is absent.
func (s *Store) GetItem(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: reading %s: %w", key, err)
	}
	return value, true, nil
}

// SetItem stores value under key, replacing any previous value.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("localstore: writing %s: %w", key, err)
	}
	return nil
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("localstore: removing %s: %w", key, err)
	}
	return nil
}

// GetJSON decodes the value under key into v. ok is false when the key is
// absent; a value that does not decode returns an error wrapping ErrCorrupt.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (ok bool, err error) {
	raw, ok, err := s.GetItem(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encoding %s: %w", key, err)
	}
	return s.SetItem(ctx, key, string(raw))
}
