package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/reelx/internal/shared"
)

// KVRepository is a string key-value store over the kv_store table.
//
// All methods are safe on a nil receiver and report [shared.ErrStorageUnavailable].
type KVRepository struct {
	db *sql.DB
}

// NewKVRepository creates a new [KVRepository] with the given database connection.
//
// A nil db yields a nil repository, i.e. unavailable storage.
func NewKVRepository(db *sql.DB) *KVRepository {
	if db == nil {
		return nil
	}
	return &KVRepository{db: db}
}

// Get returns the value for key and whether it exists.
func (r *KVRepository) Get(key string) (string, bool, error) {
	if r == nil {
		return "", false, shared.ErrStorageUnavailable
	}

	var value string
	err := r.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to read %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return value, true, nil
}

// Set inserts or replaces the value for key.
func (r *KVRepository) Set(key, value string) error {
	if r == nil {
		return shared.ErrStorageUnavailable
	}

	query := `
		INSERT INTO kv_store (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	now := time.Now()
	if _, err := r.db.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepository) Delete(key string) error {
	if r == nil {
		return shared.ErrStorageUnavailable
	}
	if _, err := r.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("%w: failed to delete %s: %v", shared.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (r *KVRepository) Keys() ([]string, error) {
	if r == nil {
		return nil, shared.ErrStorageUnavailable
	}

	rows, err := r.db.Query("SELECT key FROM kv_store ORDER BY key ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}
