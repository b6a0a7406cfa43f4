// package repositories provides persistence layer implementations for local and remote stores.
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/shared"
)

// Storage keys in the local key-value store.
const (
	FavoritesKey = "movie_favorites"
	TodosKey     = "todos_v1"
	NotesKey     = "notes_v1"
	ReviewsKey   = "movie_reviews_v1"
	UsernameKey  = "movie_username"
	ThemeKey     = "user_theme"
)

// JSONDocument is a typed JSON value stored under a single key.
//
// A nil [KVRepository] means storage is unavailable: loads return the zero value and saves fail
// with [shared.ErrStorageUnavailable].
type JSONDocument[T any] struct {
	kv     *KVRepository
	key    string
	logger *log.Logger
}

// NewJSONDocument creates a [JSONDocument] for key. A nil logger discards output.
func NewJSONDocument[T any](kv *KVRepository, key string, logger *log.Logger) *JSONDocument[T] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &JSONDocument[T]{kv: kv, key: key, logger: logger}
}

// Key returns the storage key.
func (d *JSONDocument[T]) Key() string { return d.key }

// Load returns the stored value, or the zero value when it is absent, malformed, or storage is unavailable.
//
// Malformed values are deleted so the next save starts clean.
func (d *JSONDocument[T]) Load() T {
	var zero T

	raw, ok, err := d.kv.Get(d.key)
	if err != nil {
		d.logger.Warn("failed to read local document", "key", d.key, "err", err)
		return zero
	}
	if !ok {
		return zero
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		d.logger.Warn("discarding malformed local document", "key", d.key, "err", err)
		if err := d.kv.Delete(d.key); err != nil {
			d.logger.Warn("failed to remove malformed local document", "key", d.key, "err", err)
		}
		return zero
	}
	return v
}

// Save serialises v and writes it. Failures are logged and returned.
func (d *JSONDocument[T]) Save(v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		d.logger.Warn("failed to encode local document", "key", d.key, "err", err)
		return fmt.Errorf("failed to encode %s: %w", d.key, err)
	}
	if err := d.kv.Set(d.key, string(data)); err != nil {
		if !errors.Is(err, shared.ErrStorageUnavailable) {
			d.logger.Warn("failed to write local document", "key", d.key, "err", err)
		}
		return err
	}
	return nil
}
