package repositories

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
)

// FavoritesLocalStore reads and writes the favorites list in the local key-value store.
//
// It never fails to the caller: load problems yield an empty list and save problems are logged.
type FavoritesLocalStore struct {
	doc *JSONDocument[models.FavoritesList]
}

// NewFavoritesLocalStore creates a local favorites store. kv may be nil for memory-only operation.
func NewFavoritesLocalStore(kv *KVRepository, logger *log.Logger) *FavoritesLocalStore {
	return &FavoritesLocalStore{doc: NewJSONDocument[models.FavoritesList](kv, FavoritesKey, logger)}
}

// Load returns the stored list with duplicate and empty ids removed.
func (s *FavoritesLocalStore) Load() models.FavoritesList {
	return s.doc.Load().Dedup()
}

// Save writes list; failures are logged and otherwise ignored.
func (s *FavoritesLocalStore) Save(list models.FavoritesList) {
	_ = s.doc.Save(list.Clone())
}
