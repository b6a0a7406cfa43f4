package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultUsersCollection = "users"
	defaultFavoritesField  = "favorites"
)

// FirestoreFavorites keeps each user's favorites list as one field on the document {collection}/{uid}.
type FirestoreFavorites struct {
	client     *firestore.Client
	collection string
	field      string
}

// NewFirestoreClient opens a Firestore client for projectID, using credentialsFile when set and
// Application Default Credentials otherwise. FIRESTORE_EMULATOR_HOST is honoured by the client.
func NewFirestoreClient(ctx context.Context, projectID, credentialsFile string) (*firestore.Client, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("%w: firebase project_id is empty", shared.ErrMissingConfig)
	}

	client, err := firestore.NewClient(ctx, projectID, shared.GoogleClientOptions(credentialsFile)...)
	if err != nil {
		return nil, fmt.Errorf("%w: firestore.NewClient (project=%s): %v", shared.ErrServiceUnavailable, projectID, err)
	}
	return client, nil
}

// NewFirestoreFavorites creates the remote favorites store. Empty collection or field names use
// "users" and "favorites".
func NewFirestoreFavorites(client *firestore.Client, collection, field string) *FirestoreFavorites {
	if strings.TrimSpace(collection) == "" {
		collection = defaultUsersCollection
	}
	if strings.TrimSpace(field) == "" {
		field = defaultFavoritesField
	}
	return &FirestoreFavorites{client: client, collection: collection, field: field}
}

// Fetch reads the user's favorites.
//
// A missing document or missing field returns [shared.ErrDocumentNotFound]; any other failure is
// wrapped in [shared.ErrAPIRequest].
func (s *FirestoreFavorites) Fetch(ctx context.Context, uid string) (models.FavoritesList, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is empty", shared.ErrInvalidInput)
	}

	snap, err := s.client.Collection(s.collection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, shared.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: firestore get %s/%s: %v", shared.ErrAPIRequest, s.collection, uid, err)
	}
	if !snap.Exists() {
		return nil, shared.ErrDocumentNotFound
	}

	raw, ok := snap.Data()[s.field]
	if !ok || raw == nil {
		return nil, shared.ErrDocumentNotFound
	}
	return decodeFavorites(raw)
}

// Save merge-upserts the full list onto the user's document, leaving other fields intact.
func (s *FirestoreFavorites) Save(ctx context.Context, uid string, list models.FavoritesList) error {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return fmt.Errorf("%w: uid is empty", shared.ErrInvalidInput)
	}

	_, err := s.client.Collection(s.collection).Doc(uid).Set(ctx, map[string]any{
		s.field:     list.Clone(),
		"updatedAt": time.Now().UTC(),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("%w: firestore set %s/%s: %v", shared.ErrAPIRequest, s.collection, uid, err)
	}
	return nil
}

// decodeFavorites converts a raw Firestore array into a list by round-tripping through JSON,
// which lets [models.ItemID] accept both numeric and string ids.
func decodeFavorites(raw any) (models.FavoritesList, error) {
	if _, ok := raw.([]any); !ok {
		return nil, fmt.Errorf("%w: favorites field is %T, not an array", shared.ErrInvalidInput, raw)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	var list models.FavoritesList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: malformed favorites: %v", shared.ErrInvalidInput, err)
	}
	return list.Dedup(), nil
}
