// package services defines clients for the HTTP APIs reelx depends on
//
// TMDB, Google OAuth, Firebase Identity Toolkit
package services

import (
	"context"

	"github.com/desertthunder/reelx/internal/models"
)

// Catalog is a source of movie metadata.
type Catalog interface {
	// Popular returns one page of currently popular movies. Pages start at 1.
	Popular(ctx context.Context, page int) (*MoviePage, error)

	// Search returns one page of movies whose title matches query.
	Search(ctx context.Context, query string, page int) (*MoviePage, error)

	// Details returns the full record for one movie, including cast.
	Details(ctx context.Context, id models.ItemID) (*models.Movie, error)

	// Name returns the name of the catalog (e.g. "TMDB")
	Name() string
}

// MoviePage is one page of catalog results.
type MoviePage struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Movies       []models.Movie `json:"results"`
}

// HasNext reports whether another page follows.
func (p *MoviePage) HasNext() bool {
	return p != nil && p.Page < p.TotalPages
}
