package models

import (
	"fmt"
	"strings"
)

const (
	missingValue    = "—"
	untitled        = "Untitled"
	missingOverview = "No overview available for this movie."
)

// Movie is a catalog item. Only ID is required; every display attribute is optional and has a fallback.
//
// Cast, Genres, and Runtime come from the detail endpoint and are not persisted with favorites.
type Movie struct {
	ID          ItemID       `json:"id" firestore:"id"`
	Title       string       `json:"title,omitempty" firestore:"title,omitempty"`
	ReleaseDate string       `json:"release_date,omitempty" firestore:"release_date,omitempty"`
	Year        string       `json:"year,omitempty" firestore:"year,omitempty"`
	Rating      float64      `json:"vote_average,omitempty" firestore:"vote_average,omitempty"`
	PosterPath  string       `json:"poster_path,omitempty" firestore:"poster_path,omitempty"`
	Overview    string       `json:"overview,omitempty" firestore:"overview,omitempty"`
	Runtime     int          `json:"runtime,omitempty" firestore:"-"`
	Genres      []string     `json:"genres,omitempty" firestore:"-"`
	Cast        []CastMember `json:"cast,omitempty" firestore:"-"`
}

// CastMember is one credited actor.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character,omitempty"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Summary returns the movie without detail-only fields; this is the shape stored in favorites.
func (m Movie) Summary() Movie {
	return Movie{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Year:        m.Year,
		Rating:      m.Rating,
		PosterPath:  m.PosterPath,
		Overview:    m.Overview,
	}
}

// DisplayTitle returns the title or "Untitled".
func (m Movie) DisplayTitle() string {
	if t := strings.TrimSpace(m.Title); t != "" {
		return t
	}
	return untitled
}

// DisplayYear returns Year, else the year portion of ReleaseDate, else "—".
func (m Movie) DisplayYear() string {
	if y := strings.TrimSpace(m.Year); y != "" {
		return y
	}
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return missingValue
}

// DisplayRating formats the rating with one decimal, or "—" when unrated.
func (m Movie) DisplayRating() string {
	if m.Rating <= 0 {
		return missingValue
	}
	return fmt.Sprintf("%.1f", m.Rating)
}

// DisplayRuntime formats the runtime in minutes, or "—" when unknown.
func (m Movie) DisplayRuntime() string {
	if m.Runtime <= 0 {
		return missingValue
	}
	return fmt.Sprintf("%d mins", m.Runtime)
}

// DisplayOverview returns the overview or a placeholder sentence.
func (m Movie) DisplayOverview() string {
	if o := strings.TrimSpace(m.Overview); o != "" {
		return o
	}
	return missingOverview
}

// DisplayGenres joins genres with commas, or "—".
func (m Movie) DisplayGenres() string {
	if len(m.Genres) == 0 {
		return missingValue
	}
	return strings.Join(m.Genres, ", ")
}

// PosterURL joins base, size, and the poster path. It returns "" when the movie has no poster.
func (m Movie) PosterURL(base, size string) string {
	if m.PosterPath == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return strings.TrimRight(base, "/") + "/" + size + "/" + strings.TrimLeft(m.PosterPath, "/")
}
