package models

import (
	"fmt"
	"strings"
	"time"
)

// Todo is a single checklist entry.
type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// TodoFilter selects which todos to list.
type TodoFilter string

const (
	TodoFilterAll       TodoFilter = "all"
	TodoFilterCompleted TodoFilter = "completed"
	TodoFilterPending   TodoFilter = "pending"
)

// ParseTodoFilter maps a flag value to a filter; empty means all.
func ParseTodoFilter(s string) (TodoFilter, error) {
	switch f := TodoFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", TodoFilterAll:
		return TodoFilterAll, nil
	case TodoFilterCompleted, TodoFilterPending:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, completed, or pending)", s)
	}
}

// Match reports whether t passes the filter.
func (f TodoFilter) Match(t Todo) bool {
	switch f {
	case TodoFilterCompleted:
		return t.Completed
	case TodoFilterPending:
		return !t.Completed
	default:
		return true
	}
}

// Note is a free-text note.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

const (
	MinRating = 1
	MaxRating = 10
)

// Review is a user's rating and comment on a movie.
type Review struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate requires a username, a comment, and a rating within [MinRating, MaxRating].
func (r Review) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return fmt.Errorf("comment is required")
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// AverageRating returns the mean rating, or 0 for no reviews.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns ThemeDark for "dark" (any case) and ThemeLight for everything else.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle flips between light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
