package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/reelx/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie    models.Movie
	favorite bool
}

func (i movieItem) FilterValue() string { return i.movie.DisplayTitle() }
func (i movieItem) Title() string {
	if i.favorite {
		return "♥ " + i.movie.DisplayTitle()
	}
	return i.movie.DisplayTitle()
}
func (i movieItem) Description() string {
	return fmt.Sprintf("%s • ★ %s", i.movie.DisplayYear(), i.movie.DisplayRating())
}

func movieItems(movies []models.Movie, isFavorite func(models.ItemID) bool) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m, favorite: isFavorite(m.ID)}
	}
	return items
}
