package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMoviesFetched MsgKind = iota
	MsgDetailsFetched
	MsgFavoritesChanged
)

type moviesFetched struct {
	page  *services.MoviePage
	query string
	err   error
}

type detailsFetched struct {
	movie *models.Movie
	err   error
}

// moviesFetchedMsg is the constructor for [MsgMoviesFetched]
func moviesFetchedMsg(page *services.MoviePage, query string, err error) Msg {
	return Msg{kind: MsgMoviesFetched, data: moviesFetched{page, query, err}}
}

// detailsFetchedMsg is the constructor for [MsgDetailsFetched]
func detailsFetchedMsg(movie *models.Movie, err error) Msg {
	return Msg{kind: MsgDetailsFetched, data: detailsFetched{movie, err}}
}

// favoritesChangedMsg is the constructor for [MsgFavoritesChanged]
func favoritesChangedMsg(list models.FavoritesList) Msg {
	return Msg{kind: MsgFavoritesChanged, data: list}
}
