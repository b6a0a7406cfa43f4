package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/favorites"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	FavoritesView
	DetailView
)

// Favorites is the favorites API the TUI drives.
type Favorites interface {
	Favorites() models.FavoritesList
	IsFavorite(id models.ItemID) bool
	Toggle(m models.Movie) (bool, *favorites.Task)
	Status() favorites.Status
	OnChange(fn func(models.FavoritesList))
}

// ThemeStore persists the theme preference.
type ThemeStore interface {
	ToggleTheme(fallback models.Theme) (models.Theme, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	lastView ViewState
	catalog  services.Catalog
	favs     Favorites
	themes   ThemeStore
	theme    models.Theme
	styles   *Palette
	width    int
	height   int
	browse   list.Model
	favList  list.Model
	page     *services.MoviePage
	query    string
	search   textinput.Model
	typing   bool
	detail   *models.Movie
	loading  bool
	spinner  spinner.Model
	status   string
	err      error
	changes  chan models.FavoritesList
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model. catalog may be nil, in which case only the favorites view is available.
func NewModel(ctx context.Context, catalog services.Catalog, favs Favorites, themes ThemeStore, theme models.Theme) *Model {
	search := textinput.New()
	search.Placeholder = "Search movies..."
	search.CharLimit = 100

	m := &Model{
		ctx:     ctx,
		view:    BrowseView,
		catalog: catalog,
		favs:    favs,
		themes:  themes,
		theme:   theme,
		styles:  PaletteFor(theme),
		browse:  newMovieList("Popular Movies"),
		favList: newMovieList("Favorites"),
		search:  search,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		changes: make(chan models.FavoritesList, 1),
		help:    help.New(),
		keys:    newKeyMap(),
	}

	if catalog == nil {
		m.view = FavoritesView
		m.status = "Movie catalog not configured; showing favorites only"
	}

	favs.OnChange(m.publishChange)
	m.setFavorites(favs.Favorites())
	return m
}

func newMovieList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	return l
}

// publishChange forwards favorites changes to the update loop, replacing any undelivered list.
func (m *Model) publishChange(list models.FavoritesList) {
	select {
	case m.changes <- list:
		return
	default:
	}
	select {
	case <-m.changes:
	default:
	}
	select {
	case m.changes <- list:
	default:
	}
}

// View returns the active view.
func (m *Model) View() string {
	if m.err != nil {
		return m.styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case BrowseView:
		body = m.renderBrowse()
	case FavoritesView:
		body = m.renderFavorites()
	case DetailView:
		body = m.renderDetail()
	}

	return fmt.Sprintf("%s\n%s\n%s", m.renderHeader(), body, m.renderFooter())
}

// CurrentView reports which view is showing.
func (m *Model) CurrentView() ViewState {
	return m.view
}

// Init fetches the first page of popular movies.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForChanges()}
	if m.catalog != nil {
		m.loading = true
		cmds = append(cmds, m.fetchMovies("", 1), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.browse.SetSize(msg.Width-4, msg.Height-8)
		m.favList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if m.typing {
			return m.handleSearchKeys(msg)
		}
		return m.handleKeys(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMoviesFetched:
		data := msg.data.(moviesFetched)
		m.loading = false
		if data.err != nil {
			m.status = fmt.Sprintf("Failed to load movies: %v", data.err)
			return m, nil
		}
		m.page = data.page
		m.query = data.query
		if data.query == "" {
			m.browse.Title = fmt.Sprintf("Popular Movies (page %d/%d)", data.page.Page, data.page.TotalPages)
		} else {
			m.browse.Title = fmt.Sprintf("Results for %q (page %d/%d)", data.query, data.page.Page, data.page.TotalPages)
		}
		m.browse.SetItems(movieItems(data.page.Movies, m.favs.IsFavorite))
		m.browse.Select(0)
		return m, nil

	case MsgDetailsFetched:
		data := msg.data.(detailsFetched)
		m.loading = false
		if data.err != nil {
			m.status = fmt.Sprintf("Failed to load details: %v", data.err)
			return m, nil
		}
		m.detail = data.movie
		m.lastView = m.view
		m.view = DetailView
		return m, nil

	case MsgFavoritesChanged:
		m.setFavorites(msg.data.(models.FavoritesList))
		return m, m.waitForChanges()
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.favorite):
		if movie, ok := m.selected(); ok {
			m.toggle(movie)
		}
		return m, nil

	case key.Matches(msg, m.keys.theme):
		m.toggleTheme()
		return m, nil

	case key.Matches(msg, m.keys.back):
		if m.view == DetailView {
			m.view = m.lastView
			m.detail = nil
		}
		return m, nil
	}

	if m.view == DetailView {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.switchTab):
		if m.view == BrowseView {
			m.view = FavoritesView
		} else if m.catalog != nil {
			m.view = BrowseView
		}
		return m, nil

	case key.Matches(msg, m.keys.enter):
		movie, ok := m.selected()
		if !ok {
			return m, nil
		}
		if m.catalog == nil {
			m.detail = &movie
			m.lastView = m.view
			m.view = DetailView
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.fetchDetails(movie.ID), m.spinner.Tick)
	}

	if m.view == BrowseView && m.catalog != nil {
		switch {
		case key.Matches(msg, m.keys.search):
			m.typing = true
			m.search.SetValue("")
			return m, m.search.Focus()

		case key.Matches(msg, m.keys.next):
			if m.page.HasNext() {
				m.loading = true
				return m, tea.Batch(m.fetchMovies(m.query, m.page.Page+1), m.spinner.Tick)
			}
			return m, nil

		case key.Matches(msg, m.keys.prev):
			if m.page != nil && m.page.Page > 1 {
				m.loading = true
				return m, tea.Batch(m.fetchMovies(m.query, m.page.Page-1), m.spinner.Tick)
			}
			return m, nil
		}
	}

	return m.updateLists(msg)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.typing = false
		m.search.Blur()
		return m, nil
	case tea.KeyEnter:
		m.typing = false
		m.search.Blur()
		query := strings.TrimSpace(m.search.Value())
		m.loading = true
		return m, tea.Batch(m.fetchMovies(query, 1), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case BrowseView:
		m.browse, cmd = m.browse.Update(msg)
	case FavoritesView:
		m.favList, cmd = m.favList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selected() (models.Movie, bool) {
	if m.view == DetailView && m.detail != nil {
		return *m.detail, true
	}

	var item list.Item
	switch m.view {
	case BrowseView:
		item = m.browse.SelectedItem()
	case FavoritesView:
		item = m.favList.SelectedItem()
	}
	if mi, ok := item.(movieItem); ok {
		return mi.movie, true
	}
	return models.Movie{}, false
}

func (m *Model) toggle(movie models.Movie) {
	added, _ := m.favs.Toggle(movie)
	if added {
		m.status = fmt.Sprintf("Added %s to favorites", movie.DisplayTitle())
	} else {
		m.status = fmt.Sprintf("Removed %s from favorites", movie.DisplayTitle())
	}
	m.setFavorites(m.favs.Favorites())
}

func (m *Model) toggleTheme() {
	next := m.theme.Toggle()
	if m.themes != nil {
		saved, err := m.themes.ToggleTheme(m.theme)
		if err != nil {
			m.status = fmt.Sprintf("Theme not saved: %v", err)
		}
		next = saved
	}
	m.theme = next
	m.styles = PaletteFor(next)
}

// setFavorites refreshes the favorites list and the hearts in the browse list.
func (m *Model) setFavorites(list models.FavoritesList) {
	m.favList.Title = fmt.Sprintf("Favorites (%d)", len(list))
	m.favList.SetItems(movieItems(list, func(models.ItemID) bool { return true }))

	items := m.browse.Items()
	for i, it := range items {
		if mi, ok := it.(movieItem); ok {
			mi.favorite = list.Contains(mi.movie.ID)
			items[i] = mi
		}
	}
	m.browse.SetItems(items)
}

func (m *Model) waitForChanges() tea.Cmd {
	ch := m.changes
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case list := <-ch:
			return favoritesChangedMsg(list)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) fetchMovies(query string, page int) tea.Cmd {
	return func() tea.Msg {
		var (
			result *services.MoviePage
			err    error
		)
		if query == "" {
			result, err = m.catalog.Popular(m.ctx, page)
		} else {
			result, err = m.catalog.Search(m.ctx, query, page)
		}
		return moviesFetchedMsg(result, query, err)
	}
}

func (m *Model) fetchDetails(id models.ItemID) tea.Cmd {
	return func() tea.Msg {
		movie, err := m.catalog.Details(m.ctx, id)
		return detailsFetchedMsg(movie, err)
	}
}

func (m *Model) renderHeader() string {
	st := m.favs.Status()

	who := "Guest"
	if st.User != nil {
		who = "Signed in as " + st.User.Label()
	}
	sync := st.State.String()
	if !st.Remote {
		sync = "local only"
	}

	line := fmt.Sprintf("%s · %s · %d favorites", who, sync, st.Count)
	if m.loading {
		line = fmt.Sprintf("%s %s", m.spinner.View(), line)
	}
	return m.styles.title.Render("reelx") + "\n" + m.styles.muted.Render(line)
}

func (m *Model) renderFooter() string {
	var status string
	if m.status != "" {
		status = m.styles.warn.Render(m.status) + "\n"
	}
	return status + m.help.View(m.keys)
}

func (m *Model) renderBrowse() string {
	if m.typing {
		return fmt.Sprintf("%s\n\n%s", m.styles.accent.Render("Search"), m.search.View())
	}
	return m.browse.View()
}

func (m *Model) renderFavorites() string {
	if len(m.favList.Items()) == 0 {
		return m.styles.help.Render("No favorites yet. Press tab to browse and f to add one.")
	}
	return m.favList.View()
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	d := m.detail

	heart := ""
	if m.favs.IsFavorite(d.ID) {
		heart = m.styles.ok.Render(" ♥")
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(fmt.Sprintf("%s (%s)", d.DisplayTitle(), d.DisplayYear())) + heart + "\n")
	b.WriteString(fmt.Sprintf("Rating: %s   Runtime: %s\n", d.DisplayRating(), d.DisplayRuntime()))
	b.WriteString(fmt.Sprintf("Genres: %s\n\n", d.DisplayGenres()))
	b.WriteString(d.DisplayOverview() + "\n")

	if len(d.Cast) > 0 {
		b.WriteString("\n" + m.styles.accent.Render("Cast") + "\n")
		for _, c := range d.Cast {
			if c.Character != "" {
				b.WriteString(fmt.Sprintf("  • %s as %s\n", c.Name, c.Character))
			} else {
				b.WriteString(fmt.Sprintf("  • %s\n", c.Name))
			}
		}
	}

	return b.String()
}
