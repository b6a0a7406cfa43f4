package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reelx/internal/favorites"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	mocks "github.com/desertthunder/reelx/internal/testing"
)

type stubCatalog struct {
	popular *services.MoviePage
	details map[models.ItemID]*models.Movie
	queries []string
}

func (s *stubCatalog) Popular(ctx context.Context, page int) (*services.MoviePage, error) {
	p := *s.popular
	p.Page = page
	return &p, nil
}

func (s *stubCatalog) Search(ctx context.Context, query string, page int) (*services.MoviePage, error) {
	s.queries = append(s.queries, query)
	return &services.MoviePage{Page: page, TotalPages: 1, Movies: mocks.Items("77")}, nil
}

func (s *stubCatalog) Details(ctx context.Context, id models.ItemID) (*models.Movie, error) {
	if m, ok := s.details[id]; ok {
		return m, nil
	}
	return nil, shared.ErrMovieNotFound
}

func (s *stubCatalog) Name() string { return "stub" }

type stubThemes struct{ saved models.Theme }

func (s *stubThemes) ToggleTheme(fallback models.Theme) (models.Theme, error) {
	s.saved = fallback.Toggle()
	return s.saved, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, local ...models.ItemID) (*Model, *favorites.Reconciler, *stubCatalog) {
	t.Helper()
	catalog := &stubCatalog{
		popular: &services.MoviePage{Page: 1, TotalPages: 3, Movies: mocks.Items("1", "2", "3")},
		details: map[models.ItemID]*models.Movie{
			"1": {ID: "1", Title: "Movie 1", Runtime: 90, Cast: []models.CastMember{{Name: "Ana", Character: "Lead"}}},
		},
	}
	rec := favorites.New(mocks.NewMemoryLocal(local...), nil, nil)
	m := NewModel(context.Background(), catalog, rec, &stubThemes{}, models.ThemeLight)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, rec, catalog
}

// run executes cmd and feeds its message back into the model, following batches one level deep.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if inner, ok := c().(Msg); ok {
				m.Update(inner)
			}
		}
		return
	}
	if inner, ok := msg.(Msg); ok {
		m.Update(inner)
	}
}

func loadPopular(t *testing.T, m *Model) {
	t.Helper()
	page, _ := m.catalog.Popular(context.Background(), 1)
	m.Update(moviesFetchedMsg(page, "", nil))
	if got := len(m.browse.Items()); got != 3 {
		t.Fatalf("browse items = %d, want 3", got)
	}
}

func TestBrowseAndToggle(t *testing.T) {
	m, rec, _ := newTestModel(t)
	loadPopular(t, m)

	m.Update(runes("f"))
	if !rec.IsFavorite("1") {
		t.Fatal("f should add the selected movie")
	}
	if !m.browse.Items()[0].(movieItem).favorite {
		t.Error("browse item should show as favorite")
	}
	if !strings.Contains(m.status, "Added Movie 1") {
		t.Errorf("status = %q", m.status)
	}

	m.Update(runes("f"))
	if rec.IsFavorite("1") {
		t.Fatal("second f should remove the movie")
	}
	if !strings.Contains(m.status, "Removed") {
		t.Errorf("status = %q", m.status)
	}
}

func TestFavoritesView(t *testing.T) {
	m, rec, _ := newTestModel(t, "2")
	loadPopular(t, m)

	if !m.browse.Items()[1].(movieItem).favorite {
		t.Error("stored favorite should be marked in browse list")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.CurrentView() != FavoritesView {
		t.Fatalf("view = %d, want FavoritesView", m.CurrentView())
	}
	if len(m.favList.Items()) != 1 {
		t.Fatalf("favorites items = %d, want 1", len(m.favList.Items()))
	}

	m.Update(runes("f"))
	if rec.IsFavorite("2") {
		t.Error("f in favorites view should remove the movie")
	}
	if len(m.favList.Items()) != 0 {
		t.Error("favorites list should be empty")
	}
	if !strings.Contains(m.View(), "No favorites yet") {
		t.Error("empty favorites view should show hint")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.CurrentView() != BrowseView {
		t.Error("tab should return to browse")
	}
}

func TestFavoritesChangedMessage(t *testing.T) {
	m, _, _ := newTestModel(t)
	loadPopular(t, m)

	cmd := func() tea.Msg { return favoritesChangedMsg(mocks.Items("3", "9")) }
	run(m, cmd)

	if len(m.favList.Items()) != 2 {
		t.Errorf("favorites items = %d, want 2", len(m.favList.Items()))
	}
	if !m.browse.Items()[2].(movieItem).favorite {
		t.Error("browse list should reflect changed favorites")
	}
}

func TestDetails(t *testing.T) {
	m, _, _ := newTestModel(t)
	loadPopular(t, m)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	if m.CurrentView() != DetailView {
		t.Fatalf("view = %d, want DetailView", m.CurrentView())
	}
	out := m.View()
	for _, want := range []string{"Movie 1", "90 mins", "Ana as Lead"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail view missing %q", want)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.CurrentView() != BrowseView {
		t.Error("esc should return to the previous view")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)
	if m.CurrentView() != BrowseView || !strings.Contains(m.status, "Failed to load details") {
		t.Errorf("missing details should stay on browse with status, got view %d status %q", m.CurrentView(), m.status)
	}
}

func TestSearch(t *testing.T) {
	m, _, catalog := newTestModel(t)
	loadPopular(t, m)

	m.Update(runes("/"))
	if !m.typing {
		t.Fatal("/ should focus the search input")
	}
	m.Update(runes("alien"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(m, cmd)

	if len(catalog.queries) != 1 || catalog.queries[0] != "alien" {
		t.Errorf("queries = %v", catalog.queries)
	}
	if m.query != "alien" || len(m.browse.Items()) != 1 {
		t.Errorf("query = %q items = %d", m.query, len(m.browse.Items()))
	}
}

func TestPaging(t *testing.T) {
	m, _, _ := newTestModel(t)
	loadPopular(t, m)

	_, cmd := m.Update(runes("n"))
	run(m, cmd)
	if m.page.Page != 2 {
		t.Errorf("page = %d, want 2", m.page.Page)
	}

	_, cmd = m.Update(runes("p"))
	run(m, cmd)
	if m.page.Page != 1 {
		t.Errorf("page = %d, want 1", m.page.Page)
	}

	if _, cmd = m.Update(runes("p")); cmd != nil {
		t.Error("p on first page should do nothing")
	}
}

func TestThemeToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	themes := m.themes.(*stubThemes)

	m.Update(runes("t"))
	if m.theme != models.ThemeDark || themes.saved != models.ThemeDark {
		t.Errorf("theme = %s saved = %s, want dark", m.theme, themes.saved)
	}
	m.Update(runes("t"))
	if m.theme != models.ThemeLight {
		t.Errorf("theme = %s, want light", m.theme)
	}
}

func TestWithoutCatalog(t *testing.T) {
	rec := favorites.New(mocks.NewMemoryLocal("5"), nil, nil)
	m := NewModel(context.Background(), nil, rec, nil, models.ThemeDark)

	if m.CurrentView() != FavoritesView {
		t.Fatalf("view = %d, want FavoritesView", m.CurrentView())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.CurrentView() != FavoritesView {
		t.Error("tab should not switch to browse without a catalog")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.CurrentView() != DetailView {
		t.Error("enter should show the stored summary")
	}
	if !strings.Contains(m.View(), "Movie 5") {
		t.Error("detail view should show stored title")
	}
}

func TestHeader(t *testing.T) {
	m, rec, _ := newTestModel(t, "1", "2")

	if out := m.renderHeader(); !strings.Contains(out, "Guest") || !strings.Contains(out, "2 favorites") {
		t.Errorf("header = %q", out)
	}

	rec.HandleIdentity(models.IdentityState{User: &models.UserIdentity{UID: "u1", Email: "ana@example.com"}})
	if out := m.renderHeader(); !strings.Contains(out, "ana@example.com") || !strings.Contains(out, "local only") {
		t.Errorf("header = %q", out)
	}
}
