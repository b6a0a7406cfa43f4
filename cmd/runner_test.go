package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/repositories"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	tu "github.com/desertthunder/reelx/internal/testing"
)

type stubCatalog struct{}

func (stubCatalog) Popular(ctx context.Context, page int) (*services.MoviePage, error) {
	return &services.MoviePage{
		Page:       page,
		TotalPages: 2,
		Movies: []models.Movie{
			{ID: "550", Title: "Fight Club", ReleaseDate: "1999-10-15", Rating: 8.4},
			{ID: "13", Title: "Forrest Gump", ReleaseDate: "1994-06-23", Rating: 8.5},
		},
	}, nil
}

func (stubCatalog) Search(ctx context.Context, query string, page int) (*services.MoviePage, error) {
	return &services.MoviePage{Page: page, TotalPages: 1}, nil
}

func (stubCatalog) Details(ctx context.Context, id models.ItemID) (*models.Movie, error) {
	if id != "550" {
		return nil, shared.ErrMovieNotFound
	}
	return &models.Movie{
		ID:          "550",
		Title:       "Fight Club",
		ReleaseDate: "1999-10-15",
		Rating:      8.4,
		Runtime:     139,
		Genres:      []string{"Drama"},
		Cast:        []models.CastMember{{Name: "Edward Norton", Character: "Narrator"}},
	}, nil
}

func (stubCatalog) Name() string { return "stub" }

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

type testApp struct {
	t      *testing.T
	runner *Runner
	output *bytes.Buffer
}

func newTestApp(t *testing.T, db *sql.DB, remote *tu.MemoryRemote) *testApp {
	t.Helper()
	output := &bytes.Buffer{}
	opts := RunnerOpts{
		Config:  shared.DefaultConfig(),
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
		DB:      db,
		Catalog: stubCatalog{},
	}
	if remote != nil {
		opts.Remote = remote
	}
	runner := NewRunner(opts)
	t.Cleanup(runner.Close)
	return &testApp{t: t, runner: runner, output: output}
}

func (a *testApp) run(args ...string) (string, error) {
	a.t.Helper()
	a.output.Reset()
	err := newApp(a.runner).Run(context.Background(), append([]string{"reelx"}, args...))
	return a.output.String(), err
}

func (a *testApp) mustRun(args ...string) string {
	a.t.Helper()
	out, err := a.run(args...)
	if err != nil {
		a.t.Fatalf("reelx %s: %v", strings.Join(args, " "), err)
	}
	return out
}

type orderCloser struct {
	runner          *Runner
	closed          bool
	afterReconciler bool
}

func (o *orderCloser) Close() error {
	o.closed = true
	o.afterReconciler = o.runner.reconciler == nil
	return nil
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			remote := tu.NewMemoryRemote()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    stubCatalog{},
				Remote:     remote,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if !runner.configLoaded {
				t.Error("expected injected config to skip loading")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.remote != remote {
				t.Error("expected remote to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configLoaded {
				t.Error("default config should still be replaced by --config")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "movies", "favorites", "reviews", "todos", "notes", "theme", "tui"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})

	t.Run("Close releases registered closers after the reconciler", func(t *testing.T) {
		app := newTestApp(t, setupTestDB(t), tu.NewMemoryRemote())
		if _, err := app.runner.favorites(context.Background()); err != nil {
			t.Fatalf("favorites() error = %v", err)
		}

		c := &orderCloser{runner: app.runner}
		app.runner.closeOnExit(c)
		app.runner.Close()

		if !c.closed {
			t.Fatal("expected registered closer to be closed")
		}
		if !c.afterReconciler {
			t.Error("closer ran while the reconciler was still open")
		}
	})

	t.Run("Before loads config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.UI.Theme = "dark"
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{}), DB: setupTestDB(t)})
		t.Cleanup(runner.Close)

		if err := newApp(runner).Run(context.Background(), []string{"reelx", "--config", path, "theme"}); err != nil {
			t.Fatalf("theme failed: %v", err)
		}
		if runner.configPath != path {
			t.Errorf("configPath = %s, want %s", runner.configPath, path)
		}
		if !strings.Contains(output.String(), "Theme: dark") {
			t.Errorf("expected theme from config file, got %q", output.String())
		}
	})
}

func TestFavoritesCommands(t *testing.T) {
	app := newTestApp(t, setupTestDB(t), nil)

	out := app.mustRun("favorites", "list")
	if !strings.Contains(out, "No favorites yet") {
		t.Errorf("empty list output = %q", out)
	}

	out = app.mustRun("favorites", "toggle", "550")
	if !strings.Contains(out, "★ Added Fight Club") {
		t.Errorf("toggle output = %q", out)
	}

	out = app.mustRun("favorites", "toggle", "--offline", "--title", "Forrest Gump", "13")
	if !strings.Contains(out, "★ Added Forrest Gump") {
		t.Errorf("offline toggle output = %q", out)
	}

	out = app.mustRun("favorites", "list", "--json")
	var list models.FavoritesList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if len(list) != 2 || list[0].ID != "550" || list[1].ID != "13" {
		t.Fatalf("favorites = %+v, want [550 13]", list)
	}
	if list[0].Runtime != 0 || len(list[0].Cast) != 0 {
		t.Error("stored favorites should hold the summary only")
	}

	if out = app.mustRun("favorites", "check", "550"); !strings.Contains(out, "is a favorite") {
		t.Errorf("check output = %q", out)
	}
	if out = app.mustRun("favorites", "check", "999"); !strings.Contains(out, "is not a favorite") {
		t.Errorf("check output = %q", out)
	}

	if out = app.mustRun("movies", "popular"); !strings.Contains(out, "★ 550") || !strings.Contains(out, "★ 13") {
		t.Errorf("popular output should mark favorites, got %q", out)
	}

	out = app.mustRun("favorites", "toggle", "13")
	if !strings.Contains(out, "☆ Removed Forrest Gump") {
		t.Errorf("second toggle output = %q", out)
	}

	t.Run("persists across runners", func(t *testing.T) {
		local := repositories.NewFavoritesLocalStore(repositories.NewKVRepository(app.runner.db), nil)
		if ids := local.Load().IDs(); len(ids) != 1 || ids[0] != "550" {
			t.Errorf("stored ids = %v, want [550]", ids)
		}
	})

	t.Run("export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "favorites.json")
		out := app.mustRun("favorites", "export", "--format", "json", "--details", "--output", path)
		if !strings.Contains(out, "Exported 1 favorites") {
			t.Errorf("export output = %q", out)
		}

		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "Edward Norton") {
			t.Errorf("--details export should include cast, got %s", content)
		}

		out = app.mustRun("favorites", "export", "--format", "txt", "--output", "-")
		if !strings.Contains(out, "1. Fight Club (1999)") {
			t.Errorf("stdout export = %q", out)
		}

		if _, err := app.run("favorites", "export", "--format", "csv", "--posters"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("--posters with csv error = %v, want ErrInvalidFlag", err)
		}
	})

	t.Run("sync requires remote", func(t *testing.T) {
		if _, err := app.run("favorites", "sync"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("sync error = %v, want ErrMissingConfig", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		if _, err := app.run("favorites", "toggle"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("toggle error = %v, want ErrMissingArgument", err)
		}
	})
}

func TestSignedInFavorites(t *testing.T) {
	db := setupTestDB(t)

	sessions := repositories.NewSessionRepository(db)
	if err := sessions.Save(&models.Session{
		User:         models.UserIdentity{UID: "u1", Email: "ana@example.com"},
		Provider:     services.ProviderPassword,
		IDToken:      "id-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	local := repositories.NewFavoritesLocalStore(repositories.NewKVRepository(db), nil)
	local.Save(tu.Items("1"))

	remote := tu.NewMemoryRemote()
	remote.Seed("u1", tu.Items("7", "8"))

	app := newTestApp(t, db, remote)

	out := app.mustRun("favorites", "list", "--json")
	var list models.FavoritesList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got := list.IDs(); len(got) != 2 || got[0] != "7" || got[1] != "8" {
		t.Fatalf("favorites = %v, want remote list [7 8]", got)
	}
	if ids := local.Load().IDs(); len(ids) != 2 {
		t.Errorf("local store should mirror remote list, got %v", ids)
	}

	app.mustRun("favorites", "toggle", "--offline", "9")
	doc, ok := remote.Doc("u1")
	if !ok || len(doc) != 3 || doc[2].ID != "9" {
		t.Errorf("remote doc = %+v, want [7 8 9]", doc)
	}

	out = app.mustRun("auth", "status", "--json")
	var status authStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if !status.SignedIn || status.User.UID != "u1" || status.Sync != "synced" || !status.Remote || status.Favorites != 3 {
		t.Errorf("status = %+v", status)
	}

	app.mustRun("favorites", "sync", "--push")
	if saves := remote.Saves(); len(saves) != 2 {
		t.Errorf("saves = %d, want 2", len(saves))
	}

	out = app.mustRun("auth", "logout")
	if !strings.Contains(out, "Signed out ana@example.com") || !strings.Contains(out, "3 favorites kept") {
		t.Errorf("logout output = %q", out)
	}
	if _, err := sessions.Current(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("session should be removed, got %v", err)
	}

	app.mustRun("favorites", "toggle", "--offline", "10")
	if saves := remote.Saves(); len(saves) != 2 {
		t.Errorf("signed-out toggle should not save remotely, saves = %d", len(saves))
	}
	if ids := local.Load().IDs(); len(ids) != 4 {
		t.Errorf("local ids = %v, want 4 items", ids)
	}

	if _, err := app.run("favorites", "sync"); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("sync error = %v, want ErrNotAuthenticated", err)
	}
}

func TestAuthStatusSignedOut(t *testing.T) {
	app := newTestApp(t, setupTestDB(t), nil)

	out := app.mustRun("auth", "status", "--json")
	var status authStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if status.SignedIn || status.Sync != "unauthenticated" || status.Remote {
		t.Errorf("status = %+v", status)
	}

	if out = app.mustRun("auth", "status"); !strings.Contains(out, "Not signed in") || !strings.Contains(out, "local only") {
		t.Errorf("status output = %q", out)
	}

	if out = app.mustRun("auth", "logout"); !strings.Contains(out, "Not signed in") {
		t.Errorf("logout output = %q", out)
	}

	if _, err := app.run("auth", "login"); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("login without api key error = %v, want ErrMissingCredentials", err)
	}
}

func TestJournalCommands(t *testing.T) {
	app := newTestApp(t, setupTestDB(t), nil)

	t.Run("todos", func(t *testing.T) {
		app.mustRun("todos", "add", "watch Alien")
		app.mustRun("todos", "add", "watch Aliens")

		var todos []models.Todo
		if err := json.Unmarshal([]byte(app.mustRun("todos", "list", "--json")), &todos); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(todos) != 2 || todos[0].Text != "watch Aliens" {
			t.Fatalf("todos = %+v", todos)
		}

		out := app.mustRun("todos", "toggle", todos[1].ID)
		if !strings.Contains(out, "watch Alien marked completed") {
			t.Errorf("toggle output = %q", out)
		}

		out = app.mustRun("todos", "list", "--filter", "completed")
		if !strings.Contains(out, "[x]") || strings.Contains(out, "[ ]") {
			t.Errorf("completed filter output = %q", out)
		}

		if out = app.mustRun("todos", "clear"); !strings.Contains(out, "Cleared 1") {
			t.Errorf("clear output = %q", out)
		}

		if _, err := app.run("todos", "list", "--filter", "someday"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("bad filter error = %v, want ErrInvalidFlag", err)
		}
		if _, err := app.run("todos", "delete", "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("notes", func(t *testing.T) {
		out := app.mustRun("notes", "add", "rewatch the director's cut")
		if !strings.Contains(out, "Added note") {
			t.Errorf("add output = %q", out)
		}

		var notes []models.Note
		if err := json.Unmarshal([]byte(app.mustRun("notes", "list", "--json")), &notes); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(notes) != 1 {
			t.Fatalf("notes = %+v", notes)
		}

		app.mustRun("notes", "delete", notes[0].ID)
		if out = app.mustRun("notes", "list"); !strings.Contains(out, "No notes") {
			t.Errorf("list output = %q", out)
		}
	})

	t.Run("reviews", func(t *testing.T) {
		if _, err := app.run("reviews", "add", "--rating", "9", "550", "Great"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("review without username error = %v, want ErrMissingArgument", err)
		}

		app.mustRun("reviews", "add", "--rating", "9", "--username", "ana", "550", "Great")
		app.mustRun("reviews", "add", "--rating", "6", "550", "Long")

		if _, err := app.run("reviews", "add", "--rating", "11", "550", "Too much"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("out of range rating error = %v, want ErrInvalidInput", err)
		}

		out := app.mustRun("reviews", "list", "550")
		if !strings.Contains(out, "average 7.5/10") || !strings.Contains(out, "6/10 ana") {
			t.Errorf("reviews output = %q", out)
		}

		out = app.mustRun("movies", "show", "550")
		for _, want := range []string{"Fight Club (1999)", "139 mins", "Edward Norton as Narrator", "Reviews (2, average 7.5/10)"} {
			if !strings.Contains(out, want) {
				t.Errorf("show output missing %q", want)
			}
		}
	})

	t.Run("theme", func(t *testing.T) {
		if out := app.mustRun("theme"); !strings.Contains(out, "Theme: light") {
			t.Errorf("theme output = %q", out)
		}
		if out := app.mustRun("theme", "toggle"); !strings.Contains(out, "Theme: dark") {
			t.Errorf("toggle output = %q", out)
		}
		if out := app.mustRun("theme", "set", "LIGHT"); !strings.Contains(out, "Theme: light") {
			t.Errorf("set output = %q", out)
		}
		if _, err := app.run("theme", "set", "blue"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("set blue error = %v, want ErrInvalidArgument", err)
		}
	})
}
