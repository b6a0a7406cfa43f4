// submodule cmd contains command definitions
package main

import (
	"path/filepath"

	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file and initialize the local database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default config file to --config",
				Action: r.SetupConfig,
			},
			{
				Name:   "db",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles sign-in state
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign in to sync favorites across devices",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google (opens a browser) or with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Sign in with an email/password account instead of Google",
					},
					&cli.StringFlag{
						Name:    "password",
						Usage:   "Password for --email",
						Sources: cli.EnvVars("REELX_PASSWORD"),
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the sign-in URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out; favorites stay on this device",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in user and sync state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// moviesCommand handles catalog browsing
func moviesCommand(r *Runner) *cli.Command {
	pageFlags := []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Result page (starting at 1)",
			Value: 1,
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}

	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse the movie catalog",
		Commands: []*cli.Command{
			{
				Name:   "popular",
				Usage:  "List popular movies",
				Flags:  pageFlags,
				Action: r.MoviesPopular,
			},
			{
				Name:      "search",
				Usage:     "Search movies by title",
				ArgsUsage: "<query>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     pageFlags,
				Action:    r.MoviesSearch,
			},
			{
				Name:      "show",
				Usage:     "Show details, reviews, and favorite status for a movie",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.MoviesShow,
			},
		},
	}
}

// favoritesCommand handles the synchronized favorites list
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage favorite movies",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List favorites",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.FavoritesList,
			},
			{
				Name:      "toggle",
				Usage:     "Add a movie to favorites, or remove it if already present",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Title to store when the catalog is unavailable",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Do not look the movie up in the catalog",
					},
				},
				Action: r.FavoritesToggle,
			},
			{
				Name:      "check",
				Usage:     "Report whether a movie is a favorite",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.FavoritesCheck,
			},
			{
				Name:  "export",
				Usage: "Export favorites to CSV, Markdown, text, or JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, txt, json)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (directory for markdown with --posters)",
					},
					&cli.BoolFlag{
						Name:  "details",
						Usage: "Fetch runtime, genres, and cast from the catalog first",
					},
					&cli.BoolFlag{
						Name:  "posters",
						Usage: "Download poster images (markdown only)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent catalog requests for --details",
						Value: 4,
					},
				},
				Action: r.FavoritesExport,
			},
			{
				Name:  "sync",
				Usage: "Re-fetch favorites from your account (replaces the local list)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "push",
						Usage: "Upload the local list to your account instead",
					},
				},
				Action: r.FavoritesSync,
			},
		},
	}
}

// reviewsCommand handles per-movie reviews
func reviewsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reviews",
		Usage: "Read and write movie reviews",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List reviews for a movie",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ReviewsList,
			},
			{
				Name:      "add",
				Usage:     "Review a movie",
				ArgsUsage: "<id> <comment>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "comment"},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "rating",
						Aliases:  []string{"r"},
						Usage:    "Rating from 1 to 10",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Name to show with the review (remembered)",
					},
				},
				Action: r.ReviewsAdd,
			},
		},
	}
}

// todosCommand handles the watch checklist
func todosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "todos",
		Usage: "Keep a checklist",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List todos",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "filter",
						Usage: "all, completed, or pending",
						Value: "all",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.TodosList,
			},
			{
				Name:      "add",
				Usage:     "Add a todo",
				ArgsUsage: "<text>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "text"}},
				Action:    r.TodosAdd,
			},
			{
				Name:      "toggle",
				Usage:     "Mark a todo completed or pending",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TodosToggle,
			},
			{
				Name:      "delete",
				Usage:     "Delete a todo",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TodosDelete,
			},
			{
				Name:   "clear",
				Usage:  "Delete all completed todos",
				Action: r.TodosClear,
			},
		},
	}
}

// notesCommand handles free-text notes
func notesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Keep notes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notes",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.NotesList,
			},
			{
				Name:      "add",
				Usage:     "Add a note",
				ArgsUsage: "<text>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "text"}},
				Action:    r.NotesAdd,
			},
			{
				Name:      "delete",
				Usage:     "Delete a note",
				ArgsUsage: "<id>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.NotesDelete,
			},
		},
	}
}

func themeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "Show or change the color theme",
		Commands: []*cli.Command{
			{
				Name:   "toggle",
				Usage:  "Switch between light and dark",
				Action: r.ThemeToggle,
			},
			{
				Name:      "set",
				Usage:     "Set the theme",
				ArgsUsage: "<light|dark>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "theme"}},
				Action:    r.ThemeSet,
			},
		},
		Action: r.ThemeShow,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse movies and favorites interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI is running",
				Value: filepath.Join(shared.DefaultConfigDir(), "reelx-tui.log"),
			},
		},
		Action: r.TUI,
	}
}
