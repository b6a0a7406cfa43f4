package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

// MoviesPopular lists one page of popular movies.
func (r *Runner) MoviesPopular(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.movies()
	if err != nil {
		return err
	}

	page, err := catalog.Popular(ctx, cmd.Int("page"))
	if err != nil {
		return err
	}
	return r.writeMoviePage(ctx, cmd, "Popular movies", page)
}

// MoviesSearch lists one page of movies matching the query argument.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	catalog, err := r.movies()
	if err != nil {
		return err
	}

	page, err := catalog.Search(ctx, query, cmd.Int("page"))
	if err != nil {
		return err
	}
	return r.writeMoviePage(ctx, cmd, fmt.Sprintf("Results for %q", query), page)
}

func (r *Runner) writeMoviePage(ctx context.Context, cmd *cli.Command, title string, page *services.MoviePage) error {
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader(title)
	if len(page.Movies) == 0 {
		return r.writePlain("No movies found.\n")
	}
	for _, m := range page.Movies {
		mark := " "
		if rec.IsFavorite(m.ID) {
			mark = "★"
		}
		r.writePlain("%s %-8s %s (%s) %s\n", mark, m.ID, m.DisplayTitle(), m.DisplayYear(), m.DisplayRating())
	}
	r.writePlain("\nPage %d of %d", page.Page, page.TotalPages)
	if page.HasNext() {
		r.writePlain(" (--page %d for more)", page.Page+1)
	}
	return r.writePlain("\n")
}

type movieDetails struct {
	*models.Movie
	Favorite      bool            `json:"favorite"`
	AverageRating float64         `json:"average_review_rating,omitempty"`
	Reviews       []models.Review `json:"reviews,omitempty"`
}

// MoviesShow prints one movie with its local reviews and favorite status.
func (r *Runner) MoviesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseItemID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}

	catalog, err := r.movies()
	if err != nil {
		return err
	}
	movie, err := catalog.Details(ctx, id)
	if err != nil {
		return err
	}

	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}

	details := movieDetails{Movie: movie, Favorite: rec.IsFavorite(id)}
	if _, err := r.store(); err == nil {
		details.Reviews = r.reviews.List(id)
		details.AverageRating = models.AverageRating(details.Reviews)
	}

	if cmd.Bool("json") {
		return r.writeJSON(details, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", movie.DisplayTitle(), movie.DisplayYear()))
	if details.Favorite {
		r.writePlain("★ In your favorites\n")
	}
	r.writePlain("Rating: %s\n", movie.DisplayRating())
	r.writePlain("Runtime: %s\n", movie.DisplayRuntime())
	r.writePlain("Genres: %s\n", movie.DisplayGenres())
	r.writePlainln("%s", movie.DisplayOverview())

	if len(movie.Cast) > 0 {
		r.writePlainln("Cast:")
		for i, c := range movie.Cast {
			if i == 10 {
				r.writePlain("  ... and %d more\n", len(movie.Cast)-i)
				break
			}
			if c.Character != "" {
				r.writePlain("  %s as %s\n", c.Name, c.Character)
			} else {
				r.writePlain("  %s\n", c.Name)
			}
		}
	}

	if len(details.Reviews) > 0 {
		r.writePlainln("Reviews (%d, average %.1f/10):", len(details.Reviews), details.AverageRating)
		for _, rv := range details.Reviews {
			r.writePlain("  %d/10 %s: %s\n", rv.Rating, rv.Username, rv.Comment)
		}
	}
	return nil
}
