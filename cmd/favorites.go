package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/reelx/internal/favorites"
	"github.com/desertthunder/reelx/internal/formatter"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"github.com/desertthunder/reelx/internal/tasks"
	"github.com/urfave/cli/v3"
)

const posterSize = "w342"

// FavoritesList prints the current favorites after any pending login sync.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}
	list := rec.Favorites()

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("No favorites yet. Add one with 'reelx favorites toggle <id>'.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Favorites (%d)", len(list)))
	for i, m := range list {
		r.writePlain("%3d. %-8s %s (%s) %s\n", i+1, m.ID, m.DisplayTitle(), m.DisplayYear(), m.DisplayRating())
	}
	return nil
}

// FavoritesToggle adds the movie if absent and removes it otherwise.
//
// The stored summary comes from the catalog when available and falls back to the id with an optional --title.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseItemID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}

	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}

	movie, ok := rec.Favorites().Find(id)
	if !ok {
		movie = r.lookupSummary(ctx, id, cmd.String("title"), cmd.Bool("offline"))
	}

	added, task := rec.Toggle(movie)
	if added {
		r.writePlain("★ Added %s\n", movie.DisplayTitle())
	} else {
		r.writePlain("☆ Removed %s\n", movie.DisplayTitle())
	}

	if task == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	if err := task.Wait(waitCtx); err != nil {
		r.logger.Warn("remote save failed, change kept on this device", "err", err)
		r.writePlain("⚠ Could not sync to your account; the change is saved locally.\n")
	}
	return nil
}

// lookupSummary fetches the catalog summary for id, falling back to a bare item.
func (r *Runner) lookupSummary(ctx context.Context, id models.ItemID, title string, offline bool) models.Movie {
	fallback := models.Movie{ID: id, Title: strings.TrimSpace(title)}
	if offline {
		return fallback
	}

	catalog, err := r.movies()
	if err != nil {
		r.logger.Debug("catalog unavailable, storing id only", "err", err)
		return fallback
	}

	details, err := catalog.Details(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrMovieNotFound) {
			r.logger.Warn("movie not found in catalog", "id", id)
		} else {
			r.logger.Warn("catalog lookup failed, storing id only", "id", id, "err", err)
		}
		return fallback
	}
	return details.Summary()
}

// FavoritesCheck reports whether a movie is a favorite.
func (r *Runner) FavoritesCheck(ctx context.Context, cmd *cli.Command) error {
	id, err := models.ParseItemID(cmd.StringArg("id"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingArgument, err)
	}

	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}

	if rec.IsFavorite(id) {
		return r.writePlain("★ %s is a favorite\n", id)
	}
	return r.writePlain("☆ %s is not a favorite\n", id)
}

// FavoritesExport writes the favorites list to a file, optionally enriched with catalog details and posters.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	posters := cmd.Bool("posters")
	if posters && format != formatter.FormatMarkdown {
		return fmt.Errorf("%w: --posters requires --format markdown", shared.ErrInvalidFlag)
	}

	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}
	list := rec.Favorites()

	if cmd.Bool("details") && len(list) > 0 {
		if list, err = r.enrich(ctx, list, cmd.Int("workers")); err != nil {
			return err
		}
	}

	output := cmd.String("output")
	if output == "-" {
		data, err := formatter.Export(list, format)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	if posters {
		imageBase := r.config.TMDB.ImageBaseURL
		result, err := formatter.WriteMarkdownExport(ctx, list, output, func(m models.Movie) string {
			return m.PosterURL(imageBase, posterSize)
		})
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn("poster skipped", "detail", w)
		}
		r.writePlain("✓ Exported %d favorites to %s\n", len(list), result.Directory)
		return r.writePlain("  %d posters downloaded, %d skipped\n", result.Posters, len(result.Warnings))
	}

	path, err := formatter.WriteExport(list, format, output)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d favorites to %s\n", len(list), path)
}

// enrich fetches full details for list, reporting progress as it goes. Items that fail keep their stored summary.
func (r *Runner) enrich(ctx context.Context, list models.FavoritesList, workers int) (models.FavoritesList, error) {
	catalog, err := r.movies()
	if err != nil {
		return nil, err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchDetails:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.Completed, tasks.Failed:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	enricher := tasks.NewEnricher(catalog, shared.WithLogger(r.logger, "component", "enrich"))
	result, err := enricher.Enrich(ctx, progressCh, list, tasks.EnrichOpts{
		NumWorkers: workers,
		RateLimit:  r.config.TMDB.RateLimit,
	})
	close(progressCh)
	<-done

	if err != nil {
		return nil, err
	}
	if result.Failed > 0 {
		r.writePlain("⚠ %d of %d movies kept their stored summary\n", result.Failed, result.Total)
	}
	return result.Movies(), nil
}

// FavoritesSync re-fetches the account's list (replacing the local one) or, with --push, uploads the local list.
func (r *Runner) FavoritesSync(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.syncedFavorites(ctx)
	if err != nil {
		return err
	}

	push := cmd.Bool("push")
	var task *favorites.Task
	if push {
		task, err = rec.Push()
	} else {
		task, err = rec.Refresh()
	}
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return fmt.Errorf("%w: run 'reelx auth login' first", err)
	case errors.Is(err, shared.ErrMissingConfig):
		return fmt.Errorf("%w: set firebase.project_id in %s", err, r.configPath)
	case err != nil:
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()
	if err := task.Wait(waitCtx); err != nil {
		if errors.Is(err, shared.ErrDocumentNotFound) {
			return r.writePlain("No favorites stored in your account yet; kept %d local favorites\n", rec.Status().Count)
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	count := rec.Status().Count
	if push {
		return r.writePlain("✓ Uploaded %d favorites\n", count)
	}
	return r.writePlain("✓ Synced %d favorites from your account\n", count)
}
