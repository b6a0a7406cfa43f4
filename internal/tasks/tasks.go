package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/services"
	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 8
	defaultRateLimit = 8.0
)

// EnrichOpts contains configuration for [Enricher.Enrich].
type EnrichOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 8)
	RateLimit  float64 // Catalog requests per second (default: 8)
}

// ItemResult is the outcome for one favorite.
type ItemResult struct {
	ID    models.ItemID
	Movie models.Movie // Full record, or the stored summary when Error is set
	Error error
}

// EnrichResult summarizes an enrichment run.
type EnrichResult struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []ItemResult // In the same order as the input list
}

// Movies returns the enriched list in input order.
func (r *EnrichResult) Movies() models.FavoritesList {
	list := make(models.FavoritesList, len(r.Results))
	for i, res := range r.Results {
		list[i] = res.Movie
	}
	return list
}

// Enricher fills in detail fields for favorites from a catalog.
type Enricher struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewEnricher creates a new [Enricher]. A nil logger discards output.
func NewEnricher(catalog services.Catalog, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Enricher{catalog: catalog, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Enricher) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type enrichJob struct {
	index int
	movie models.Movie
}

// Enrich fetches details for every movie in list with a rate-limited worker pool.
//
// Per-item failures are recorded in the result; the returned error is only set when the catalog is missing or
// ctx ends before every item was processed.
func (e *Enricher) Enrich(ctx context.Context, progress chan<- ProgressUpdate, list models.FavoritesList, opts EnrichOpts) (*EnrichResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	total := len(list)
	result := &EnrichResult{Total: total, Results: make([]ItemResult, total)}
	for i, m := range list {
		result.Results[i] = ItemResult{ID: m.ID, Movie: m}
	}
	if total == 0 {
		return result, nil
	}

	e.sendProgress(progress, fetchingDetailsUpdate(total))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan enrichJob, total)
	results := make(chan struct {
		index int
		res   ItemResult
	}, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res := e.enrichOne(ctx, limiter, job.movie)
				results <- struct {
					index int
					res   ItemResult
				}{job.index, res}
			}
		}()
	}

	for i, m := range list {
		jobs <- enrichJob{index: i, movie: m}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		result.Results[r.index] = r.res
		if r.res.Error != nil {
			result.Failed++
			e.logger.Warn("failed to fetch details", "id", r.res.ID, "err", r.res.Error)
			e.sendProgress(progress, detailsFailedUpdate(done, total, r.res.Movie, r.res.Error))
			continue
		}
		result.Succeeded++
		movie := r.res.Movie
		e.sendProgress(progress, detailsCompletedUpdate(done, total, &movie))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// enrichOne fetches one movie's details, keeping the summary's values where the catalog omits them.
func (e *Enricher) enrichOne(ctx context.Context, limiter *rate.Limiter, m models.Movie) ItemResult {
	res := ItemResult{ID: m.ID, Movie: m}

	if err := limiter.Wait(ctx); err != nil {
		res.Error = err
		return res
	}

	full, err := e.catalog.Details(ctx, m.ID)
	if err != nil {
		res.Error = err
		return res
	}

	merged := *full
	merged.ID = m.ID
	if merged.Title == "" {
		merged.Title = m.Title
	}
	if merged.PosterPath == "" {
		merged.PosterPath = m.PosterPath
	}
	if merged.ReleaseDate == "" && merged.Year == "" {
		merged.ReleaseDate, merged.Year = m.ReleaseDate, m.Year
	}
	if merged.Overview == "" {
		merged.Overview = m.Overview
	}
	if merged.Rating == 0 {
		merged.Rating = m.Rating
	}
	res.Movie = merged
	return res
}
