// TMDB API implementation of [Catalog]
//
// TMDB response types based on https://developer.themoviedb.org/reference
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/reelx/internal/models"
	"github.com/desertthunder/reelx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	maxCastMembers   = 12
)

type tmdbGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbCredits struct {
	Cast []models.CastMember `json:"cast"`
}

// tmdbMovie is the wire shape shared by list results and the detail endpoint.
type tmdbMovie struct {
	ID          models.ItemID `json:"id"`
	Title       string        `json:"title"`
	ReleaseDate string        `json:"release_date"`
	VoteAverage float64       `json:"vote_average"`
	PosterPath  string        `json:"poster_path"`
	Overview    string        `json:"overview"`
	Runtime     int           `json:"runtime"`
	Genres      []tmdbGenre   `json:"genres"`
	Credits     *tmdbCredits  `json:"credits"`
}

func (m tmdbMovie) toMovie() models.Movie {
	movie := models.Movie{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: m.ReleaseDate,
		Rating:      m.VoteAverage,
		PosterPath:  m.PosterPath,
		Overview:    m.Overview,
		Runtime:     m.Runtime,
	}
	for _, g := range m.Genres {
		movie.Genres = append(movie.Genres, g.Name)
	}
	if m.Credits != nil {
		cast := m.Credits.Cast
		if len(cast) > maxCastMembers {
			cast = cast[:maxCastMembers]
		}
		movie.Cast = cast
	}
	return movie
}

type tmdbPage struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []tmdbMovie `json:"results"`
}

type tmdbError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// TMDBService implements [Catalog] for The Movie Database.
type TMDBService struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewTMDBService creates a TMDB client from config. A nil client uses a client with the configured timeout.
func NewTMDBService(cfg shared.TMDBConfig, client *http.Client) (*TMDBService, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" || apiKey == "your_tmdb_api_key" {
		return nil, fmt.Errorf("%w: tmdb api_key", shared.ErrMissingCredentials)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = tmdbBaseURL
	}
	imageBaseURL := strings.TrimRight(cfg.ImageBaseURL, "/")
	if imageBaseURL == "" {
		imageBaseURL = tmdbImageBaseURL
	}

	if client == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &TMDBService{
		apiKey:       apiKey,
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		httpClient:   client,
		limiter:      rate.NewLimiter(limit, 1),
	}, nil
}

func (s *TMDBService) Name() string {
	return "TMDB"
}

// ImageURL builds the full image URL for a poster or profile path. Empty paths yield "".
func (s *TMDBService) ImageURL(path, size string) string {
	return models.Movie{PosterPath: path}.PosterURL(s.imageBaseURL, size)
}

// ImageBaseURL returns the configured image host prefix.
func (s *TMDBService) ImageBaseURL() string {
	return s.imageBaseURL
}

// doRequest waits on the rate limiter, performs a GET against the API, and decodes the JSON body into result.
func (s *TMDBService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr tmdbError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: tmdb: %s", shared.ErrInvalidCredentials, apiErr.StatusMessage)
		case http.StatusNotFound:
			return fmt.Errorf("%w: tmdb %s", shared.ErrMovieNotFound, endpoint)
		default:
			return fmt.Errorf("%w: tmdb status %d: %s", shared.ErrAPIRequest, resp.StatusCode, apiErr.StatusMessage)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *TMDBService) page(ctx context.Context, endpoint string, params url.Values) (*MoviePage, error) {
	var raw tmdbPage
	if err := s.doRequest(ctx, endpoint, params, &raw); err != nil {
		return nil, err
	}

	page := &MoviePage{
		Page:         raw.Page,
		TotalPages:   raw.TotalPages,
		TotalResults: raw.TotalResults,
		Movies:       make([]models.Movie, 0, len(raw.Results)),
	}
	for _, m := range raw.Results {
		page.Movies = append(page.Movies, m.toMovie())
	}
	return page, nil
}

// Popular retrieves one page of popular movies.
func (s *TMDBService) Popular(ctx context.Context, page int) (*MoviePage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(page, 1)))
	return s.page(ctx, "/movie/popular", params)
}

// Search retrieves one page of movies matching query. A blank query is rejected.
func (s *TMDBService) Search(ctx context.Context, query string, page int) (*MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(max(page, 1)))
	params.Set("include_adult", "false")
	return s.page(ctx, "/search/movie", params)
}

// Details retrieves one movie with its credits. Cast is trimmed to the first 12 members.
func (s *TMDBService) Details(ctx context.Context, id models.ItemID) (*models.Movie, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("%w: movie id is empty", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("append_to_response", "credits")

	var raw tmdbMovie
	if err := s.doRequest(ctx, "/movie/"+url.PathEscape(id.String()), params, &raw); err != nil {
		return nil, err
	}

	movie := raw.toMovie()
	return &movie, nil
}
