// Package tmdb is a client for the TMDB API, the rich-metadata provider.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrMovieNotFound = errors.New("movie not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// castLimit caps how many cast names are carried into results.
const castLimit = 10

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// SearchMovies searches for movies by query with optional year filter.
// A nil error with zero results means the search succeeded but matched
// nothing; callers must not treat that as a failure.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]NormalizedMovieResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/search/movie", c.config.BaseURL)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("query", query)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedMovieResult, len(response.Results))
	for i, movie := range response.Results {
		results[i] = c.toMovieResult(movie)
	}

	c.logger.Debug().
		Str("query", query).
		Int("year", year).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// GetMovie gets detailed movie info by TMDB ID, including credits.
func (c *Client) GetMovie(ctx context.Context, id int) (*NormalizedMovieResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	endpoint := fmt.Sprintf("%s/movie/%d", c.config.BaseURL, id)
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	params.Set("append_to_response", "credits")

	var details MovieDetails
	if err := c.doRequest(ctx, endpoint, params, &details); err != nil {
		return nil, err
	}

	result := c.movieDetailsToResult(details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return &result, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// Handle error responses
	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrMovieNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// toMovieResult converts a TMDB movie search result to a NormalizedMovieResult.
func (c *Client) toMovieResult(movie MovieResult) NormalizedMovieResult {
	year := 0
	if len(movie.ReleaseDate) >= 4 {
		year, _ = strconv.Atoi(movie.ReleaseDate[:4])
	}

	result := NormalizedMovieResult{
		ID:       movie.ID,
		Title:    movie.Title,
		Year:     year,
		Overview: movie.Overview,
	}

	if movie.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*movie.PosterPath, "w500")
	}

	return result
}

// movieDetailsToResult converts TMDB movie details to a NormalizedMovieResult.
func (c *Client) movieDetailsToResult(details MovieDetails) NormalizedMovieResult {
	year := 0
	if len(details.ReleaseDate) >= 4 {
		year, _ = strconv.Atoi(details.ReleaseDate[:4])
	}

	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	result := NormalizedMovieResult{
		ID:       details.ID,
		Title:    details.Title,
		Year:     year,
		Overview: details.Overview,
		Runtime:  details.Runtime,
		ImdbID:   details.ImdbID,
		Genres:   genres,
	}

	if details.PosterPath != nil {
		result.PosterURL = c.GetImageURL(*details.PosterPath, "w500")
	}

	if len(details.ProductionCountries) > 0 {
		result.Country = details.ProductionCountries[0].Name
	}

	if details.Credits != nil {
		for _, crew := range details.Credits.Crew {
			if crew.Job == "Director" {
				result.Director = crew.Name
				break
			}
		}
		for _, cast := range details.Credits.Cast {
			result.Cast = append(result.Cast, cast.Name)
			if len(result.Cast) >= castLimit {
				break
			}
		}
	}

	return result
}
