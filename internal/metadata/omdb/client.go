// Package omdb is a client for the OMDb API, used as the ratings provider.
package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("OMDb API key is not configured")
	ErrNotFound      = errors.New("not found on OMDb")
	ErrAPIError      = errors.New("OMDb API error")
)

// Client is an OMDb API client.
type Client struct {
	httpClient *http.Client
	config     config.OMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new OMDb client.
func NewClient(cfg config.OMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "omdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "omdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// GetRatings fetches ratings for a title, optionally narrowed by year.
func (c *Client) GetRatings(ctx context.Context, title string, year int) (*NormalizedRatings, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	if title == "" {
		return nil, ErrNotFound
	}

	params := url.Values{}
	params.Set("apikey", c.config.APIKey)
	params.Set("t", title)
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}

	reqURL := fmt.Sprintf("%s?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("title", title).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var omdbResp Response
	if err := json.NewDecoder(resp.Body).Decode(&omdbResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if omdbResp.Response == "False" {
		if strings.Contains(omdbResp.Error, "not found") {
			return nil, ErrNotFound
		}
		c.logger.Warn().Str("error", omdbResp.Error).Str("title", title).Msg("OMDb API returned error")
		return nil, fmt.Errorf("%w: %s", ErrAPIError, omdbResp.Error)
	}

	return c.normalizeRatings(omdbResp), nil
}

// normalizeRatings converts OMDb response to normalized format.
func (c *Client) normalizeRatings(resp Response) *NormalizedRatings {
	result := &NormalizedRatings{}

	// Parse IMDB rating
	if resp.ImdbRating != "" && resp.ImdbRating != "N/A" {
		if rating, err := strconv.ParseFloat(resp.ImdbRating, 64); err == nil {
			result.ImdbRating = rating
		}
	}

	// Parse IMDB votes (format: "1,234,567")
	if resp.ImdbVotes != "" && resp.ImdbVotes != "N/A" {
		votesStr := strings.ReplaceAll(resp.ImdbVotes, ",", "")
		if votes, err := strconv.Atoi(votesStr); err == nil {
			result.ImdbVotes = votes
		}
	}

	// Parse Metacritic score
	if resp.Metascore != "" && resp.Metascore != "N/A" {
		if score, err := strconv.Atoi(resp.Metascore); err == nil {
			result.Metacritic = score
		}
	}

	// Parse ratings from various sources
	for _, rating := range resp.Ratings {
		switch rating.Source {
		case "Rotten Tomatoes":
			// Format: "92%"
			scoreStr := strings.TrimSuffix(rating.Value, "%")
			if score, err := strconv.Atoi(scoreStr); err == nil {
				result.RottenTomatoes = score
			}
		}
	}

	c.logger.Debug().
		Str("title", resp.Title).
		Float64("imdbRating", result.ImdbRating).
		Int("rottenTomatoes", result.RottenTomatoes).
		Msg("Normalized OMDb ratings")

	return result
}
