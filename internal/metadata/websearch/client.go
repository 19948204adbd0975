// Package websearch fetches web search result pages. It returns raw
// HTML; result-link extraction lives in the extraction engine.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
)

var (
	ErrBlocked     = errors.New("search engine blocked the request")
	ErrSearchError = errors.New("search engine error")
)

const maxBodySize = 2 << 20 // 2 MiB

// Client performs scoped web searches.
type Client struct {
	httpClient *http.Client
	config     config.WebSearchConfig
	logger     zerolog.Logger
}

// NewClient creates a new web search client.
func NewClient(cfg config.WebSearchConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "websearch").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "websearch"
}

// IsConfigured returns true when a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.config.BaseURL != ""
}

// Search runs a query and returns the raw HTML of the result page.
func (c *Client) Search(ctx context.Context, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("q", query)

	reqURL := fmt.Sprintf("%s/search?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Search engines serve a degraded page without a browser UA.
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("query", query).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		return nil, ErrBlocked
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrSearchError, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("query", query).
		Int("bytes", len(body)).
		Msg("Search completed")

	return body, nil
}
