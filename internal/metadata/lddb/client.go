// Package lddb fetches pages from the LaserDisc Database, the catalog
// reference provider. It returns raw HTML; parsing lives in the
// extraction engine so the client stays pure I/O.
package lddb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
)

var (
	ErrNotFound  = errors.New("not found on LDDb")
	ErrSiteError = errors.New("LDDb returned an error")
)

// maxBodySize caps how much HTML is read from a single page.
const maxBodySize = 2 << 20 // 2 MiB

// Client fetches LDDb search and detail pages.
type Client struct {
	httpClient *http.Client
	config     config.LDDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new LDDb client.
func NewClient(cfg config.LDDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "lddb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "lddb"
}

// IsConfigured returns true when a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.config.BaseURL != ""
}

// SearchByCatalog searches LDDb by catalog number. It returns the HTML
// of the result page and the final URL after redirects (a single match
// redirects straight to the title page).
func (c *Client) SearchByCatalog(ctx context.Context, code string) ([]byte, string, error) {
	params := url.Values{}
	params.Set("catno", code)
	return c.fetch(ctx, fmt.Sprintf("%s/search.php?%s", c.config.BaseURL, params.Encode()))
}

// Search searches LDDb by free-text term.
func (c *Client) Search(ctx context.Context, term string) ([]byte, string, error) {
	params := url.Values{}
	params.Set("q", term)
	return c.fetch(ctx, fmt.Sprintf("%s/search.php?%s", c.config.BaseURL, params.Encode()))
}

// FetchPage fetches an arbitrary LDDb page, typically a title page
// discovered through web search.
func (c *Client) FetchPage(ctx context.Context, pageURL string) ([]byte, string, error) {
	return c.fetch(ctx, pageURL)
}

// AbsoluteURL resolves a page-relative reference against the site base.
func (c *Client) AbsoluteURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.config.BaseURL + "/" + strings.TrimPrefix(ref, "/")
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	// LDDb rejects requests without a browser user agent.
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", reqURL).Msg("HTTP request failed")
		return nil, "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	finalURL := reqURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, finalURL, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, finalURL, fmt.Errorf("%w: status %d", ErrSiteError, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, finalURL, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("url", finalURL).
		Int("bytes", len(body)).
		Msg("Fetched LDDb page")

	return body, finalURL, nil
}
