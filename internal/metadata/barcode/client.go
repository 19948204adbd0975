// Package barcode is a client for UPC/EAN barcode registries.
package barcode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourflix/catalogd/internal/config"
)

var (
	ErrNotFound    = errors.New("barcode not found")
	ErrAPIError    = errors.New("barcode registry error")
	ErrRateLimited = errors.New("barcode registry rate limited")
)

// Item is a registry entry for a barcode.
type Item struct {
	Title       string   `json:"title"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
}

// lookupResponse is the upcitemdb-style wire format.
type lookupResponse struct {
	Total int    `json:"total"`
	Items []Item `json:"items"`
}

// Client queries a single barcode registry.
type Client struct {
	httpClient *http.Client
	config     config.RegistryConfig
	logger     zerolog.Logger
}

// NewClient creates a client for one registry endpoint.
func NewClient(cfg config.RegistryConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config: cfg,
		logger: logger.With().Str("component", "barcode").Str("registry", cfg.Name).Logger(),
	}
}

// Name returns the registry name.
func (c *Client) Name() string {
	return c.config.Name
}

// IsConfigured returns true when a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.config.BaseURL != ""
}

// Lookup resolves a UPC/EAN code to a registry item. An empty item
// list is ErrNotFound.
func (c *Client) Lookup(ctx context.Context, code string) (*Item, error) {
	params := url.Values{}
	params.Set("upc", code)

	reqURL := fmt.Sprintf("%s/lookup?%s", c.config.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("user_key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("code", code).Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var lookupResp lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookupResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(lookupResp.Items) == 0 {
		return nil, ErrNotFound
	}

	item := lookupResp.Items[0]

	c.logger.Debug().
		Str("code", code).
		Str("title", item.Title).
		Msg("Barcode resolved")

	return &item, nil
}
