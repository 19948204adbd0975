package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yourflix/catalogd/internal/resolve"
)

type lookupRequest struct {
	Identifier     string `json:"identifier"`
	Hint           string `json:"hint,omitempty"`
	AllowSynthetic bool   `json:"allowSynthetic,omitempty"`
}

type batchRequest struct {
	Items []lookupRequest `json:"items"`
}

// lookup resolves a single identifier synchronously.
func (s *Server) lookup(c echo.Context) error {
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Identifier) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "identifier is required"})
	}

	resolved, err := s.resolver.Resolve(c.Request().Context(), req.Identifier, resolve.Options{
		Hint:           req.Hint,
		AllowSynthetic: req.AllowSynthetic,
	})
	switch {
	case errors.Is(err, resolve.ErrNotFound):
		// No upstream match is an expected outcome, not a fault; the
		// caller surfaces it as "add details manually".
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":     "not_found",
			"identifier": req.Identifier,
		})
	case errors.Is(err, context.Canceled):
		return c.NoContent(http.StatusRequestTimeout)
	case err != nil:
		s.logger.Error().Err(err).Str("identifier", req.Identifier).Msg("Lookup failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "lookup failed"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"metadata": resolved,
	})
}

// lookupBatch queues identifiers for deferred resolution by the
// backfill driver.
func (s *Server) lookupBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "items are required"})
	}

	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if strings.TrimSpace(item.Identifier) == "" {
			continue
		}
		id, err := s.queue.Enqueue(c.Request().Context(), item.Identifier, item.Hint)
		if err != nil {
			s.logger.Error().Err(err).Str("identifier", item.Identifier).Msg("Failed to enqueue lookup")
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to queue lookups"})
		}
		ids = append(ids, id)
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"queued": len(ids),
		"ids":    ids,
	})
}

// queueStatus reports queue item counts per status.
func (s *Server) queueStatus(c echo.Context) error {
	counts, err := s.queue.QueueCounts(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to count queue items")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read queue"})
	}
	return c.JSON(http.StatusOK, counts)
}

// healthCheck reports service health and provider configuration.
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "catalogd",
		"providers": s.resolver.ProviderStatus(),
	})
}
