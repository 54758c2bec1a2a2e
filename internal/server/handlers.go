// Package server provides HTTP handlers and server setup for the audio engine.
package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"wakeaudio/internal/cache"
	"wakeaudio/internal/compose"
	"wakeaudio/internal/core"
)

// Handler holds the HTTP handlers
type Handler struct {
	composer *compose.Composer
	cache    *cache.SegmentCache
}

// NewHandler creates a new handler with the given composer and cache
func NewHandler(composer *compose.Composer, segmentCache *cache.SegmentCache) *Handler {
	return &Handler{
		composer: composer,
		cache:    segmentCache,
	}
}

// composeRequest is the wire form of one composition request.
type composeRequest struct {
	User    core.UserProfile `json:"user"`
	Context wakeContextBody  `json:"context"`
}

// wakeContextBody carries the wake moment with the day as a name, which is
// what the scheduling collaborator sends.
type wakeContextBody struct {
	Day     string              `json:"day"`
	Hour    int                 `json:"hour"`
	Minute  int                 `json:"minute"`
	Weather *core.WeatherReport `json:"weather,omitempty"`
	Habits  []core.Habit        `json:"habits,omitempty"`
}

// composeResponse pairs the composite with its hit/miss breakdown.
type composeResponse struct {
	Composite *core.CompositeAudio `json:"composite"`
	CacheHits int                  `json:"cache_hits"`
	CacheMiss int                  `json:"cache_misses"`
}

// Compose handles POST /v1/compose
func (h *Handler) Compose(c echo.Context) error {
	var req composeRequest
	if err := c.Bind(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error(), err))
	}

	day, err := parseDay(req.Context.Day)
	if err != nil {
		return handleError(c, core.NewInvalidRequestError(err.Error(), err))
	}

	wake := core.WakeContext{
		Day:     day,
		Hour:    req.Context.Hour,
		Minute:  req.Context.Minute,
		Weather: req.Context.Weather,
		Habits:  req.Context.Habits,
	}

	composite, err := h.composer.Compose(c.Request().Context(), req.User, wake)
	if err != nil {
		return handleError(c, err)
	}

	resp := composeResponse{Composite: composite}
	for _, s := range composite.Segments {
		if s.WasCacheHit {
			resp.CacheHits++
		} else {
			resp.CacheMiss++
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// CacheStats handles GET /v1/cache/stats
func (h *Handler) CacheStats(c echo.Context) error {
	stats, err := h.cache.Stats(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// CacheCleanup handles POST /v1/cache/cleanup
func (h *Handler) CacheCleanup(c echo.Context) error {
	removed, err := h.cache.Cleanup(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}

// CacheInvalidate handles DELETE /v1/cache/entries?prefix=...
func (h *Handler) CacheInvalidate(c echo.Context) error {
	prefix := c.QueryParam("prefix")
	if prefix == "" {
		return handleError(c, core.NewInvalidRequestError("prefix query parameter is required", nil))
	}

	removed, err := h.cache.InvalidateByPrefix(c.Request().Context(), prefix)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"removed": removed})
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError maps engine errors to HTTP responses
func handleError(c echo.Context, err error) error {
	var segErr *core.SegmentUnavailableError
	if errors.As(err, &segErr) {
		// The delivery layer retries or falls back to a pre-recorded message;
		// give it the failed segment so it can log the reason.
		return c.JSON(http.StatusBadGateway, map[string]interface{}{
			"error": map[string]interface{}{
				"type":         "segment_unavailable",
				"segment_type": segErr.SegmentType,
				"message":      segErr.Error(),
			},
		})
	}

	var engineErr *core.EngineError
	if errors.As(err, &engineErr) {
		return c.JSON(engineErr.HTTPStatusCode(), engineErr.ToJSON())
	}

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": err.Error(),
		},
	})
}

// parseDay converts a day name into a weekday.
func parseDay(day string) (time.Weekday, error) {
	names := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	if d, ok := names[strings.ToLower(strings.TrimSpace(day))]; ok {
		return d, nil
	}
	return 0, errors.New("unknown day name: " + day)
}
