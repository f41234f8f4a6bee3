package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okutsev/certwatch/app/database"
	"github.com/okutsev/certwatch/app/feed"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func NewHandler(store database.BulletinStore, sources []feed.Source, version string) *Handler {
	return &Handler{
		store:     store,
		sources:   sources,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).String(),
		"feeds":     len(h.sources),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       stats.Total,
		"alerted":     stats.Alerted,
		"by_category": stats.ByCategory,
	})
}

// ListBulletins serves recent bulletins for operational inspection, filtered
// by category, alerted flag, and publish time.
func (h *Handler) ListBulletins(c *gin.Context) {
	var filter database.Filter

	filter.Category = c.Query("category")

	if raw := c.Query("alerted"); raw != "" {
		alerted, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alerted value"})
			return
		}
		filter.Alerted = &alerted
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp, expected RFC3339"})
			return
		}
		filter.Since = &since
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(parsed, maxListLimit)
	}

	bulletins, err := h.store.GetRecent(c.Request.Context(), filter, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_bulletins", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]bulletinResponse, 0, len(bulletins))
	for _, b := range bulletins {
		response = append(response, bulletinResponse{
			Reference:       b.Reference,
			Category:        b.Category,
			Title:           b.Title,
			Link:            b.Link,
			Published:       b.Published,
			Summary:         b.Summary,
			MatchedProducts: b.MatchedProducts,
			Alerted:         b.Alerted,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(response),
		"bulletins": response,
	})
}
