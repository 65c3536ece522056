package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recommread-server/internal/middleware"
	"recommread-server/internal/models"
)

func (h *Handler) getLeaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) getAnalytics(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	stats, err := h.analytics.AuthorStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
