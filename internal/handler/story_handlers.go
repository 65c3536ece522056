package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recommread-server/internal/middleware"
	"recommread-server/internal/models"
)

type swipeRequest struct {
	Liked bool `json:"liked"`
}

type feedResponse struct {
	Stories    []models.Story `json:"stories"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// feed serves the published story feed with optional search, genre
// filter and cursor pagination.
func (h *Handler) feed(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	stories, next, err := h.stories.Feed(
		c.Request.Context(),
		c.Query("search"),
		models.Genre(c.Query("genre")),
		limit,
		c.Query("cursor"),
	)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if stories == nil {
		stories = []models.Story{}
	}
	c.JSON(http.StatusOK, feedResponse{Stories: stories, NextCursor: next})
}

func (h *Handler) getStory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	story, err := h.stories.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

func (h *Handler) swipeStory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	storyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	var req swipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	swipe, err := h.swipes.Swipe(c.Request.Context(), userID, storyID, req.Liked)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, swipe)
}
