package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recommread-server/internal/middleware"
	"recommread-server/internal/models"
)

type contestEntryRequest struct {
	StoryID string `json:"story_id" binding:"required"`
}

func (h *Handler) listContests(c *gin.Context) {
	active, past, err := h.contests.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "past": past})
}

func (h *Handler) listContestEntries(c *gin.Context) {
	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contest id"})
		return
	}

	entries, err := h.contests.Entries(c.Request.Context(), contestID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []models.ContestEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) enterContest(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	contestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contest id"})
		return
	}

	var req contestEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	storyID, err := uuid.Parse(req.StoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story id"})
		return
	}

	entry, err := h.contests.Enter(c.Request.Context(), contestID, storyID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
