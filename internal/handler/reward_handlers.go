package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recommread-server/internal/middleware"
	"recommread-server/internal/models"
)

func (h *Handler) rewardStatus(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	status, err := h.rewards.Status(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) claimReward(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	status, err := h.rewards.Claim(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
