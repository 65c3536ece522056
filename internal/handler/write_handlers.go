package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recommread-server/internal/middleware"
	"recommread-server/internal/models"
)

type openDraftRequest struct {
	DraftID *string `json:"draft_id"`
}

type patchDraftRequest struct {
	Title *string `json:"title"`
	Genre *string `json:"genre"`
	Body  *string `json:"body"`
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type publishResponse struct {
	StoryID string `json:"story_id"`
	Draft   any    `json:"draft"`
}

// openDraft binds the caller's authoring session to a fresh draft or,
// when draft_id is given, to a persisted one from the drafts list.
func (h *Handler) openDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	var req openDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var draftID *uuid.UUID
	if req.DraftID != nil && *req.DraftID != "" {
		id, err := uuid.Parse(*req.DraftID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
			return
		}
		draftID = &id
	}

	sess, err := h.sessions.Open(c.Request.Context(), userID, draftID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) getDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}
	c.JSON(http.StatusOK, h.sessions.Get(userID).Snapshot())
}

// patchDraft applies field edits to the in-memory draft. Only the
// fields present in the body are touched.
func (h *Handler) patchDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	var req patchDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess := h.sessions.Get(userID)
	if req.Title != nil {
		sess.SetTitle(*req.Title)
	}
	if req.Genre != nil {
		sess.SetGenre(models.Genre(*req.Genre))
	}
	if req.Body != nil {
		sess.SetBody(*req.Body)
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) saveDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	draft, err := h.sessions.Get(userID).SaveDraft(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *Handler) publishDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	storyID, draft, err := h.sessions.Get(userID).Publish(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse{StoryID: storyID.String(), Draft: draft})
}

func (h *Handler) generateDraft(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	draft, err := h.sessions.Get(userID).Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *Handler) listDrafts(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.handleServiceError(c, models.ErrNotAuthenticated)
		return
	}

	drafts, err := h.stories.Drafts(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}
