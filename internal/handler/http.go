package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recommread-server/internal/auth"
	"recommread-server/internal/authoring"
	"recommread-server/internal/middleware"
	"recommread-server/internal/models"
	"recommread-server/internal/service"
)

// Handler wires the HTTP surface to the services.
type Handler struct {
	authSvc     auth.Service
	verifier    *auth.Verifier
	sessions    *authoring.Manager
	stories     service.StoryService
	swipes      service.SwipeService
	contests    service.ContestService
	rewards     service.RewardService
	leaderboard service.LeaderboardService
	analytics   service.AnalyticsService
	logger      *zap.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	authSvc auth.Service,
	verifier *auth.Verifier,
	sessions *authoring.Manager,
	stories service.StoryService,
	swipes service.SwipeService,
	contests service.ContestService,
	rewards service.RewardService,
	leaderboard service.LeaderboardService,
	analytics service.AnalyticsService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		authSvc:     authSvc,
		verifier:    verifier,
		sessions:    sessions,
		stories:     stories,
		swipes:      swipes,
		contests:    contests,
		rewards:     rewards,
		leaderboard: leaderboard,
		analytics:   analytics,
		logger:      logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes mounts every route on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.POST("/auth/signup", h.signup)
	api.POST("/auth/login", h.login)

	authed := api.Group("")
	authed.Use(middleware.Auth(h.verifier, h.logger))
	{
		authed.GET("/auth/me", h.me)

		authed.GET("/stories", h.feed)
		authed.GET("/stories/:id", h.getStory)
		authed.POST("/stories/:id/swipe", h.swipeStory)

		authed.POST("/write/open", h.openDraft)
		authed.GET("/write/draft", h.getDraft)
		authed.PATCH("/write/draft", h.patchDraft)
		authed.POST("/write/save", h.saveDraft)
		authed.POST("/write/publish", h.publishDraft)
		authed.POST("/write/generate", h.generateDraft)

		authed.GET("/drafts", h.listDrafts)

		authed.GET("/contests", h.listContests)
		authed.GET("/contests/:id/entries", h.listContestEntries)
		authed.POST("/contests/:id/entries", h.enterContest)

		authed.GET("/rewards/status", h.rewardStatus)
		authed.POST("/rewards/claim", h.claimReward)

		authed.GET("/leaderboard", h.getLeaderboard)
		authed.GET("/analytics", h.getAnalytics)
	}
}

// handleServiceError maps service errors to HTTP responses. Validation
// errors carry their full violation list.
func (h *Handler) handleServiceError(c *gin.Context, err error) {
	var valErr *authoring.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "validation failed",
			"violations": valErr.Violations,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrEmptyPrompt):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrNotAuthenticated),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenMalformed):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrNotStoryOwner):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUserAlreadyExists),
		errors.Is(err, models.ErrEmailAlreadyExists),
		errors.Is(err, models.ErrAlreadyEntered),
		errors.Is(err, models.ErrRewardAlreadyClaimed),
		errors.Is(err, models.ErrAlreadyPublished),
		errors.Is(err, models.ErrOperationInFlight),
		errors.Is(err, models.ErrGenerationInFlight):
		status = http.StatusConflict
	case errors.Is(err, models.ErrContestEnded):
		status = http.StatusGone
	case errors.Is(err, models.ErrGenerationFailed),
		errors.Is(err, models.ErrEmptyCompletion):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error",
			zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
