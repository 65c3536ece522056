package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/models"
	"recommread-server/internal/repository"
)

// AnalyticsService reports per-author totals for the profile screen.
type AnalyticsService interface {
	AuthorStats(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error)
}

var _ AnalyticsService = (*analyticsServiceImpl)(nil)

type analyticsServiceImpl struct {
	stories repository.StoryRepository
	logger  *zap.Logger
}

// NewAnalyticsService creates an AnalyticsService.
func NewAnalyticsService(stories repository.StoryRepository, logger *zap.Logger) AnalyticsService {
	return &analyticsServiceImpl{
		stories: stories,
		logger:  logger.Named("AnalyticsService"),
	}
}

func (s *analyticsServiceImpl) AuthorStats(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	return s.stories.AuthorStats(ctx, authorID)
}
