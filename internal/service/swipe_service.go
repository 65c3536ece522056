package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/messaging"
	"recommread-server/internal/models"
	"recommread-server/internal/repository"
)

// SwipeService records like/skip decisions on feed stories and emits the
// like events the leaderboard is built from.
type SwipeService interface {
	Swipe(ctx context.Context, userID, storyID uuid.UUID, liked bool) (*models.Swipe, error)
}

var _ SwipeService = (*swipeServiceImpl)(nil)

type swipeServiceImpl struct {
	swipes  repository.SwipeRepository
	stories repository.StoryRepository
	events  messaging.StoryEventPublisher
	logger  *zap.Logger
}

// NewSwipeService creates a SwipeService.
func NewSwipeService(
	swipes repository.SwipeRepository,
	stories repository.StoryRepository,
	events messaging.StoryEventPublisher,
	logger *zap.Logger,
) SwipeService {
	return &swipeServiceImpl{
		swipes:  swipes,
		stories: stories,
		events:  events,
		logger:  logger.Named("SwipeService"),
	}
}

// Swipe upserts the decision. Repeating the same decision is a no-op;
// flipping it emits a like event with the matching delta so counters
// stay consistent.
func (s *swipeServiceImpl) Swipe(ctx context.Context, userID, storyID uuid.UUID, liked bool) (*models.Swipe, error) {
	story, err := s.stories.GetPublished(ctx, storyID)
	if err != nil {
		return nil, err
	}

	prior, err := s.swipes.Get(ctx, userID, storyID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if prior != nil && prior.Liked == liked {
		return prior, nil
	}

	swipe := &models.Swipe{UserID: userID, StoryID: storyID, Liked: liked}
	if err := s.swipes.Upsert(ctx, swipe); err != nil {
		return nil, err
	}

	delta := 0
	if liked {
		delta = 1
	} else if prior != nil && prior.Liked {
		// A like withdrawn by re-swiping as skip.
		delta = -1
	}
	if delta != 0 {
		payload := messaging.StoryLikedPayload{
			StoryID:  storyID,
			AuthorID: story.AuthorID,
			UserID:   userID,
			Delta:    delta,
		}
		if err := s.events.PublishStoryLiked(ctx, payload); err != nil {
			// The swipe is already stored; the counters catch up on the
			// next leaderboard rebuild.
			s.logger.Error("Failed to publish like event",
				zap.String("storyID", storyID.String()), zap.Int("delta", delta), zap.Error(err))
		}
	}

	s.logger.Debug("Swipe recorded",
		zap.String("userID", userID.String()),
		zap.String("storyID", storyID.String()),
		zap.Bool("liked", liked))
	return swipe, nil
}
