package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/models"
	"recommread-server/internal/repository"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

// StoryService serves the public reading surface: the swipe feed, story
// detail and the author's draft list.
type StoryService interface {
	Feed(ctx context.Context, search string, genre models.Genre, limit int, cursor string) ([]models.Story, string, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Story, error)
	Drafts(ctx context.Context, authorID uuid.UUID) ([]models.Story, error)
}

var _ StoryService = (*storyServiceImpl)(nil)

type storyServiceImpl struct {
	stories repository.StoryRepository
	logger  *zap.Logger
}

// NewStoryService creates a StoryService.
func NewStoryService(stories repository.StoryRepository, logger *zap.Logger) StoryService {
	return &storyServiceImpl{
		stories: stories,
		logger:  logger.Named("StoryService"),
	}
}

// Feed returns a page of published stories, newest first. A search term
// matches against title and genre; genre narrows to an exact tag.
func (s *storyServiceImpl) Feed(ctx context.Context, search string, genre models.Genre, limit int, cursor string) ([]models.Story, string, error) {
	if genre != "" && !models.ValidGenre(genre) {
		return nil, "", fmt.Errorf("%w: unknown genre %q", models.ErrBadRequest, genre)
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	return s.stories.ListPublished(ctx, search, genre, limit, cursor)
}

// Get returns a published story and counts the read as a view.
func (s *storyServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	story, err := s.stories.GetPublished(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.stories.IncrementViews(ctx, id); err != nil {
		// A missed view bump never blocks the read.
		s.logger.Warn("Failed to count view", zap.String("storyID", id.String()), zap.Error(err))
	} else {
		story.Views++
	}
	return story, nil
}

func (s *storyServiceImpl) Drafts(ctx context.Context, authorID uuid.UUID) ([]models.Story, error) {
	return s.stories.ListDraftsByAuthor(ctx, authorID)
}
