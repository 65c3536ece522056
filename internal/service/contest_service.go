package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/models"
	"recommread-server/internal/repository"
)

// ContestService lists contests and accepts entries of published stories.
type ContestService interface {
	List(ctx context.Context) (active []models.Contest, past []models.Contest, err error)
	Enter(ctx context.Context, contestID, storyID, userID uuid.UUID) (*models.ContestEntry, error)
	Entries(ctx context.Context, contestID uuid.UUID) ([]models.ContestEntry, error)
}

var _ ContestService = (*contestServiceImpl)(nil)

type contestServiceImpl struct {
	contests repository.ContestRepository
	stories  repository.StoryRepository
	now      func() time.Time
	logger   *zap.Logger
}

// NewContestService creates a ContestService.
func NewContestService(contests repository.ContestRepository, stories repository.StoryRepository, logger *zap.Logger) ContestService {
	return &contestServiceImpl{
		contests: contests,
		stories:  stories,
		now:      time.Now,
		logger:   logger.Named("ContestService"),
	}
}

// List splits all contests into active and past by their end time.
func (s *contestServiceImpl) List(ctx context.Context) ([]models.Contest, []models.Contest, error) {
	all, err := s.contests.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	active := make([]models.Contest, 0, len(all))
	past := make([]models.Contest, 0)
	for _, c := range all {
		if c.Active(now) {
			active = append(active, c)
		} else {
			past = append(past, c)
		}
	}
	return active, past, nil
}

// Enter submits one of the user's published stories to an active
// contest. A genre-scoped contest only accepts stories of its genre.
func (s *contestServiceImpl) Enter(ctx context.Context, contestID, storyID, userID uuid.UUID) (*models.ContestEntry, error) {
	contest, err := s.contests.GetByID(ctx, contestID)
	if err != nil {
		return nil, err
	}
	if !contest.Active(s.now()) {
		return nil, models.ErrContestEnded
	}

	story, err := s.stories.GetPublished(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.AuthorID != userID {
		return nil, models.ErrNotStoryOwner
	}
	if contest.Genre != "" && story.Genre != contest.Genre {
		return nil, fmt.Errorf("%w: contest accepts %s stories only", models.ErrBadRequest, contest.Genre)
	}

	entry := &models.ContestEntry{
		ID:        uuid.New(),
		ContestID: contestID,
		StoryID:   storyID,
		UserID:    userID,
	}
	if err := s.contests.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("Contest entry accepted",
		zap.String("contestID", contestID.String()),
		zap.String("storyID", storyID.String()),
		zap.String("userID", userID.String()))
	return entry, nil
}

// Entries lists the submissions of one contest, oldest first. An
// unknown contest is a not-found, not an empty list.
func (s *contestServiceImpl) Entries(ctx context.Context, contestID uuid.UUID) ([]models.ContestEntry, error) {
	if _, err := s.contests.GetByID(ctx, contestID); err != nil {
		return nil, err
	}
	return s.contests.ListEntries(ctx, contestID)
}
