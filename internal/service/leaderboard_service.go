package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/models"
	"recommread-server/internal/repository"
)

const defaultLeaderboardLimit = 20

// LeaderboardService serves the author-by-likes ranking.
type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

var _ LeaderboardService = (*leaderboardServiceImpl)(nil)

type leaderboardServiceImpl struct {
	board   repository.LeaderboardRepository
	stories repository.StoryRepository
	users   repository.UserRepository
	logger  *zap.Logger
}

// NewLeaderboardService creates a LeaderboardService.
func NewLeaderboardService(
	board repository.LeaderboardRepository,
	stories repository.StoryRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) LeaderboardService {
	return &leaderboardServiceImpl{
		board:   board,
		stories: stories,
		users:   users,
		logger:  logger.Named("LeaderboardService"),
	}
}

// Top reads the ranking from Redis, falling back to an aggregate
// Postgres query (and rebuilding the Redis set) when the set is empty,
// e.g. after a cache flush.
func (s *leaderboardServiceImpl) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}

	entries, err := s.board.Top(ctx, limit)
	if err != nil {
		s.logger.Warn("Leaderboard cache unavailable, querying Postgres", zap.Error(err))
		return s.stories.TopAuthorsByLikes(ctx, limit)
	}
	if len(entries) == 0 {
		entries, err = s.stories.TopAuthorsByLikes(ctx, limit)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			if err := s.board.Rebuild(ctx, entries); err != nil {
				s.logger.Warn("Failed to rebuild leaderboard cache", zap.Error(err))
			}
		}
		return entries, nil
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.AuthorID
	}
	names, err := s.users.UsernamesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Username = names[entries[i].AuthorID]
	}
	return entries, nil
}
