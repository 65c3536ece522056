package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

const leaderboardKey = "leaderboard:likes"

var _ LeaderboardRepository = (*redisLeaderboardRepository)(nil)

type redisLeaderboardRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLeaderboardRepository creates a Redis-backed LeaderboardRepository
// keeping authors ranked by total likes in a sorted set.
func NewRedisLeaderboardRepository(client *redis.Client, logger *zap.Logger) LeaderboardRepository {
	return &redisLeaderboardRepository{
		client: client,
		logger: logger.Named("RedisLeaderboardRepo"),
	}
}

func (r *redisLeaderboardRepository) IncrementLikes(ctx context.Context, authorID uuid.UUID, delta int) error {
	if err := r.client.ZIncrBy(ctx, leaderboardKey, float64(delta), authorID.String()).Err(); err != nil {
		r.logger.Error("Failed to adjust leaderboard score",
			zap.String("authorID", authorID.String()), zap.Int("delta", delta), zap.Error(err))
		return fmt.Errorf("adjusting leaderboard score: %w", err)
	}
	return nil
}

// EnsureAuthor registers a newly publishing author with a zero score so
// they appear on the board before their first like.
func (r *redisLeaderboardRepository) EnsureAuthor(ctx context.Context, authorID uuid.UUID) error {
	added := redis.Z{Score: 0, Member: authorID.String()}
	if err := r.client.ZAddNX(ctx, leaderboardKey, added).Err(); err != nil {
		r.logger.Error("Failed to register author on leaderboard",
			zap.String("authorID", authorID.String()), zap.Error(err))
		return fmt.Errorf("registering author on leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest-scoring authors. Usernames are left blank for
// the caller to resolve. An empty board yields an empty slice, which the
// caller treats as a signal to rebuild from Postgres.
func (r *redisLeaderboardRepository) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	rows, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		r.logger.Error("Failed to read leaderboard", zap.Error(err))
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		member, ok := row.Member.(string)
		if !ok {
			continue
		}
		authorID, err := uuid.Parse(member)
		if err != nil {
			r.logger.Warn("Skipping malformed leaderboard member", zap.Any("member", row.Member))
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			AuthorID: authorID,
			Likes:    int(row.Score),
			Rank:     i + 1,
		})
	}
	return entries, nil
}

// Rebuild replaces the sorted set with the given entries atomically.
func (r *redisLeaderboardRepository) Rebuild(ctx context.Context, entries []models.LeaderboardEntry) error {
	members := make([]redis.Z, len(entries))
	for i, e := range entries {
		members[i] = redis.Z{Score: float64(e.Likes), Member: e.AuthorID.String()}
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, leaderboardKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to rebuild leaderboard", zap.Int("entries", len(entries)), zap.Error(err))
		return fmt.Errorf("rebuilding leaderboard: %w", err)
	}
	r.logger.Info("Leaderboard rebuilt", zap.Int("entries", len(entries)))
	return nil
}
