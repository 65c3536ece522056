package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

const (
	rewardClaimKeyFmt  = "reward:claim:%s:%s" // userID, yyyy-mm-dd
	rewardLastKeyFmt   = "reward:last:%s"     // userID -> yyyy-mm-dd of last claim
	rewardStreakKeyFmt = "reward:streak:%s"   // userID -> current streak day
	rewardCoinsKeyFmt  = "reward:coins:%s"    // userID -> total coins

	// A claim marker only needs to survive until the day after, with slack
	// for clock skew.
	rewardClaimTTL = 48 * time.Hour
)

var _ RewardRepository = (*redisRewardRepository)(nil)

type redisRewardRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRewardRepository creates a Redis-backed RewardRepository.
func NewRedisRewardRepository(client *redis.Client, logger *zap.Logger) RewardRepository {
	return &redisRewardRepository{
		client: client,
		logger: logger.Named("RedisRewardRepo"),
	}
}

// Claim grants today's daily-login reward exactly once per UTC day. The
// streak advances when the previous claim was yesterday and resets to 1
// otherwise; coins follow the 7-day ladder capped at day 7.
func (r *redisRewardRepository) Claim(ctx context.Context, userID uuid.UUID, now time.Time) (models.RewardStatus, error) {
	today := now.UTC().Format("2006-01-02")
	claimKey := fmt.Sprintf(rewardClaimKeyFmt, userID, today)

	ok, err := r.client.SetNX(ctx, claimKey, "1", rewardClaimTTL).Result()
	if err != nil {
		r.logger.Error("Failed to mark reward claim", zap.String("userID", userID.String()), zap.Error(err))
		return models.RewardStatus{}, fmt.Errorf("marking reward claim: %w", err)
	}
	if !ok {
		status, err := r.Status(ctx, userID, now)
		if err != nil {
			return models.RewardStatus{}, err
		}
		return status, models.ErrRewardAlreadyClaimed
	}

	yesterday := now.UTC().AddDate(0, 0, -1).Format("2006-01-02")
	lastKey := fmt.Sprintf(rewardLastKeyFmt, userID)
	streakKey := fmt.Sprintf(rewardStreakKeyFmt, userID)

	last, err := r.client.Get(ctx, lastKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.RewardStatus{}, fmt.Errorf("reading last claim day: %w", err)
	}

	var streak int64
	if last == yesterday {
		streak, err = r.client.Incr(ctx, streakKey).Result()
	} else {
		streak = 1
		err = r.client.Set(ctx, streakKey, 1, 0).Err()
	}
	if err != nil {
		return models.RewardStatus{}, fmt.Errorf("advancing streak: %w", err)
	}

	coins := models.CoinsForStreakDay(int(streak))
	if err := r.client.Set(ctx, lastKey, today, 0).Err(); err != nil {
		return models.RewardStatus{}, fmt.Errorf("recording claim day: %w", err)
	}
	total, err := r.client.IncrBy(ctx, fmt.Sprintf(rewardCoinsKeyFmt, userID), int64(coins)).Result()
	if err != nil {
		return models.RewardStatus{}, fmt.Errorf("crediting coins: %w", err)
	}

	r.logger.Info("Daily reward claimed",
		zap.String("userID", userID.String()),
		zap.Int64("streak", streak),
		zap.Int("coins", coins))

	return models.RewardStatus{
		Streak:       int(streak),
		Coins:        int(total),
		ClaimedToday: true,
	}, nil
}

// Status reports the current streak, coin balance and whether today's
// reward has been claimed, without mutating anything.
func (r *redisRewardRepository) Status(ctx context.Context, userID uuid.UUID, now time.Time) (models.RewardStatus, error) {
	today := now.UTC().Format("2006-01-02")
	yesterday := now.UTC().AddDate(0, 0, -1).Format("2006-01-02")

	claimed, err := r.client.Exists(ctx, fmt.Sprintf(rewardClaimKeyFmt, userID, today)).Result()
	if err != nil {
		r.logger.Error("Failed to read reward status", zap.String("userID", userID.String()), zap.Error(err))
		return models.RewardStatus{}, fmt.Errorf("reading claim marker: %w", err)
	}

	last, err := r.client.Get(ctx, fmt.Sprintf(rewardLastKeyFmt, userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.RewardStatus{}, fmt.Errorf("reading last claim day: %w", err)
	}

	streak := 0
	// A streak is only alive if the last claim was today or yesterday.
	if last == today || last == yesterday {
		raw, err := r.client.Get(ctx, fmt.Sprintf(rewardStreakKeyFmt, userID)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return models.RewardStatus{}, fmt.Errorf("reading streak: %w", err)
		}
		if raw != "" {
			streak, _ = strconv.Atoi(raw)
		}
	}

	coins := 0
	raw, err := r.client.Get(ctx, fmt.Sprintf(rewardCoinsKeyFmt, userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.RewardStatus{}, fmt.Errorf("reading coin balance: %w", err)
	}
	if raw != "" {
		coins, _ = strconv.Atoi(raw)
	}

	return models.RewardStatus{
		Streak:       streak,
		Coins:        coins,
		ClaimedToday: claimed > 0,
	}, nil
}
