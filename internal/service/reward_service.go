package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/models"
	"recommread-server/internal/repository"
)

// RewardService exposes the 7-day daily-login reward ladder.
type RewardService interface {
	Status(ctx context.Context, userID uuid.UUID) (models.RewardStatus, error)
	Claim(ctx context.Context, userID uuid.UUID) (models.RewardStatus, error)
}

var _ RewardService = (*rewardServiceImpl)(nil)

type rewardServiceImpl struct {
	rewards repository.RewardRepository
	now     func() time.Time
	logger  *zap.Logger
}

// NewRewardService creates a RewardService.
func NewRewardService(rewards repository.RewardRepository, logger *zap.Logger) RewardService {
	return &rewardServiceImpl{
		rewards: rewards,
		now:     time.Now,
		logger:  logger.Named("RewardService"),
	}
}

func (s *rewardServiceImpl) Status(ctx context.Context, userID uuid.UUID) (models.RewardStatus, error) {
	return s.rewards.Status(ctx, userID, s.now())
}

func (s *rewardServiceImpl) Claim(ctx context.Context, userID uuid.UUID) (models.RewardStatus, error) {
	status, err := s.rewards.Claim(ctx, userID, s.now())
	if err != nil {
		return status, err
	}
	s.logger.Info("Reward claimed",
		zap.String("userID", userID.String()),
		zap.Int("streak", status.Streak))
	return status, nil
}
