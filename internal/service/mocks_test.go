package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"recommread-server/internal/messaging"
	"recommread-server/internal/models"
)

type MockStoryRepository struct {
	mock.Mock
}

func (m *MockStoryRepository) SaveDraft(ctx context.Context, story *models.Story) error {
	return m.Called(ctx, story).Error(0)
}

func (m *MockStoryRepository) Publish(ctx context.Context, story *models.Story) error {
	return m.Called(ctx, story).Error(0)
}

func (m *MockStoryRepository) GetDraft(ctx context.Context, id uuid.UUID, authorID uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *MockStoryRepository) GetPublished(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

func (m *MockStoryRepository) ListDraftsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Story, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Story), args.Error(1)
}

func (m *MockStoryRepository) ListPublished(ctx context.Context, search string, genre models.Genre, limit int, cursor string) ([]models.Story, string, error) {
	args := m.Called(ctx, search, genre, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]models.Story), args.String(1), args.Error(2)
}

func (m *MockStoryRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStoryRepository) AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockStoryRepository) AuthorStats(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	args := m.Called(ctx, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthorStats), args.Error(1)
}

func (m *MockStoryRepository) TopAuthorsByLikes(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

type MockSwipeRepository struct {
	mock.Mock
}

func (m *MockSwipeRepository) Get(ctx context.Context, userID, storyID uuid.UUID) (*models.Swipe, error) {
	args := m.Called(ctx, userID, storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Swipe), args.Error(1)
}

func (m *MockSwipeRepository) Upsert(ctx context.Context, swipe *models.Swipe) error {
	return m.Called(ctx, swipe).Error(0)
}

type MockContestRepository struct {
	mock.Mock
}

func (m *MockContestRepository) List(ctx context.Context) ([]models.Contest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contest), args.Error(1)
}

func (m *MockContestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contest), args.Error(1)
}

func (m *MockContestRepository) CreateEntry(ctx context.Context, entry *models.ContestEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockContestRepository) ListEntries(ctx context.Context, contestID uuid.UUID) ([]models.ContestEntry, error) {
	args := m.Called(ctx, contestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContestEntry), args.Error(1)
}

type MockRewardRepository struct {
	mock.Mock
}

func (m *MockRewardRepository) Claim(ctx context.Context, userID uuid.UUID, now time.Time) (models.RewardStatus, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(models.RewardStatus), args.Error(1)
}

func (m *MockRewardRepository) Status(ctx context.Context, userID uuid.UUID, now time.Time) (models.RewardStatus, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(models.RewardStatus), args.Error(1)
}

type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) IncrementLikes(ctx context.Context, authorID uuid.UUID, delta int) error {
	return m.Called(ctx, authorID, delta).Error(0)
}

func (m *MockLeaderboardRepository) EnsureAuthor(ctx context.Context, authorID uuid.UUID) error {
	return m.Called(ctx, authorID).Error(0)
}

func (m *MockLeaderboardRepository) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func (m *MockLeaderboardRepository) Rebuild(ctx context.Context, entries []models.LeaderboardEntry) error {
	return m.Called(ctx, entries).Error(0)
}

type MockStoryEventPublisher struct {
	mock.Mock
}

func (m *MockStoryEventPublisher) PublishStoryPublished(ctx context.Context, payload messaging.StoryPublishedPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockStoryEventPublisher) PublishStoryLiked(ctx context.Context, payload messaging.StoryLikedPayload) error {
	return m.Called(ctx, payload).Error(0)
}
