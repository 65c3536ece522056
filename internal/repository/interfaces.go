package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"recommread-server/internal/models"
)

// DBTX abstracts a pgx pool, connection, or transaction so repositories
// work inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoryRepository is the persistence gateway for the canonical story
// entity (draft and published rows share one table).
type StoryRepository interface {
	SaveDraft(ctx context.Context, story *models.Story) error
	Publish(ctx context.Context, story *models.Story) error
	GetDraft(ctx context.Context, id uuid.UUID, authorID uuid.UUID) (*models.Story, error)
	GetPublished(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListDraftsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Story, error)
	ListPublished(ctx context.Context, search string, genre models.Genre, limit int, cursor string) ([]models.Story, string, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
	AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error
	AuthorStats(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error)
	TopAuthorsByLikes(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// UserRepository stores registered accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UsernamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// SwipeRepository stores like/skip decisions.
type SwipeRepository interface {
	Get(ctx context.Context, userID, storyID uuid.UUID) (*models.Swipe, error)
	Upsert(ctx context.Context, swipe *models.Swipe) error
}

// ContestRepository stores contests and their entries.
type ContestRepository interface {
	List(ctx context.Context) ([]models.Contest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contest, error)
	CreateEntry(ctx context.Context, entry *models.ContestEntry) error
	ListEntries(ctx context.Context, contestID uuid.UUID) ([]models.ContestEntry, error)
}

// RewardRepository tracks daily-login reward claims, streaks and coins.
type RewardRepository interface {
	Claim(ctx context.Context, userID uuid.UUID, now time.Time) (models.RewardStatus, error)
	Status(ctx context.Context, userID uuid.UUID, now time.Time) (models.RewardStatus, error)
}

// LeaderboardRepository maintains the ranked author-by-likes ordering.
type LeaderboardRepository interface {
	IncrementLikes(ctx context.Context, authorID uuid.UUID, delta int) error
	EnsureAuthor(ctx context.Context, authorID uuid.UUID) error
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Rebuild(ctx context.Context, entries []models.LeaderboardEntry) error
}
