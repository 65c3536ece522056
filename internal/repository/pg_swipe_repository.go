package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

var _ SwipeRepository = (*pgSwipeRepository)(nil)

type pgSwipeRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgSwipeRepository creates a Postgres-backed SwipeRepository.
func NewPgSwipeRepository(db DBTX, logger *zap.Logger) SwipeRepository {
	return &pgSwipeRepository{
		db:     db,
		logger: logger.Named("PgSwipeRepo"),
	}
}

func (r *pgSwipeRepository) Get(ctx context.Context, userID, storyID uuid.UUID) (*models.Swipe, error) {
	query := `SELECT user_id, story_id, liked, created_at FROM swipes WHERE user_id = $1 AND story_id = $2`

	var swipe models.Swipe
	if err := pgxscan.Get(ctx, r.db, &swipe, query, userID, storyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get swipe",
			zap.String("userID", userID.String()), zap.String("storyID", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("getting swipe: %w", err)
	}
	return &swipe, nil
}

// Upsert records the decision, replacing any earlier one for the same
// (user, story) pair.
func (r *pgSwipeRepository) Upsert(ctx context.Context, swipe *models.Swipe) error {
	query := `
        INSERT INTO swipes (user_id, story_id, liked, created_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (user_id, story_id) DO UPDATE SET
            liked = EXCLUDED.liked,
            created_at = now()
    `
	_, err := r.db.Exec(ctx, query, swipe.UserID, swipe.StoryID, swipe.Liked)
	if err != nil {
		r.logger.Error("Failed to upsert swipe",
			zap.String("userID", swipe.UserID.String()), zap.String("storyID", swipe.StoryID.String()), zap.Error(err))
		return fmt.Errorf("upserting swipe: %w", err)
	}
	return nil
}
