package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

var _ ContestRepository = (*pgContestRepository)(nil)

type pgContestRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgContestRepository creates a Postgres-backed ContestRepository.
func NewPgContestRepository(db DBTX, logger *zap.Logger) ContestRepository {
	return &pgContestRepository{
		db:     db,
		logger: logger.Named("PgContestRepo"),
	}
}

// List returns every contest, soonest-ending active ones first, then
// past ones by most recently ended.
func (r *pgContestRepository) List(ctx context.Context) ([]models.Contest, error) {
	query := `
        SELECT id, title, description, genre, prize, starts_at, ends_at
        FROM contests
        ORDER BY (ends_at > now()) DESC,
                 CASE WHEN ends_at > now() THEN ends_at END ASC,
                 CASE WHEN ends_at <= now() THEN ends_at END DESC
    `
	var contests []models.Contest
	if err := pgxscan.Select(ctx, r.db, &contests, query); err != nil {
		r.logger.Error("Failed to list contests", zap.Error(err))
		return nil, fmt.Errorf("listing contests: %w", err)
	}
	return contests, nil
}

func (r *pgContestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contest, error) {
	query := `SELECT id, title, description, genre, prize, starts_at, ends_at FROM contests WHERE id = $1`

	var contest models.Contest
	if err := pgxscan.Get(ctx, r.db, &contest, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get contest", zap.String("contestID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("getting contest %s: %w", id, err)
	}
	return &contest, nil
}

func (r *pgContestRepository) CreateEntry(ctx context.Context, entry *models.ContestEntry) error {
	query := `
        INSERT INTO contest_entries (id, contest_id, story_id, user_id, submitted_at)
        VALUES ($1, $2, $3, $4, now())
    `
	_, err := r.db.Exec(ctx, query, entry.ID, entry.ContestID, entry.StoryID, entry.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrAlreadyEntered
		}
		r.logger.Error("Failed to create contest entry",
			zap.String("contestID", entry.ContestID.String()), zap.String("storyID", entry.StoryID.String()), zap.Error(err))
		return fmt.Errorf("creating contest entry: %w", err)
	}
	r.logger.Info("Contest entry created",
		zap.String("contestID", entry.ContestID.String()), zap.String("storyID", entry.StoryID.String()))
	return nil
}

func (r *pgContestRepository) ListEntries(ctx context.Context, contestID uuid.UUID) ([]models.ContestEntry, error) {
	query := `
        SELECT id, contest_id, story_id, user_id, submitted_at
        FROM contest_entries
        WHERE contest_id = $1
        ORDER BY submitted_at ASC
    `
	var entries []models.ContestEntry
	if err := pgxscan.Select(ctx, r.db, &entries, query, contestID); err != nil {
		r.logger.Error("Failed to list contest entries", zap.String("contestID", contestID.String()), zap.Error(err))
		return nil, fmt.Errorf("listing entries for contest %s: %w", contestID, err)
	}
	return entries, nil
}
