package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

// Compile-time check
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a Postgres-backed StoryRepository.
func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

const storyColumns = `id, author_id, title, genre, body, status, char_count, word_count, likes, views, created_at, updated_at, published_at`

// SaveDraft upserts the draft row for the story. Autosave and manual
// save share this path; publish uses Publish.
func (r *pgStoryRepository) SaveDraft(ctx context.Context, story *models.Story) error {
	query := `
        INSERT INTO stories
            (id, author_id, title, genre, body, status, char_count, word_count, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, now(), $9)
        ON CONFLICT (id) DO UPDATE SET
            title = EXCLUDED.title,
            genre = EXCLUDED.genre,
            body = EXCLUDED.body,
            char_count = EXCLUDED.char_count,
            word_count = EXCLUDED.word_count,
            updated_at = EXCLUDED.updated_at
        WHERE stories.author_id = EXCLUDED.author_id AND stories.status = 'draft'
    `
	logFields := []zap.Field{zap.String("storyID", story.ID.String()), zap.String("authorID", story.AuthorID.String())}
	r.logger.Debug("Saving draft", logFields...)

	tag, err := r.db.Exec(ctx, query,
		story.ID, story.AuthorID, story.Title, story.Genre, story.Body,
		models.StoryStatusDraft, story.CharCount, story.WordCount, story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save draft", append(logFields, zap.Error(err))...)
		return fmt.Errorf("saving draft %s: %w", story.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// The row exists but is published or owned by someone else.
		r.logger.Warn("Draft save touched no rows", logFields...)
		return models.ErrAlreadyPublished
	}
	return nil
}

// Publish upserts the story as published and stamps published_at. A row
// already published stays published (publish is idempotent per id).
func (r *pgStoryRepository) Publish(ctx context.Context, story *models.Story) error {
	query := `
        INSERT INTO stories
            (id, author_id, title, genre, body, status, char_count, word_count, created_at, updated_at, published_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, now(), $9, $10)
        ON CONFLICT (id) DO UPDATE SET
            title = EXCLUDED.title,
            genre = EXCLUDED.genre,
            body = EXCLUDED.body,
            status = EXCLUDED.status,
            char_count = EXCLUDED.char_count,
            word_count = EXCLUDED.word_count,
            updated_at = EXCLUDED.updated_at,
            published_at = COALESCE(stories.published_at, EXCLUDED.published_at)
        WHERE stories.author_id = EXCLUDED.author_id
    `
	logFields := []zap.Field{zap.String("storyID", story.ID.String()), zap.String("authorID", story.AuthorID.String())}
	r.logger.Debug("Publishing story", logFields...)

	tag, err := r.db.Exec(ctx, query,
		story.ID, story.AuthorID, story.Title, story.Genre, story.Body,
		models.StoryStatusPublished, story.CharCount, story.WordCount, story.UpdatedAt, story.PublishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to publish story", append(logFields, zap.Error(err))...)
		return fmt.Errorf("publishing story %s: %w", story.ID, err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Publish touched no rows", logFields...)
		return models.ErrNotStoryOwner
	}
	r.logger.Info("Story published", logFields...)
	return nil
}

func (r *pgStoryRepository) GetDraft(ctx context.Context, id uuid.UUID, authorID uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1 AND author_id = $2 AND status = 'draft'`
	logFields := []zap.Field{zap.String("storyID", id.String()), zap.String("authorID", authorID.String())}

	var story models.Story
	if err := pgxscan.Get(ctx, r.db, &story, query, id, authorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("Draft not found", logFields...)
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get draft", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("getting draft %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) GetPublished(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1 AND status = 'published'`

	var story models.Story
	if err := pgxscan.Get(ctx, r.db, &story, query, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get published story", zap.String("storyID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("getting published story %s: %w", id, err)
	}
	return &story, nil
}

func (r *pgStoryRepository) ListDraftsByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Story, error) {
	query := `
        SELECT ` + storyColumns + `
        FROM stories
        WHERE author_id = $1 AND status = 'draft'
        ORDER BY updated_at DESC
    `
	var drafts []models.Story
	if err := pgxscan.Select(ctx, r.db, &drafts, query, authorID); err != nil {
		r.logger.Error("Failed to list drafts", zap.String("authorID", authorID.String()), zap.Error(err))
		return nil, fmt.Errorf("listing drafts for %s: %w", authorID, err)
	}
	return drafts, nil
}

// ListPublished returns a page of the published feed, newest first,
// optionally filtered by a title/genre search term and an exact genre.
// The returned cursor is empty on the last page.
func (r *pgStoryRepository) ListPublished(ctx context.Context, search string, genre models.Genre, limit int, cursor string) ([]models.Story, string, error) {
	afterAt, afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid cursor", models.ErrBadRequest)
	}

	query := `
        SELECT ` + storyColumns + `
        FROM stories
        WHERE status = 'published'
          AND ($1 = '' OR title ILIKE '%' || $1 || '%' OR genre ILIKE '%' || $1 || '%')
          AND ($2 = '' OR genre = $2)
          AND ($3::timestamptz IS NULL OR (published_at, id) < ($3, $4))
        ORDER BY published_at DESC, id DESC
        LIMIT $5
    `
	var stories []models.Story
	// Fetch one extra row to know whether a next page exists.
	if err := pgxscan.Select(ctx, r.db, &stories, query, search, string(genre), afterAt, afterID, limit+1); err != nil {
		r.logger.Error("Failed to list published stories", zap.Error(err))
		return nil, "", fmt.Errorf("listing published stories: %w", err)
	}

	next := ""
	if len(stories) > limit {
		stories = stories[:limit]
		last := stories[len(stories)-1]
		next = encodeCursor(*last.PublishedAt, last.ID)
	}
	return stories, next, nil
}

func (r *pgStoryRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `UPDATE stories SET views = views + 1 WHERE id = $1 AND status = 'published'`, id)
	if err != nil {
		r.logger.Error("Failed to increment views", zap.String("storyID", id.String()), zap.Error(err))
		return fmt.Errorf("incrementing views for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) AdjustLikes(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.db.Exec(ctx, `UPDATE stories SET likes = GREATEST(likes + $2, 0) WHERE id = $1 AND status = 'published'`, id, delta)
	if err != nil {
		r.logger.Error("Failed to adjust likes", zap.String("storyID", id.String()), zap.Int("delta", delta), zap.Error(err))
		return fmt.Errorf("adjusting likes for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *pgStoryRepository) AuthorStats(ctx context.Context, authorID uuid.UUID) (*models.AuthorStats, error) {
	query := `
        SELECT
            COUNT(*) FILTER (WHERE status = 'published') AS stories,
            COUNT(*) FILTER (WHERE status = 'draft') AS drafts,
            COALESCE(SUM(likes) FILTER (WHERE status = 'published'), 0) AS likes,
            COALESCE(SUM(views) FILTER (WHERE status = 'published'), 0) AS views
        FROM stories
        WHERE author_id = $1
    `
	var stats models.AuthorStats
	if err := pgxscan.Get(ctx, r.db, &stats, query, authorID); err != nil {
		r.logger.Error("Failed to compute author stats", zap.String("authorID", authorID.String()), zap.Error(err))
		return nil, fmt.Errorf("computing stats for %s: %w", authorID, err)
	}
	return &stats, nil
}

func (r *pgStoryRepository) TopAuthorsByLikes(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
        SELECT s.author_id, u.username, COALESCE(SUM(s.likes), 0)::int AS likes
        FROM stories s
        JOIN users u ON u.id = s.author_id
        WHERE s.status = 'published'
        GROUP BY s.author_id, u.username
        ORDER BY likes DESC, u.username ASC
        LIMIT $1
    `
	var entries []models.LeaderboardEntry
	if err := pgxscan.Select(ctx, r.db, &entries, query, limit); err != nil {
		r.logger.Error("Failed to query top authors", zap.Error(err))
		return nil, fmt.Errorf("querying top authors: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// encodeCursor packs the (published_at, id) sort key of the last row.
func encodeCursor(at time.Time, id uuid.UUID) string {
	raw := strconv.FormatInt(at.UTC().UnixNano(), 10) + "|" + id.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor reverses encodeCursor; an empty cursor yields nil bounds.
func decodeCursor(cursor string) (*time.Time, *uuid.UUID, error) {
	if cursor == "" {
		return nil, nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, nil, err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, nil, err
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, nil, err
	}
	at := time.Unix(0, nanos).UTC()
	return &at, &id, nil
}
