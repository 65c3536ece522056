package authoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

// StoryStore is the slice of the persistence gateway the authoring core
// needs: draft upsert, publish, and draft lookup for pre-population.
type StoryStore interface {
	SaveDraft(ctx context.Context, story *models.Story) error
	Publish(ctx context.Context, story *models.Story) error
	GetDraft(ctx context.Context, id uuid.UUID, authorID uuid.UUID) (*models.Story, error)
}

// Generator produces story prose from a prompt. It mirrors
// generation.Generator; the session only needs this one call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EventSink receives the story-published event after a successful
// publish. Delivery is best-effort; a sink failure never fails the
// publish itself.
type EventSink interface {
	StoryPublished(ctx context.Context, story models.Story) error
}

// Options tune the session's autosave cadence and persistence timeouts.
type Options struct {
	// AutosaveInterval is the wall-clock tick of the autosave loop.
	AutosaveInterval time.Duration
	// AutosaveMinGap is the minimum time since the last successful
	// persist before another autosave may fire.
	AutosaveMinGap time.Duration
	// OpTimeout bounds every save/publish round trip; a hang becomes a
	// SaveFailed/PublishFailed instead of a stuck session.
	OpTimeout time.Duration
	// SurfaceAutosaveFailures moves the session to SaveFailed when an
	// autosave write fails. When false, autosave failures are logged
	// and the draft simply stays dirty.
	SurfaceAutosaveFailures bool
	// Now is the clock; defaults to time.Now. Tests substitute it.
	Now func() time.Time
}

func (o *Options) fillDefaults() {
	if o.AutosaveInterval <= 0 {
		o.AutosaveInterval = 2500 * time.Millisecond
	}
	if o.AutosaveMinGap <= 0 {
		o.AutosaveMinGap = 2 * time.Second
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 15 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Session owns one user's in-progress draft: its fields, autosave
// timing, validation, and the save/publish transitions. All persistence
// operations for the draft are serialized through the session; at most
// one is in flight at any moment.
type Session struct {
	mu         sync.Mutex
	userID     uuid.UUID
	draft      Draft
	epoch      uint64
	opInFlight bool
	generating bool

	stories StoryStore
	gen     Generator
	events  EventSink
	opts    Options
	logger  *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewSession creates a session with an empty idle draft. The autosave
// loop is not started; call Start (the Manager does this).
func NewSession(userID uuid.UUID, stories StoryStore, gen Generator, events EventSink, opts Options, logger *zap.Logger) *Session {
	opts.fillDefaults()
	return &Session{
		userID:  userID,
		draft:   emptyDraft(),
		stories: stories,
		gen:     gen,
		events:  events,
		opts:    opts,
		logger:  logger.Named("AuthoringSession").With(zap.String("userID", userID.String())),
		done:    make(chan struct{}),
	}
}

// Start launches the autosave loop.
func (s *Session) Start() {
	go s.run()
}

// Close stops the autosave loop and invalidates in-flight completions.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.epoch++
		s.mu.Unlock()
	})
}

func (s *Session) run() {
	ticker := time.NewTicker(s.opts.AutosaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Autosave(context.Background())
		}
	}
}

// Snapshot returns a copy of the current draft state.
func (s *Session) Snapshot() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// LoadExisting pre-populates the session from a previously persisted
// draft, e.g. when the user reopens one from the drafts list.
func (s *Session) LoadExisting(story *models.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.draft = Draft{
		StoryID:         story.ID,
		Title:           story.Title,
		Genre:           story.Genre,
		Body:            story.Body,
		Status:          StatusIdle,
		LastPersistedAt: story.UpdatedAt,
	}
	s.draft.recount()
}

// SetTitle records a title edit. Any edit makes the draft dirty.
func (s *Session) SetTitle(title string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Title = title
	s.draft.Status = StatusDirty
	return s.draft
}

// SetGenre records a genre edit.
func (s *Session) SetGenre(genre models.Genre) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Genre = genre
	s.draft.Status = StatusDirty
	return s.draft
}

// SetBody records a body edit and recomputes the derived counts.
func (s *Session) SetBody(body string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Body = body
	s.draft.recount()
	s.draft.Status = StatusDirty
	return s.draft
}

// SaveDraft validates the whole rule set and persists the draft. On a
// validation failure every violated rule is reported and the draft
// stays dirty; nothing is written.
func (s *Session) SaveDraft(ctx context.Context) (Draft, error) {
	s.mu.Lock()
	if s.opInFlight {
		snap := s.draft
		s.mu.Unlock()
		return snap, models.ErrOperationInFlight
	}
	if err := Validate(s.draft); err != nil {
		s.draft.Status = StatusDirty
		snap := s.draft
		s.mu.Unlock()
		return snap, err
	}
	s.ensureStoryID()
	s.draft.Status = StatusSaving
	s.opInFlight = true
	epoch := s.epoch
	story := s.storyFromDraft(models.StoryStatusDraft)
	s.mu.Unlock()

	err := s.persist(ctx, func(opCtx context.Context) error {
		return s.stories.SaveDraft(opCtx, &story)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opInFlight = false
	if epoch != s.epoch {
		s.logger.Debug("Discarding stale save completion", zap.Uint64("epoch", epoch))
		return s.draft, nil
	}
	if err != nil {
		s.draft.Status = StatusSaveFailed
		s.logger.Error("Manual save failed", zap.Error(err))
		return s.draft, fmt.Errorf("saving draft: %w", err)
	}
	// An edit that raced the write keeps the draft dirty so the autosave
	// loop picks up the unpersisted content.
	if s.draft.Body == story.Body && s.draft.Title == story.Title && s.draft.Genre == story.Genre {
		s.draft.Status = StatusSaved
	}
	s.draft.LastPersistedAt = s.opts.Now()
	s.logger.Info("Draft saved", zap.String("storyID", story.ID.String()))
	return s.draft, nil
}

// Publish validates and publishes the draft. On success the in-memory
// draft resets to empty and the session returns to Idle; on failure the
// field values are preserved so the user can retry.
func (s *Session) Publish(ctx context.Context) (uuid.UUID, Draft, error) {
	s.mu.Lock()
	if s.opInFlight {
		snap := s.draft
		s.mu.Unlock()
		return uuid.Nil, snap, models.ErrOperationInFlight
	}
	if err := Validate(s.draft); err != nil {
		s.draft.Status = StatusDirty
		snap := s.draft
		s.mu.Unlock()
		return uuid.Nil, snap, err
	}
	s.ensureStoryID()
	s.draft.Status = StatusPublishing
	s.opInFlight = true
	epoch := s.epoch
	story := s.storyFromDraft(models.StoryStatusPublished)
	s.mu.Unlock()

	err := s.persist(ctx, func(opCtx context.Context) error {
		return s.stories.Publish(opCtx, &story)
	})

	s.mu.Lock()
	s.opInFlight = false
	if epoch != s.epoch {
		s.logger.Debug("Discarding stale publish completion", zap.Uint64("epoch", epoch))
		snap := s.draft
		s.mu.Unlock()
		return uuid.Nil, snap, nil
	}
	if err != nil {
		s.draft.Status = StatusPublishFailed
		snap := s.draft
		s.mu.Unlock()
		s.logger.Error("Publish failed", zap.Error(err))
		return uuid.Nil, snap, fmt.Errorf("publishing story: %w", err)
	}
	s.draft.Status = StatusPublished
	// Terminal transition: reset to an empty idle draft. In-flight
	// completions started before this point are now stale.
	s.epoch++
	s.draft = emptyDraft()
	snap := s.draft
	s.mu.Unlock()

	s.logger.Info("Story published", zap.String("storyID", story.ID.String()))
	if s.events != nil {
		evCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if evErr := s.events.StoryPublished(evCtx, story); evErr != nil {
			s.logger.Warn("Failed to emit story-published event", zap.Error(evErr))
		}
	}
	return story.ID, snap, nil
}

// Autosave persists a dirty draft if the cadence gate allows. It skips
// (without queueing) whenever a save or publish is already in flight,
// the draft is not dirty, or the minimum gap since the last persist has
// not elapsed. Validation is not applied: autosave is best-effort and
// may persist partial work. Returns whether a save was attempted.
func (s *Session) Autosave(ctx context.Context) bool {
	s.mu.Lock()
	if s.opInFlight || s.draft.Status != StatusDirty {
		s.mu.Unlock()
		return false
	}
	if !s.draft.LastPersistedAt.IsZero() && s.opts.Now().Sub(s.draft.LastPersistedAt) < s.opts.AutosaveMinGap {
		s.mu.Unlock()
		return false
	}
	s.ensureStoryID()
	s.opInFlight = true
	epoch := s.epoch
	story := s.storyFromDraft(models.StoryStatusDraft)
	s.mu.Unlock()

	err := s.persist(ctx, func(opCtx context.Context) error {
		return s.stories.SaveDraft(opCtx, &story)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opInFlight = false
	if epoch != s.epoch {
		s.logger.Debug("Discarding stale autosave completion", zap.Uint64("epoch", epoch))
		return true
	}
	if err != nil {
		if s.opts.SurfaceAutosaveFailures {
			s.draft.Status = StatusSaveFailed
			s.logger.Warn("Autosave failed", zap.Error(err))
		} else {
			s.logger.Debug("Autosave failed, draft stays dirty", zap.Error(err))
		}
		return true
	}
	// An edit that raced the write keeps the draft dirty; the next tick
	// will pick it up.
	if s.draft.Status == StatusDirty && s.draft.Body == story.Body && s.draft.Title == story.Title && s.draft.Genre == story.Genre {
		s.draft.Status = StatusSaved
	}
	s.draft.LastPersistedAt = s.opts.Now()
	return true
}

// Generate calls the generation gateway and, on success, replaces the
// draft body with the returned text. While a request is in flight,
// duplicate requests are rejected. On failure the body and status are
// left untouched.
func (s *Session) Generate(ctx context.Context, prompt string) (Draft, error) {
	s.mu.Lock()
	if s.generating {
		snap := s.draft
		s.mu.Unlock()
		return snap, models.ErrGenerationInFlight
	}
	s.generating = true
	epoch := s.epoch
	s.mu.Unlock()

	text, err := s.gen.Generate(ctx, prompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false
	if epoch != s.epoch {
		s.logger.Debug("Discarding stale generation completion", zap.Uint64("epoch", epoch))
		return s.draft, nil
	}
	if err != nil {
		s.logger.Warn("Generation request failed", zap.Error(err))
		return s.draft, err
	}
	s.draft.Body = text
	s.draft.recount()
	s.draft.Status = StatusDirty
	return s.draft, nil
}

// persist runs one persistence round trip under the op timeout.
func (s *Session) persist(ctx context.Context, op func(context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, s.opts.OpTimeout)
	defer cancel()
	return op(opCtx)
}

// ensureStoryID assigns the draft's persistent identity on first use.
// Caller must hold s.mu.
func (s *Session) ensureStoryID() {
	if s.draft.StoryID == uuid.Nil {
		s.draft.StoryID = uuid.New()
	}
}

// storyFromDraft builds the persisted form of the draft. Caller must
// hold s.mu.
func (s *Session) storyFromDraft(status models.StoryStatus) models.Story {
	now := s.opts.Now().UTC()
	story := models.Story{
		ID:        s.draft.StoryID,
		AuthorID:  s.userID,
		Title:     s.draft.Title,
		Genre:     s.draft.Genre,
		Body:      s.draft.Body,
		Status:    status,
		CharCount: s.draft.CharCount,
		WordCount: s.draft.WordCount,
		UpdatedAt: now,
	}
	if status == models.StoryStatusPublished {
		story.PublishedAt = &now
	}
	return story
}
