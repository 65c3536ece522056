package authoring

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager hands out at most one Session per user. A draft is never
// edited by more than one session, so the per-session guard is the only
// concurrency control the write flow needs.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	stories StoryStore
	gen     Generator
	events  EventSink
	opts    Options
	logger  *zap.Logger
}

// NewManager creates a session manager.
func NewManager(stories StoryStore, gen Generator, events EventSink, opts Options, logger *zap.Logger) *Manager {
	opts.fillDefaults()
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		stories:  stories,
		gen:      gen,
		events:   events,
		opts:     opts,
		logger:   logger.Named("AuthoringManager"),
	}
}

// Open returns the user's session, creating it (and starting its
// autosave loop) on first use. When draftID is non-nil the session is
// pre-populated from that persisted draft.
func (m *Manager) Open(ctx context.Context, userID uuid.UUID, draftID *uuid.UUID) (*Session, error) {
	sess := m.get(userID)

	if draftID != nil {
		story, err := m.stories.GetDraft(ctx, *draftID, userID)
		if err != nil {
			return nil, fmt.Errorf("loading draft %s: %w", draftID, err)
		}
		sess.LoadExisting(story)
	}
	return sess, nil
}

// Get returns the user's session, creating an empty one if needed.
func (m *Manager) Get(userID uuid.UUID) *Session {
	return m.get(userID)
}

func (m *Manager) get(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[userID]; ok {
		return sess
	}
	sess := NewSession(userID, m.stories, m.gen, m.events, m.opts, m.logger)
	sess.Start()
	m.sessions[userID] = sess
	m.logger.Debug("Authoring session created", zap.String("userID", userID.String()))
	return sess
}

// CloseAll stops every session's autosave loop. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, sess := range m.sessions {
		sess.Close()
		delete(m.sessions, id)
	}
}
