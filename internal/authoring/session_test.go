package authoring

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

type MockStoryStore struct {
	mock.Mock
}

func (m *MockStoryStore) SaveDraft(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *MockStoryStore) Publish(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *MockStoryStore) GetDraft(ctx context.Context, id uuid.UUID, authorID uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id, authorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) StoryPublished(ctx context.Context, story models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

// testClock is a settable clock for exercising the autosave gate.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func validBody() string {
	return strings.Repeat("The train rolled on. ", 15) // 315 chars
}

func newTestSession(t *testing.T, store *MockStoryStore, gen *MockGenerator, sink *MockEventSink, clock *testClock) *Session {
	t.Helper()
	opts := Options{
		AutosaveMinGap: 2 * time.Second,
		OpTimeout:      time.Second,
		Now:            clock.Now,
	}
	return NewSession(uuid.New(), store, gen, sink, opts, zap.NewNop())
}

func TestSetBodyRecomputesCounts(t *testing.T) {
	sess := newTestSession(t, new(MockStoryStore), new(MockGenerator), new(MockEventSink), newTestClock())

	draft := sess.SetBody("one two  three")

	assert.Equal(t, 14, draft.CharCount)
	assert.Equal(t, 3, draft.WordCount)
	assert.Equal(t, StatusDirty, draft.Status)
}

func TestSetBodyCountsRunesNotBytes(t *testing.T) {
	sess := newTestSession(t, new(MockStoryStore), new(MockGenerator), new(MockEventSink), newTestClock())

	draft := sess.SetBody("héllo wörld")

	assert.Equal(t, 11, draft.CharCount)
	assert.Equal(t, 2, draft.WordCount)
}

func TestSaveDraftSuccess(t *testing.T) {
	store := new(MockStoryStore)
	clock := newTestClock()
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), clock)

	sess.SetTitle("Midnight Train")
	sess.SetGenre(models.GenreSciFi)
	sess.SetBody(validBody())

	store.On("SaveDraft", mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
		return s.Title == "Midnight Train" &&
			s.Genre == models.GenreSciFi &&
			s.Status == models.StoryStatusDraft &&
			s.ID != uuid.Nil
	})).Return(nil).Once()

	draft, err := sess.SaveDraft(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusSaved, draft.Status)
	assert.Equal(t, clock.Now(), draft.LastPersistedAt)
	assert.NotEqual(t, uuid.Nil, draft.StoryID)
	store.AssertExpectations(t)
}

func TestSaveDraftReportsEveryViolation(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())

	sess.SetTitle("   ")
	sess.SetGenre("Horror")
	sess.SetBody("too short")

	draft, err := sess.SaveDraft(context.Background())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Violations, 3)
	assert.Equal(t, StatusDirty, draft.Status)
	store.AssertNotCalled(t, "SaveDraft", mock.Anything, mock.Anything)
}

func TestSaveDraftBodyBoundary(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetTitle("Boundary")
	sess.SetGenre(models.GenreDrama)

	sess.SetBody(strings.Repeat("a", 299))
	_, err := sess.SaveDraft(context.Background())
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	store.On("SaveDraft", mock.Anything, mock.Anything).Return(nil).Once()
	sess.SetBody(strings.Repeat("a", 300))
	draft, err := sess.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSaved, draft.Status)
	store.AssertExpectations(t)
}

func TestSaveDraftTitleTooLong(t *testing.T) {
	sess := newTestSession(t, new(MockStoryStore), new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetTitle(strings.Repeat("x", 81))
	sess.SetGenre(models.GenreMystery)
	sess.SetBody(validBody())

	_, err := sess.SaveDraft(context.Background())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Violations, 1)
	assert.Contains(t, valErr.Violations[0], "80")
}

func TestSaveDraftStoreFailure(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetTitle("Midnight Train")
	sess.SetGenre(models.GenreSciFi)
	sess.SetBody(validBody())

	store.On("SaveDraft", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()

	draft, err := sess.SaveDraft(context.Background())

	require.Error(t, err)
	assert.Equal(t, StatusSaveFailed, draft.Status)
	// Field values survive the failure.
	assert.Equal(t, "Midnight Train", draft.Title)
	store.AssertExpectations(t)
}

func TestSaveDraftKeepsStoryIDAcrossSaves(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetTitle("Persistent")
	sess.SetGenre(models.GenreFantasy)
	sess.SetBody(validBody())

	store.On("SaveDraft", mock.Anything, mock.Anything).Return(nil).Twice()

	first, err := sess.SaveDraft(context.Background())
	require.NoError(t, err)

	sess.SetBody(validBody() + " More.")
	second, err := sess.SaveDraft(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.StoryID, second.StoryID)
	store.AssertExpectations(t)
}

func TestSaveDraftKeepsDirtyWhenEditRacesWrite(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetTitle("Midnight Train")
	sess.SetGenre(models.GenreSciFi)
	sess.SetBody(validBody())

	edited := strings.Repeat("b", 300)
	store.On("SaveDraft", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Edit lands while the manual save is in flight.
		sess.SetBody(edited)
	}).Return(nil).Once()

	draft, err := sess.SaveDraft(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusDirty, draft.Status)
	assert.Equal(t, edited, draft.Body)
	assert.Equal(t, StatusDirty, sess.Snapshot().Status)
	store.AssertExpectations(t)
}

func TestPublishSuccessResetsDraft(t *testing.T) {
	store := new(MockStoryStore)
	sink := new(MockEventSink)
	sess := newTestSession(t, store, new(MockGenerator), sink, newTestClock())
	sess.SetTitle("Midnight Train")
	sess.SetGenre(models.GenreSciFi)
	sess.SetBody(validBody())

	store.On("Publish", mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
		return s.Status == models.StoryStatusPublished && s.PublishedAt != nil
	})).Return(nil).Once()
	sink.On("StoryPublished", mock.Anything, mock.Anything).Return(nil).Once()

	storyID, draft, err := sess.Publish(context.Background())

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, storyID)
	assert.Equal(t, StatusIdle, draft.Status)
	assert.Empty(t, draft.Title)
	assert.Empty(t, draft.Body)
	assert.Zero(t, draft.CharCount)
	store.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestPublishFailurePreservesFields(t *testing.T) {
	store := new(MockStoryStore)
	sink := new(MockEventSink)
	sess := newTestSession(t, store, new(MockGenerator), sink, newTestClock())
	sess.SetTitle("Midnight Train")
	sess.SetGenre(models.GenreSciFi)
	body := validBody()
	sess.SetBody(body)

	store.On("Publish", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()

	_, draft, err := sess.Publish(context.Background())

	require.Error(t, err)
	assert.Equal(t, StatusPublishFailed, draft.Status)
	assert.Equal(t, "Midnight Train", draft.Title)
	assert.Equal(t, body, draft.Body)
	sink.AssertNotCalled(t, "StoryPublished", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestPublishValidatesBeforeWriting(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetBody("way too short")

	_, _, err := sess.Publish(context.Background())

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	store.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestAutosaveSkipsCleanDraft(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())

	attempted := sess.Autosave(context.Background())

	assert.False(t, attempted)
	store.AssertNotCalled(t, "SaveDraft", mock.Anything, mock.Anything)
}

func TestAutosaveSkipsWithinMinGap(t *testing.T) {
	store := new(MockStoryStore)
	clock := newTestClock()
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), clock)
	sess.SetTitle("Gap Test")
	sess.SetGenre(models.GenreDrama)
	sess.SetBody(validBody())

	store.On("SaveDraft", mock.Anything, mock.Anything).Return(nil).Once()
	_, err := sess.SaveDraft(context.Background())
	require.NoError(t, err)

	sess.SetBody(validBody() + " Edited.")

	// 1.5s after the persist: inside the 2s gap.
	clock.Advance(1500 * time.Millisecond)
	assert.False(t, sess.Autosave(context.Background()))

	// 2.5s after: gate opens.
	store.On("SaveDraft", mock.Anything, mock.Anything).Return(nil).Once()
	clock.Advance(time.Second)
	assert.True(t, sess.Autosave(context.Background()))
	store.AssertExpectations(t)
}

func TestAutosaveSkipsValidation(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	// Invalid for a manual save: no title, no genre, short body.
	sess.SetBody("partial work")

	store.On("SaveDraft", mock.Anything, mock.MatchedBy(func(s *models.Story) bool {
		return s.Body == "partial work" && s.Status == models.StoryStatusDraft
	})).Return(nil).Once()

	attempted := sess.Autosave(context.Background())

	assert.True(t, attempted)
	assert.Equal(t, StatusSaved, sess.Snapshot().Status)
	store.AssertExpectations(t)
}

func TestAutosaveFailureStaysDirtyByDefault(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetBody("partial work")

	store.On("SaveDraft", mock.Anything, mock.Anything).Return(errors.New("write failed")).Once()

	attempted := sess.Autosave(context.Background())

	assert.True(t, attempted)
	assert.Equal(t, StatusDirty, sess.Snapshot().Status)
	store.AssertExpectations(t)
}

func TestAutosaveFailureSurfacesWhenConfigured(t *testing.T) {
	store := new(MockStoryStore)
	clock := newTestClock()
	opts := Options{
		AutosaveMinGap:          2 * time.Second,
		OpTimeout:               time.Second,
		SurfaceAutosaveFailures: true,
		Now:                     clock.Now,
	}
	sess := NewSession(uuid.New(), store, new(MockGenerator), new(MockEventSink), opts, zap.NewNop())
	sess.SetBody("partial work")

	store.On("SaveDraft", mock.Anything, mock.Anything).Return(errors.New("write failed")).Once()

	sess.Autosave(context.Background())

	assert.Equal(t, StatusSaveFailed, sess.Snapshot().Status)
	store.AssertExpectations(t)
}

func TestAutosaveKeepsDirtyWhenEditRacesWrite(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetBody("first version")

	store.On("SaveDraft", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Edit lands while the write is in flight.
		sess.SetBody("second version")
	}).Return(nil).Once()

	sess.Autosave(context.Background())

	snap := sess.Snapshot()
	assert.Equal(t, StatusDirty, snap.Status)
	assert.Equal(t, "second version", snap.Body)
	store.AssertExpectations(t)
}

func TestGenerateReplacesBody(t *testing.T) {
	gen := new(MockGenerator)
	sess := newTestSession(t, new(MockStoryStore), gen, new(MockEventSink), newTestClock())
	sess.SetBody("old body")

	gen.On("Generate", mock.Anything, "a lighthouse keeper").Return("A fresh story.", nil).Once()

	draft, err := sess.Generate(context.Background(), "a lighthouse keeper")

	require.NoError(t, err)
	assert.Equal(t, "A fresh story.", draft.Body)
	assert.Equal(t, 14, draft.CharCount)
	assert.Equal(t, StatusDirty, draft.Status)
	gen.AssertExpectations(t)
}

func TestGenerateFailureLeavesBodyUntouched(t *testing.T) {
	gen := new(MockGenerator)
	sess := newTestSession(t, new(MockStoryStore), gen, new(MockEventSink), newTestClock())
	sess.SetBody("my careful words")

	gen.On("Generate", mock.Anything, "anything").Return("", models.ErrGenerationFailed).Once()

	draft, err := sess.Generate(context.Background(), "anything")

	require.ErrorIs(t, err, models.ErrGenerationFailed)
	assert.Equal(t, "my careful words", draft.Body)
	gen.AssertExpectations(t)
}

func TestGenerateRejectsConcurrentRequests(t *testing.T) {
	gen := new(MockGenerator)
	sess := newTestSession(t, new(MockStoryStore), gen, new(MockEventSink), newTestClock())

	started := make(chan struct{})
	release := make(chan struct{})
	gen.On("Generate", mock.Anything, "slow").Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return("done", nil).Once()

	go sess.Generate(context.Background(), "slow")
	<-started

	_, err := sess.Generate(context.Background(), "second")
	assert.ErrorIs(t, err, models.ErrGenerationInFlight)
	close(release)
}

func TestSaveDraftRejectsConcurrentOps(t *testing.T) {
	store := new(MockStoryStore)
	sess := newTestSession(t, store, new(MockGenerator), new(MockEventSink), newTestClock())
	sess.SetTitle("Busy")
	sess.SetGenre(models.GenreThriller)
	sess.SetBody(validBody())

	started := make(chan struct{})
	release := make(chan struct{})
	store.On("SaveDraft", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(nil).Once()

	go sess.SaveDraft(context.Background())
	<-started

	_, err := sess.SaveDraft(context.Background())
	assert.ErrorIs(t, err, models.ErrOperationInFlight)

	_, _, err = sess.Publish(context.Background())
	assert.ErrorIs(t, err, models.ErrOperationInFlight)
	close(release)
}

func TestLoadExistingPopulatesDraft(t *testing.T) {
	sess := newTestSession(t, new(MockStoryStore), new(MockGenerator), new(MockEventSink), newTestClock())

	storyID := uuid.New()
	updated := time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC)
	sess.LoadExisting(&models.Story{
		ID:        storyID,
		Title:     "Resumed",
		Genre:     models.GenreRomance,
		Body:      "some saved text",
		UpdatedAt: updated,
	})

	snap := sess.Snapshot()
	assert.Equal(t, storyID, snap.StoryID)
	assert.Equal(t, "Resumed", snap.Title)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, 15, snap.CharCount)
	assert.Equal(t, updated, snap.LastPersistedAt)
}
