package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recommread-server/internal/models"
)

func newContestServiceAt(contests *MockContestRepository, stories *MockStoryRepository, now time.Time) *contestServiceImpl {
	svc := NewContestService(contests, stories, zap.NewNop()).(*contestServiceImpl)
	svc.now = func() time.Time { return now }
	return svc
}

func TestContestListSplitsActiveAndPast(t *testing.T) {
	contests := new(MockContestRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, new(MockStoryRepository), now)

	open := models.Contest{ID: uuid.New(), Title: "Summer Sprint", EndsAt: now.Add(48 * time.Hour)}
	closed := models.Contest{ID: uuid.New(), Title: "Spring Tales", EndsAt: now.Add(-time.Hour)}
	contests.On("List", mock.Anything).Return([]models.Contest{open, closed}, nil).Once()

	active, past, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []models.Contest{open}, active)
	assert.Equal(t, []models.Contest{closed}, past)
}

func TestContestEnterAcceptsOwnPublishedStory(t *testing.T) {
	contests := new(MockContestRepository)
	stories := new(MockStoryRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, stories, now)

	contestID := uuid.New()
	storyID := uuid.New()
	userID := uuid.New()

	contests.On("GetByID", mock.Anything, contestID).
		Return(&models.Contest{ID: contestID, Genre: models.GenreSciFi, EndsAt: now.Add(time.Hour)}, nil).Once()
	stories.On("GetPublished", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, AuthorID: userID, Genre: models.GenreSciFi}, nil).Once()
	contests.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *models.ContestEntry) bool {
		return e.ContestID == contestID && e.StoryID == storyID && e.UserID == userID
	})).Return(nil).Once()

	entry, err := svc.Enter(context.Background(), contestID, storyID, userID)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	contests.AssertExpectations(t)
}

func TestContestEnterRejectsEndedContest(t *testing.T) {
	contests := new(MockContestRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, new(MockStoryRepository), now)

	contestID := uuid.New()
	contests.On("GetByID", mock.Anything, contestID).
		Return(&models.Contest{ID: contestID, EndsAt: now.Add(-time.Minute)}, nil).Once()

	_, err := svc.Enter(context.Background(), contestID, uuid.New(), uuid.New())

	assert.ErrorIs(t, err, models.ErrContestEnded)
	contests.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
}

func TestContestEnterRejectsForeignStory(t *testing.T) {
	contests := new(MockContestRepository)
	stories := new(MockStoryRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, stories, now)

	contestID := uuid.New()
	storyID := uuid.New()

	contests.On("GetByID", mock.Anything, contestID).
		Return(&models.Contest{ID: contestID, EndsAt: now.Add(time.Hour)}, nil).Once()
	stories.On("GetPublished", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, AuthorID: uuid.New()}, nil).Once()

	_, err := svc.Enter(context.Background(), contestID, storyID, uuid.New())

	assert.ErrorIs(t, err, models.ErrNotStoryOwner)
}

func TestContestEntriesListsSubmissions(t *testing.T) {
	contests := new(MockContestRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, new(MockStoryRepository), now)

	contestID := uuid.New()
	submissions := []models.ContestEntry{
		{ID: uuid.New(), ContestID: contestID, StoryID: uuid.New(), UserID: uuid.New()},
		{ID: uuid.New(), ContestID: contestID, StoryID: uuid.New(), UserID: uuid.New()},
	}
	contests.On("GetByID", mock.Anything, contestID).
		Return(&models.Contest{ID: contestID, EndsAt: now.Add(time.Hour)}, nil).Once()
	contests.On("ListEntries", mock.Anything, contestID).Return(submissions, nil).Once()

	entries, err := svc.Entries(context.Background(), contestID)

	require.NoError(t, err)
	assert.Equal(t, submissions, entries)
	contests.AssertExpectations(t)
}

func TestContestEntriesUnknownContest(t *testing.T) {
	contests := new(MockContestRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, new(MockStoryRepository), now)

	contestID := uuid.New()
	contests.On("GetByID", mock.Anything, contestID).Return(nil, models.ErrNotFound).Once()

	_, err := svc.Entries(context.Background(), contestID)

	assert.ErrorIs(t, err, models.ErrNotFound)
	contests.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything)
}

func TestContestEnterRejectsGenreMismatch(t *testing.T) {
	contests := new(MockContestRepository)
	stories := new(MockStoryRepository)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newContestServiceAt(contests, stories, now)

	contestID := uuid.New()
	storyID := uuid.New()
	userID := uuid.New()

	contests.On("GetByID", mock.Anything, contestID).
		Return(&models.Contest{ID: contestID, Genre: models.GenreRomance, EndsAt: now.Add(time.Hour)}, nil).Once()
	stories.On("GetPublished", mock.Anything, storyID).
		Return(&models.Story{ID: storyID, AuthorID: userID, Genre: models.GenreThriller}, nil).Once()

	_, err := svc.Enter(context.Background(), contestID, storyID, userID)

	assert.ErrorIs(t, err, models.ErrBadRequest)
}
