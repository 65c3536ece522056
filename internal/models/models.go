package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StoryStatus is the persistence status of a story row. Drafts and
// published stories live in the same table; the status column is the
// only thing that separates them.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"
	StoryStatusPublished StoryStatus = "published"
)

// Genre is one of the fixed set of story tags.
type Genre string

const (
	GenreDrama    Genre = "Drama"
	GenreRomance  Genre = "Romance"
	GenreSciFi    Genre = "Sci-Fi"
	GenreFantasy  Genre = "Fantasy"
	GenreThriller Genre = "Thriller"
	GenreMystery  Genre = "Mystery"
)

// Genres lists every valid genre tag.
var Genres = []Genre{GenreDrama, GenreRomance, GenreSciFi, GenreFantasy, GenreThriller, GenreMystery}

// ValidGenre reports whether g is one of the fixed genre tags.
func ValidGenre(g Genre) bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// Story is the canonical authored entity, draft or published.
type Story struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	AuthorID    uuid.UUID   `json:"author_id" db:"author_id"`
	Title       string      `json:"title" db:"title"`
	Genre       Genre       `json:"genre" db:"genre"`
	Body        string      `json:"body" db:"body"`
	Status      StoryStatus `json:"status" db:"status"`
	CharCount   int         `json:"char_count" db:"char_count"`
	WordCount   int         `json:"word_count" db:"word_count"`
	Likes       int         `json:"likes" db:"likes"`
	Views       int         `json:"views" db:"views"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	PublishedAt *time.Time  `json:"published_at,omitempty" db:"published_at"`
}

// User is a registered account.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Swipe records a single like/skip decision a reader made on a story.
type Swipe struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	StoryID   uuid.UUID `json:"story_id" db:"story_id"`
	Liked     bool      `json:"liked" db:"liked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Contest is a time-bounded writing competition.
type Contest struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Genre       Genre     `json:"genre" db:"genre"`
	Prize       string    `json:"prize" db:"prize"`
	StartsAt    time.Time `json:"starts_at" db:"starts_at"`
	EndsAt      time.Time `json:"ends_at" db:"ends_at"`
}

// Active reports whether the contest is still accepting entries at now.
func (c Contest) Active(now time.Time) bool {
	return now.Before(c.EndsAt)
}

// ContestEntry links a published story to a contest.
type ContestEntry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ContestID   uuid.UUID `json:"contest_id" db:"contest_id"`
	StoryID     uuid.UUID `json:"story_id" db:"story_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	SubmittedAt time.Time `json:"submitted_at" db:"submitted_at"`
}

// RewardStatus is the daily-login reward state for one user.
type RewardStatus struct {
	Streak       int  `json:"streak"`
	Coins        int  `json:"coins"`
	ClaimedToday bool `json:"claimed_today"`
}

// DailyRewardCoins maps the 1-based streak day (capped at 7) to the coin
// amount granted on claim.
var DailyRewardCoins = [7]int{10, 15, 20, 25, 30, 40, 50}

// CoinsForStreakDay returns the coin grant for the given streak day.
func CoinsForStreakDay(day int) int {
	if day < 1 {
		day = 1
	}
	if day > len(DailyRewardCoins) {
		day = len(DailyRewardCoins)
	}
	return DailyRewardCoins[day-1]
}

// LeaderboardEntry is one row of the author leaderboard.
type LeaderboardEntry struct {
	AuthorID uuid.UUID `json:"author_id" db:"author_id"`
	Username string    `json:"username" db:"username"`
	Likes    int       `json:"likes" db:"likes"`
	Rank     int       `json:"rank" db:"-"`
}

// AuthorStats are the per-author analytics totals.
type AuthorStats struct {
	Stories int `json:"stories" db:"stories"`
	Drafts  int `json:"drafts" db:"drafts"`
	Likes   int `json:"likes" db:"likes"`
	Views   int `json:"views" db:"views"`
}

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}
