package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types carried on the story events queue.
const (
	EventStoryPublished = "story_published"
	EventStoryLiked     = "story_liked"
)

// Envelope wraps every queued event with its type tag.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StoryPublishedPayload announces a story entering the public feed.
type StoryPublishedPayload struct {
	StoryID     uuid.UUID `json:"story_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Title       string    `json:"title"`
	Genre       string    `json:"genre"`
	PublishedAt time.Time `json:"published_at"`
}

// StoryLikedPayload records a like being added (delta +1) or withdrawn
// (delta -1) on a published story.
type StoryLikedPayload struct {
	StoryID  uuid.UUID `json:"story_id"`
	AuthorID uuid.UUID `json:"author_id"`
	UserID   uuid.UUID `json:"user_id"`
	Delta    int       `json:"delta"`
}
