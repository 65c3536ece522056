package authoring

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"recommread-server/internal/models"
)

// Status is the authoring lifecycle state of an in-memory draft.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusDirty         Status = "dirty"
	StatusSaving        Status = "saving"
	StatusSaved         Status = "saved"
	StatusPublishing    Status = "publishing"
	StatusPublished     Status = "published"
	StatusSaveFailed    Status = "save_failed"
	StatusPublishFailed Status = "publish_failed"
)

// Draft is the mutable unit of authorship owned by one Session. The
// derived counts are recomputed from Body on every change and never
// mutated independently.
type Draft struct {
	StoryID         uuid.UUID    `json:"story_id,omitempty"`
	Title           string       `json:"title"`
	Genre           models.Genre `json:"genre"`
	Body            string       `json:"body"`
	CharCount       int          `json:"char_count"`
	WordCount       int          `json:"word_count"`
	Status          Status       `json:"status"`
	LastPersistedAt time.Time    `json:"last_persisted_at,omitempty"`
}

// recount refreshes the derived counts from the current body.
func (d *Draft) recount() {
	d.CharCount = utf8.RuneCountInString(d.Body)
	d.WordCount = len(strings.Fields(d.Body))
}

// emptyDraft returns the state a session starts from and returns to
// after a successful publish.
func emptyDraft() Draft {
	return Draft{Status: StatusIdle}
}
