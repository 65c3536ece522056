package service

import (
	"context"
	"time"

	"recommread-server/internal/authoring"
	"recommread-server/internal/messaging"
	"recommread-server/internal/models"
)

var _ authoring.EventSink = (*publisherEventSink)(nil)

// publisherEventSink bridges the authoring session's publish notification
// to the story events queue.
type publisherEventSink struct {
	events messaging.StoryEventPublisher
}

// NewPublisherEventSink wraps a StoryEventPublisher as an authoring
// EventSink.
func NewPublisherEventSink(events messaging.StoryEventPublisher) authoring.EventSink {
	return &publisherEventSink{events: events}
}

func (s *publisherEventSink) StoryPublished(ctx context.Context, story models.Story) error {
	publishedAt := time.Now()
	if story.PublishedAt != nil {
		publishedAt = *story.PublishedAt
	}
	return s.events.PublishStoryPublished(ctx, messaging.StoryPublishedPayload{
		StoryID:     story.ID,
		AuthorID:    story.AuthorID,
		Title:       story.Title,
		Genre:       string(story.Genre),
		PublishedAt: publishedAt,
	})
}
