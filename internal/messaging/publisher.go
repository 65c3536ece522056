package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// StoryEventPublisher publishes feed-affecting story events.
type StoryEventPublisher interface {
	PublishStoryPublished(ctx context.Context, payload StoryPublishedPayload) error
	PublishStoryLiked(ctx context.Context, payload StoryLikedPayload) error
}

var _ StoryEventPublisher = (*rabbitMQPublisher)(nil)

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher opens a channel on the connection and declares the
// story events queue. Queue parameters must match the consumer's.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (StoryEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("story event publisher: opening channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("story event publisher: declaring queue %q: %w", queueName, err)
	}
	log := logger.Named("StoryEventPublisher")
	log.Info("Queue declared", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: log}, nil
}

func (p *rabbitMQPublisher) PublishStoryPublished(ctx context.Context, payload StoryPublishedPayload) error {
	if err := p.publishEvent(ctx, EventStoryPublished, payload); err != nil {
		return fmt.Errorf("publishing story_published event for %s: %w", payload.StoryID, err)
	}
	p.logger.Debug("story_published event sent", zap.String("storyID", payload.StoryID.String()))
	return nil
}

func (p *rabbitMQPublisher) PublishStoryLiked(ctx context.Context, payload StoryLikedPayload) error {
	if err := p.publishEvent(ctx, EventStoryLiked, payload); err != nil {
		return fmt.Errorf("publishing story_liked event for %s: %w", payload.StoryID, err)
	}
	p.logger.Debug("story_liked event sent",
		zap.String("storyID", payload.StoryID.String()), zap.Int("delta", payload.Delta))
	return nil
}

func (p *rabbitMQPublisher) publishEvent(ctx context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	body, err := json.Marshal(Envelope{Type: eventType, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	return p.publishMessage(ctx, body)
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // default exchange
			p.queueName, // routing key = queue name
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "recommread-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt), zap.String("queue", p.queueName), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("publishing to queue %s after retries: %w", p.queueName, err)
}
