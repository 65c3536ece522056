package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"recommread-server/internal/repository"
)

// EventProcessor applies the side effects of one story event. Split from
// the consumer loop for testability.
type EventProcessor struct {
	stories     repository.StoryRepository
	leaderboard repository.LeaderboardRepository
	logger      *zap.Logger
}

// NewEventProcessor creates a processor wiring story events to the feed
// counters and the leaderboard.
func NewEventProcessor(stories repository.StoryRepository, leaderboard repository.LeaderboardRepository, logger *zap.Logger) *EventProcessor {
	return &EventProcessor{
		stories:     stories,
		leaderboard: leaderboard,
		logger:      logger.Named("EventProcessor"),
	}
}

// Process handles one envelope. Unknown event types are logged and
// dropped; they must not requeue forever.
func (p *EventProcessor) Process(ctx context.Context, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshaling event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	switch env.Type {
	case EventStoryPublished:
		var payload StoryPublishedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshaling story_published payload: %w", err)
		}
		if err := p.leaderboard.EnsureAuthor(ctx, payload.AuthorID); err != nil {
			return err
		}
		p.logger.Info("Processed story_published",
			zap.String("storyID", payload.StoryID.String()), zap.String("authorID", payload.AuthorID.String()))
		return nil

	case EventStoryLiked:
		var payload StoryLikedPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshaling story_liked payload: %w", err)
		}
		if err := p.stories.AdjustLikes(ctx, payload.StoryID, payload.Delta); err != nil {
			return err
		}
		if err := p.leaderboard.IncrementLikes(ctx, payload.AuthorID, payload.Delta); err != nil {
			return err
		}
		p.logger.Info("Processed story_liked",
			zap.String("storyID", payload.StoryID.String()), zap.Int("delta", payload.Delta))
		return nil

	default:
		p.logger.Warn("Dropping event of unknown type", zap.String("type", env.Type))
		return nil
	}
}

// Consumer drains the story events queue and feeds the processor.
type Consumer struct {
	channel   *amqp.Channel
	queueName string
	processor *EventProcessor
	logger    *zap.Logger

	cancelCtx context.CancelFunc
	wg        sync.WaitGroup
}

// NewConsumer opens a channel and declares the queue with the same
// parameters the publisher uses.
func NewConsumer(conn *amqp.Connection, queueName string, processor *EventProcessor, logger *zap.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("story event consumer: opening channel: %w", err)
	}
	_, err = ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("story event consumer: declaring queue %q: %w", queueName, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("story event consumer: setting QoS: %w", err)
	}
	return &Consumer{
		channel:   ch,
		queueName: queueName,
		processor: processor,
		logger:    logger.Named("StoryEventConsumer"),
	}, nil
}

// Start begins consuming in a background goroutine.
func (c *Consumer) Start() error {
	deliveries, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("story event consumer: starting consume: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelCtx = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Info("Consuming story events", zap.String("queue", c.queueName))
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					c.logger.Warn("Delivery channel closed")
					return
				}
				c.handle(ctx, delivery)
			}
		}
	}()
	return nil
}

func (c *Consumer) handle(ctx context.Context, delivery amqp.Delivery) {
	if err := c.processor.Process(ctx, delivery.Body); err != nil {
		c.logger.Error("Failed to process event, requeueing once", zap.Error(err))
		// Requeue on the first failure only, otherwise drop.
		_ = delivery.Nack(false, !delivery.Redelivered)
		return
	}
	_ = delivery.Ack(false)
}

// Stop cancels the consume loop and closes the channel.
func (c *Consumer) Stop() {
	if c.cancelCtx != nil {
		c.cancelCtx()
	}
	c.wg.Wait()
	if err := c.channel.Close(); err != nil {
		c.logger.Warn("Failed to close consumer channel", zap.Error(err))
	}
	c.logger.Info("Story event consumer stopped")
}
