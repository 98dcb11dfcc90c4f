package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"studycircle-backend/internal/database"
	"studycircle-backend/internal/domain"
)

// EventPublisher fans call events out over Redis pub/sub. Each circle
// gets its own channel so WebSocket hubs subscribe per circle.
type EventPublisher struct {
	client *database.RedisClient
}

// NewEventPublisher creates a new EventPublisher
func NewEventPublisher(client *database.RedisClient) *EventPublisher {
	return &EventPublisher{client: client}
}

// CallEventChannel returns the pub/sub channel name for a circle
func CallEventChannel(circleID uuid.UUID) string {
	return fmt.Sprintf("call:events:%s", circleID)
}

// PublishCallEvent broadcasts a call event to the circle's channel
func (p *EventPublisher) PublishCallEvent(ctx context.Context, event *domain.CallEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal call event: %w", err)
	}

	err = p.client.SafePublish(ctx, CallEventChannel(event.CircleID), payload).Err()
	if err != nil {
		return fmt.Errorf("failed to publish call event: %w", err)
	}

	return nil
}

// Subscribe opens a pub/sub subscription for a circle's call events.
// Returns nil when Redis is degraded; callers must check.
func (p *EventPublisher) Subscribe(ctx context.Context, circleID uuid.UUID) *CallEventSubscription {
	pubsub := p.client.SafeSubscribe(ctx, CallEventChannel(circleID))
	if pubsub == nil {
		return nil
	}
	return &CallEventSubscription{pubsub: pubsub}
}

// CallEventSubscription wraps a pub/sub subscription and decodes
// incoming messages back into call events
type CallEventSubscription struct {
	pubsub *goredis.PubSub
}

// Events returns a channel of decoded call events. Messages that fail
// to decode are dropped. The channel closes when the subscription closes
// or the context is cancelled.
func (s *CallEventSubscription) Events(ctx context.Context) <-chan *domain.CallEvent {
	return decodeCallEvents(ctx, s.pubsub.Channel())
}

func decodeCallEvents(ctx context.Context, in <-chan *goredis.Message) <-chan *domain.CallEvent {
	out := make(chan *domain.CallEvent)

	go func() {
		defer close(out)
		for msg := range in {
			event := &domain.CallEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Close tears down the subscription
func (s *CallEventSubscription) Close() error {
	return s.pubsub.Close()
}
