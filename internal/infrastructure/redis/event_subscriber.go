package redis

import (
	"context"
	"encoding/json"

	"github.com/DavidCLumin/estate-agent-crm/internal/domain"
	"github.com/DavidCLumin/estate-agent-crm/pkg/logger"

	"github.com/go-redis/redis/v8"
)

type EventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *EventSubscriber {
	return &EventSubscriber{client: client, log: log}
}

// Subscribe blocks handling bid events until ctx is cancelled. The
// handler runs on the subscriber goroutine; it must not block for long.
func (s *EventSubscriber) Subscribe(ctx context.Context, handler domain.EventHandler) error {
	pubsub := s.client.Subscribe(ctx, bidEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	s.log.Info("Subscribed to bid events", "channel", bidEventsChannel)

	for {
		select {
		case msg := <-ch:
			var event domain.BidEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.log.Error("Failed to parse bid event", "payload", msg.Payload, "error", err)
				continue
			}
			handler(&event)

		case <-ctx.Done():
			s.log.Info("Bid event subscriber stopped")
			return ctx.Err()
		}
	}
}
