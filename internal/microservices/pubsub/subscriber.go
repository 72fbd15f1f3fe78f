package pubsub

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Subscriber consumes the broker channel and hands payloads to a handler.
// Messages are delivered to the handler strictly in receipt order; any
// parallelism happens downstream, never across the channel's message stream.
type Subscriber struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewSubscriber(client *redis.Client, channel string, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Run blocks consuming the channel until ctx is cancelled.
// Messages published before the subscription was established are lost to
// the live path; the record store covers reconciliation.
func (s *Subscriber) Run(ctx context.Context, handler func(payload []byte)) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before consuming
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Info("Subscribed to broker channel", "channel", s.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("broker subscription closed")
			}
			handler([]byte(msg.Payload))
		}
	}
}
