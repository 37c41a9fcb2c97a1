package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"stackit/internal/microservices/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRelay fans events out between API instances over one pub/sub
// channel. Each instance drops its own messages, it already delivered them.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	origin  string
	logger  *slog.Logger
}

func NewRedisRelay(client redis.UniversalClient, channel string) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  uuid.New().String(),
		logger:  slog.Default(),
	}
}

func (r *RedisRelay) Origin() string {
	return r.origin
}

func (r *RedisRelay) Publish(ctx context.Context, env *events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

// Start subscribes and returns once the subscription is confirmed. Events
// from other instances are passed to deliver until ctx is cancelled.
func (r *RedisRelay) Start(ctx context.Context, deliver func(events.Event)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	r.logger.Info("relay_subscribed", "channel", r.channel, "origin", r.origin)
	go r.loop(ctx, sub, deliver)
	return nil
}

func (r *RedisRelay) loop(ctx context.Context, sub *redis.PubSub, deliver func(events.Event)) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env events.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("relay_bad_message", "error", err)
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			deliver(env.Event())
		}
	}
}

// RelayDeliverer adapts a Broadcaster for RedisRelay.Start.
func RelayDeliverer(b *Broadcaster) func(events.Event) {
	return func(ev events.Event) {
		if _, err := b.Deliver(ev); err != nil {
			b.logger.Warn("relay_delivery_failed", "event", ev.Type, "error", err)
		}
	}
}
