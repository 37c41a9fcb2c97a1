package websocket

import (
	"context"
	"fmt"
	"log/slog"

	"stackit/internal/microservices/events"
	"stackit/internal/microservices/http-api/service"
)

// Publisher forwards events to other API instances.
type Publisher interface {
	Origin() string
	Publish(ctx context.Context, env *events.Envelope) error
}

// Broadcaster routes committed events to their rooms. Delivery is best
// effort: at most once, ordered only per room per connection.
type Broadcaster struct {
	hub       *Hub
	publisher Publisher
	logger    *slog.Logger
}

var _ service.Notifier = (*Broadcaster)(nil)

func NewBroadcaster(hub *Hub, publisher Publisher) *Broadcaster {
	return &Broadcaster{
		hub:       hub,
		publisher: publisher,
		logger:    slog.Default(),
	}
}

// Notify delivers ev to local rooms, then hands it to the publisher if
// there is one. Local delivery happens even when publishing fails.
func (b *Broadcaster) Notify(ctx context.Context, ev events.Event) error {
	if _, err := b.Deliver(ev); err != nil {
		return fmt.Errorf("%w: %v", service.ErrBroadcastFailure, err)
	}
	if b.publisher == nil {
		return nil
	}

	env, err := ev.Envelope(b.publisher.Origin())
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrBroadcastFailure, err)
	}
	if err := b.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("%w: relay publish: %v", service.ErrBroadcastFailure, err)
	}
	return nil
}

// Deliver writes ev to every room its type routes to on this instance and
// returns the number of queued frames.
func (b *Broadcaster) Deliver(ev events.Event) (int, error) {
	rooms, err := ev.Rooms()
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, room := range rooms {
		data, err := EventFrame(ev, room).ToJSON()
		if err != nil {
			return delivered, err
		}
		delivered += b.hub.Broadcast(room, data)
	}

	b.logger.Debug("event_delivered",
		"event", ev.Type,
		"question_id", ev.QuestionID,
		"rooms", rooms,
		"delivered", delivered,
	)
	return delivered, nil
}
