package service

import (
	"context"
	"log/slog"

	"stackit/internal/microservices/events"
)

// Notifier delivers committed changes to real-time subscribers.
type Notifier interface {
	Notify(ctx context.Context, event events.Event) error
}

// notify runs after commit. A failed delivery is logged and never reaches
// the caller, the write already happened.
func notify(ctx context.Context, n Notifier, logger *slog.Logger, evs ...events.Event) {
	if n == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, ev := range evs {
		if err := n.Notify(ctx, ev); err != nil {
			logger.Warn("broadcast_failed",
				"event", ev.Type,
				"question_id", ev.QuestionID,
				"error", err,
			)
		}
	}
}
