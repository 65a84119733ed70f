package services

import (
	"context"

	"github.com/google/uuid"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/log"
)

// EventPublisher delivers change events after a write has committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.ChangeEvent) error
}

// notifier publishes change events best-effort. Failures are logged and never
// reach the caller; the write they describe is already committed.
type notifier struct {
	publisher EventPublisher
	logger    *log.Logger
}

func (n notifier) publish(ctx context.Context, caller core.Caller, entity, action string, id uuid.UUID) {
	if n.publisher == nil {
		return
	}

	ev := amqp.NewChangeEvent(entity, action, id, caller.UserID)
	if err := n.publisher.Publish(ctx, ev); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish change event",
			log.FieldOperation, log.OpPublish,
			"routing_key", ev.RoutingKey(),
			"id", id.String(),
			log.FieldError, err.Error())
	}
}
