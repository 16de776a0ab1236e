package notifier

import (
	"context"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

// Sink delivers one notification event. Send is retried by the dispatcher,
// so implementations should not retry on their own.
type Sink interface {
	Send(ctx context.Context, event kafka.NotificationEvent) error
}

func eventOf(effect domain.Effect, at time.Time) kafka.NotificationEvent {
	return kafka.NotificationEvent{
		EventID:    uuid.NewString(),
		Template:   string(effect.Template),
		Recipient:  effect.Recipient,
		EntityID:   effect.EntityID,
		EntityKind: string(effect.Kind),
		Payload:    effect.Payload,
		OccurredAt: at.UTC(),
	}
}

// Fanout hands every effect to each dispatcher in order.
type Fanout []domain.Dispatcher

func (f Fanout) Dispatch(ctx context.Context, effect domain.Effect) {
	for _, d := range f {
		d.Dispatch(ctx, effect)
	}
}
