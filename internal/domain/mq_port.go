package domain

import (
	"context"
	"strings"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

type TemplateKind string

// Effect describes the notification a committed decision should produce.
// The state machine returns it; delivery belongs to the dispatcher.
type Effect struct {
	Recipient string
	Template  TemplateKind
	EntityID  string
	Kind      EntityKind
	Payload   map[string]any
}

func TemplateFor(kind EntityKind, status ModerationStatus) TemplateKind {
	return TemplateKind(string(kind) + "." + strings.ToLower(string(status)))
}

// Dispatcher delivers effects asynchronously. Dispatch must not block on
// delivery and its failures never undo a committed decision.
type Dispatcher interface {
	Dispatch(ctx context.Context, effect Effect)
}

// NopDispatcher discards every effect.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, Effect) {}
