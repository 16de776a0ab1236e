package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/kafka"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/metrics"
	"go.uber.org/zap"
)

// Dispatcher queues effects and delivers them to its sinks from a single
// background worker. A full queue drops the effect; the decision it belongs
// to is already committed.
type Dispatcher struct {
	sinks   []Sink
	queue   chan kafka.NotificationEvent
	retries int
	backoff time.Duration
	metrics *metrics.ModerationMetrics
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

type Option func(*Dispatcher)

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan kafka.NotificationEvent, n)
		}
	}
}

func WithRetries(n int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.retries = n
		}
		d.backoff = backoff
	}
}

func WithMetrics(m *metrics.ModerationMetrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func NewDispatcher(sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sinks:   sinks,
		queue:   make(chan kafka.NotificationEvent, 256),
		retries: 3,
		backoff: 500 * time.Millisecond,
		logger:  zap.NewNop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start runs the delivery worker until Close drains the queue. ctx bounds
// individual deliveries and retry waits.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for event := range d.queue {
			d.deliver(ctx, event)
		}
	}()
}

func (d *Dispatcher) Dispatch(_ context.Context, effect domain.Effect) {
	event := eventOf(effect, time.Now())

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notification dispatched after close", zap.String("entity_id", effect.EntityID))
		d.metrics.RecordNotificationDropped()
		return
	}

	select {
	case d.queue <- event:
	default:
		d.logger.Warn("notification queue is full, dropping event",
			zap.String("template", event.Template),
			zap.String("entity_id", event.EntityID),
		)
		d.metrics.RecordNotificationDropped()
	}
}

// Close stops accepting effects and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event kafka.NotificationEvent) {
	for _, sink := range d.sinks {
		err := d.send(ctx, sink, event)
		d.metrics.RecordNotification(event.Template, err == nil)
		if err != nil {
			d.logger.Error("failed to deliver notification",
				zap.String("event_id", event.EventID),
				zap.String("template", event.Template),
				zap.String("recipient", event.Recipient),
				zap.Error(err),
			)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, sink Sink, event kafka.NotificationEvent) error {
	var errs []error
	for attempt := 1; attempt <= d.retries; attempt++ {
		err := sink.Send(ctx, event)
		if err == nil {
			return nil
		}
		errs = append(errs, err)

		if attempt == d.retries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt) * d.backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(append(errs, ctx.Err())...)
		}
	}
	return errors.Join(errs...)
}
