package slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger is the source of truth for slot usage per promotion type.
//
// Reserve, Release and ExpireStale hold the per-type lock: the in-process
// mutex, any extra lockers (e.g. redis) and the row lock taken by the store
// inside WithTypeLock. Reads take no lock.
type Ledger struct {
	store   domain.ReservationStore
	types   domain.PromotionTypeRepository
	lockers []Locker
	clock   domain.Clock
	metrics *metrics.ModerationMetrics
	logger  *zap.Logger
}

type Option func(*Ledger)

// WithLocker adds a locker acquired after the in-process mutex.
func WithLocker(l Locker) Option {
	return func(led *Ledger) { led.lockers = append(led.lockers, l) }
}

func WithClock(clock domain.Clock) Option {
	return func(led *Ledger) { led.clock = clock }
}

func WithMetrics(m *metrics.ModerationMetrics) Option {
	return func(led *Ledger) { led.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(led *Ledger) { led.logger = logger }
}

func NewLedger(store domain.ReservationStore, types domain.PromotionTypeRepository, opts ...Option) *Ledger {
	led := &Ledger{
		store:   store,
		types:   types,
		lockers: []Locker{NewKeyedMutex()},
		clock:   domain.SystemClock{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(led)
	}
	return led
}

// AvailableSlots returns TotalSlots minus the reservations covering asOf.
// The result is clamped at zero when capacity was lowered below usage.
func (l *Ledger) AvailableSlots(ctx context.Context, typeID string, asOf time.Time) (int, error) {
	pt, err := l.types.Get(ctx, typeID)
	if err != nil {
		return 0, err
	}
	reservations, err := l.store.ListByType(ctx, typeID)
	if err != nil {
		return 0, fmt.Errorf("list reservations: %w", err)
	}

	used := 0
	for _, r := range reservations {
		if r.Interval.Contains(asOf) {
			used++
		}
	}
	free := pt.TotalSlots - used
	if free < 0 {
		free = 0
	}
	l.metrics.SetAvailableSlots(typeID, free)
	return free, nil
}

// Usage returns the peak number of concurrent reservations within window.
func (l *Ledger) Usage(ctx context.Context, typeID string, window domain.Interval) (int, error) {
	if !window.Valid() {
		return 0, domain.ErrInvalidInterval
	}
	if _, err := l.types.Get(ctx, typeID); err != nil {
		return 0, err
	}
	reservations, err := l.store.ListOverlapping(ctx, typeID, window)
	if err != nil {
		return 0, fmt.Errorf("list reservations: %w", err)
	}
	return PeakUsage(reservations, window), nil
}

// Reserve books one slot of typeID for requestID over interval. The
// capacity check and the insert run under the type lock.
func (l *Ledger) Reserve(ctx context.Context, typeID, requestID string, interval domain.Interval) (*domain.Reservation, error) {
	if !interval.Valid() {
		return nil, domain.ErrInvalidInterval
	}

	unlock, err := chain(ctx, typeID, l.lockers)
	if err != nil {
		return nil, fmt.Errorf("lock promotion type %s: %w", typeID, err)
	}
	defer unlock()

	var reservation *domain.Reservation
	err = l.store.WithTypeLock(ctx, typeID, func(pt *domain.PromotionType, tx domain.ReservationStore) error {
		existing, err := tx.GetByRequest(ctx, requestID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: request %s already holds reservation %s", domain.ErrAlreadyDecided, requestID, existing.ID)
		}

		overlapping, err := tx.ListOverlapping(ctx, typeID, interval)
		if err != nil {
			return err
		}
		if !HasCapacity(pt.TotalSlots, overlapping, interval) {
			return fmt.Errorf("%w: %s has %d slots", domain.ErrCapacityExceeded, pt.Name, pt.TotalSlots)
		}

		reservation = &domain.Reservation{
			ID:              uuid.NewString(),
			PromotionTypeID: typeID,
			RequestID:       requestID,
			Interval:        interval,
			CreatedAt:       l.clock.Now(),
		}
		return tx.Create(ctx, reservation)
	})
	if err != nil {
		if errors.Is(err, domain.ErrCapacityExceeded) {
			l.metrics.RecordCapacityRejection(typeID)
		}
		return nil, err
	}

	l.metrics.RecordReservation(typeID)
	l.logger.Info("slot reserved",
		zap.String("promotion_type_id", typeID),
		zap.String("request_id", requestID),
		zap.Time("start", interval.Start),
		zap.Time("end", interval.End),
	)
	return reservation, nil
}

// Release removes the reservation of requestID if there is one. Releasing an
// unknown or already released request is a no-op.
func (l *Ledger) Release(ctx context.Context, requestID string) error {
	existing, err := l.store.GetByRequest(ctx, requestID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	typeID := existing.PromotionTypeID

	unlock, err := chain(ctx, typeID, l.lockers)
	if err != nil {
		return fmt.Errorf("lock promotion type %s: %w", typeID, err)
	}
	defer unlock()

	var removed int64
	err = l.store.WithTypeLock(ctx, typeID, func(_ *domain.PromotionType, tx domain.ReservationStore) error {
		removed, err = tx.DeleteByRequest(ctx, requestID)
		return err
	})
	if err != nil {
		return err
	}
	if removed > 0 {
		l.metrics.RecordRelease(typeID)
		l.logger.Info("slot released",
			zap.String("promotion_type_id", typeID),
			zap.String("request_id", requestID),
		)
	}
	return nil
}

// ExpireStale removes every reservation with End <= asOf and returns the
// request ids they belonged to.
func (l *Ledger) ExpireStale(ctx context.Context, asOf time.Time) ([]string, error) {
	stale, err := l.store.ListEndedBy(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("list ended reservations: %w", err)
	}

	byType := make(map[string]struct{})
	for _, r := range stale {
		byType[r.PromotionTypeID] = struct{}{}
	}
	typeIDs := make([]string, 0, len(byType))
	for id := range byType {
		typeIDs = append(typeIDs, id)
	}
	sort.Strings(typeIDs)

	var requestIDs []string
	for _, typeID := range typeIDs {
		expired, err := l.expireType(ctx, typeID, asOf)
		if err != nil {
			return requestIDs, err
		}
		requestIDs = append(requestIDs, expired...)
	}

	l.metrics.RecordExpired(len(requestIDs))
	return requestIDs, nil
}

func (l *Ledger) expireType(ctx context.Context, typeID string, asOf time.Time) ([]string, error) {
	unlock, err := chain(ctx, typeID, l.lockers)
	if err != nil {
		return nil, fmt.Errorf("lock promotion type %s: %w", typeID, err)
	}
	defer unlock()

	var requestIDs []string
	err = l.store.WithTypeLock(ctx, typeID, func(_ *domain.PromotionType, tx domain.ReservationStore) error {
		reservations, err := tx.ListByType(ctx, typeID)
		if err != nil {
			return err
		}
		var ids []string
		for _, r := range reservations {
			if !r.Interval.End.After(asOf) {
				ids = append(ids, r.ID)
				requestIDs = append(requestIDs, r.RequestID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		_, err = tx.DeleteByIDs(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return requestIDs, nil
}

// HasCapacity reports whether one more reservation over window keeps
// concurrent usage within totalSlots at every instant.
func HasCapacity(totalSlots int, reservations []*domain.Reservation, window domain.Interval) bool {
	return PeakUsage(reservations, window) < totalSlots
}

// PeakUsage sweeps reservation boundaries inside window and returns the
// highest number of reservations covering a single instant. Intervals are
// half-open, so an end and a start at the same instant do not stack.
func PeakUsage(reservations []*domain.Reservation, window domain.Interval) int {
	type edge struct {
		at    time.Time
		delta int
	}

	edges := make([]edge, 0, 2*len(reservations))
	for _, r := range reservations {
		if !r.Interval.Overlaps(window) {
			continue
		}
		start := r.Interval.Start
		if start.Before(window.Start) {
			start = window.Start
		}
		edges = append(edges, edge{at: start, delta: 1}, edge{at: r.Interval.End, delta: -1})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at.Equal(edges[j].at) {
			return edges[i].delta < edges[j].delta
		}
		return edges[i].at.Before(edges[j].at)
	})

	peak, current := 0, 0
	for _, e := range edges {
		current += e.delta
		if current > peak {
			peak = current
		}
	}
	return peak
}
