package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Interval is a half-open range [Start, End) of instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps reports whether the two intervals share at least one instant.
// Back-to-back intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

type PromotionType struct {
	ID          string
	Name        string
	DailyCost   decimal.Decimal
	Description string
	TotalSlots  int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PromotionRequest struct {
	Moderation
	GuideID         string
	TourID          string
	PromotionTypeID string
	DurationDays    int
	TotalCost       decimal.Decimal
	Interval        *Interval

	// PurchaseID identifies the payment behind the request. Empty for
	// requests created by an operator.
	PurchaseID string
}

func (r *PromotionRequest) Kind() EntityKind { return KindPromotionRequest }
func (r *PromotionRequest) State() *Moderation { return &r.Moderation }
func (r *PromotionRequest) Recipient() string { return r.GuideID }
func (r *PromotionRequest) Schedule() *Interval { return r.Interval }

func (r *PromotionRequest) SetSchedule(interval Interval) {
	r.Interval = &interval
}

type Reservation struct {
	ID              string
	PromotionTypeID string
	RequestID       string
	Interval        Interval
	CreatedAt       time.Time
}

type PromotionTypeRepository interface {
	Create(ctx context.Context, pt *PromotionType) error
	Update(ctx context.Context, pt *PromotionType) error
	Get(ctx context.Context, id string) (*PromotionType, error)
	GetByName(ctx context.Context, name string) (*PromotionType, error)
	List(ctx context.Context, includeInactive bool) ([]*PromotionType, error)
}

type PromotionRequestFilter struct {
	ListFilter
	PromotionTypeID string
	GuideID         string
}

type PromotionRequestRepository interface {
	Create(ctx context.Context, req *PromotionRequest) error
	Get(ctx context.Context, id string) (*PromotionRequest, error)
	GetByPurchase(ctx context.Context, purchaseID string) (*PromotionRequest, error)
	List(ctx context.Context, filter PromotionRequestFilter) ([]*PromotionRequest, int64, error)
	// Decide is a compare-and-set on status; it returns ErrAlreadyDecided
	// when the stored status no longer equals expected.
	Decide(ctx context.Context, id string, expected ModerationStatus, decision Decision) error
	// MarkEndedBy moves every approved request whose interval ended by
	// asOf to EXPIRED.
	MarkEndedBy(ctx context.Context, asOf time.Time) (int64, error)
}

// ReservationStore is the persistence behind the slot ledger. Writes that
// depend on current usage must run inside WithTypeLock.
type ReservationStore interface {
	// WithTypeLock runs fn while holding the exclusive lock of the
	// promotion type row. The store passed to fn is bound to the same
	// transaction.
	WithTypeLock(ctx context.Context, typeID string, fn func(pt *PromotionType, tx ReservationStore) error) error
	ListByType(ctx context.Context, typeID string) ([]*Reservation, error)
	ListOverlapping(ctx context.Context, typeID string, interval Interval) ([]*Reservation, error)
	ListEndedBy(ctx context.Context, asOf time.Time) ([]*Reservation, error)
	GetByRequest(ctx context.Context, requestID string) (*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	DeleteByRequest(ctx context.Context, requestID string) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
