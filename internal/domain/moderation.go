package domain

import (
	"context"
	"encoding/json"
	"time"
)

type ModerationStatus string

const (
	StatusPending  ModerationStatus = "PENDING"
	StatusApproved ModerationStatus = "APPROVED"
	StatusRejected ModerationStatus = "REJECTED"
	// StatusExpired is never set by an operator. It is projected from an
	// approved promotion whose interval has ended.
	StatusExpired  ModerationStatus = "EXPIRED"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

type EntityKind string

const (
	KindGuideApplication EntityKind = "guide_application"
	KindGuideProfile     EntityKind = "guide_profile"
	KindTourListing      EntityKind = "tour_listing"
	KindDeletionRequest  EntityKind = "deletion_request"
	KindPromotionRequest EntityKind = "promotion_request"
)

var EntityKinds = []EntityKind{
	KindGuideApplication,
	KindGuideProfile,
	KindTourListing,
	KindDeletionRequest,
	KindPromotionRequest,
}

func (k EntityKind) Valid() bool {
	for _, kind := range EntityKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// RequiresSchedule reports whether approving an entity of this kind needs a
// concrete date interval. Only scheduled kinds can expire.
func (k EntityKind) RequiresSchedule() bool {
	return k == KindPromotionRequest
}

// Moderation is the review state shared by every moderated entity.
type Moderation struct {
	ID              string
	Status          ModerationStatus
	RejectionReason string
	CreatedAt       time.Time
	DecidedAt       *time.Time
	DecidedBy       string
}

// Moderated is implemented by every entity the state machine can drive.
type Moderated interface {
	Kind() EntityKind
	State() *Moderation
	Recipient() string
	Schedule() *Interval
	SetSchedule(interval Interval)
}

type TransitionContext struct {
	Reason   string
	Interval *Interval
	Operator string
	At       time.Time
}

// ModerationRecord backs guide applications, guide profile reviews, tour
// listings and account deletion requests.
type ModerationRecord struct {
	Moderation
	EntityKind EntityKind
	SubjectID  string
	OwnerID    string
	Title      string
	Payload    json.RawMessage
}

func (r *ModerationRecord) Kind() EntityKind { return r.EntityKind }
func (r *ModerationRecord) State() *Moderation { return &r.Moderation }
func (r *ModerationRecord) Recipient() string { return r.OwnerID }
func (r *ModerationRecord) Schedule() *Interval { return nil }
func (r *ModerationRecord) SetSchedule(Interval) {}

type ListFilter struct {
	// Status nil means all statuses.
	Status *ModerationStatus
	Page   int
	Limit  int
}

func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 200 {
		f.Limit = 50
	}
	return f
}

type Decision struct {
	Status          ModerationStatus
	RejectionReason string
	Interval        *Interval
	DecidedAt       *time.Time
	DecidedBy       string
}

func DecisionOf(m Moderated) Decision {
	st := m.State()
	return Decision{
		Status:          st.Status,
		RejectionReason: st.RejectionReason,
		Interval:        m.Schedule(),
		DecidedAt:       st.DecidedAt,
		DecidedBy:       st.DecidedBy,
	}
}

type ModerationRepository interface {
	Create(ctx context.Context, record *ModerationRecord) error
	Get(ctx context.Context, kind EntityKind, id string) (*ModerationRecord, error)
	List(ctx context.Context, kind EntityKind, filter ListFilter) ([]*ModerationRecord, int64, error)
	// Decide applies the decision only if the stored status still equals
	// expected, running action inside the same transaction. It returns
	// ErrAlreadyDecided when the compare-and-set loses.
	Decide(ctx context.Context, id string, expected ModerationStatus, decision Decision, action func(ctx context.Context) error) error
}

// ApprovalAction is the domain action that must succeed together with an
// approval, e.g. deleting an account for a deletion request.
type ApprovalAction func(ctx context.Context, record *ModerationRecord) error
