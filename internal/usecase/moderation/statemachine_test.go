package moderation

import (
	"testing"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/stretchr/testify/require"
)

var decidedAt = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func pendingRecord(kind domain.EntityKind) *domain.ModerationRecord {
	return &domain.ModerationRecord{
		Moderation: domain.Moderation{ID: "rec-1", Status: domain.StatusPending, CreatedAt: decidedAt.Add(-time.Hour)},
		EntityKind: kind,
		SubjectID:  "guide-1",
		OwnerID:    "guide-1",
	}
}

func pendingPromotion() *domain.PromotionRequest {
	return &domain.PromotionRequest{
		Moderation:      domain.Moderation{ID: "req-1", Status: domain.StatusPending},
		GuideID:         "guide-1",
		TourID:          "tour-1",
		PromotionTypeID: "type-1",
		DurationDays:    9,
	}
}

func TestTransitionApproveRecord(t *testing.T) {
	sm := NewStateMachine()
	rec := pendingRecord(domain.KindTourListing)

	effect, err := sm.Transition(rec, domain.StatusApproved, domain.TransitionContext{Operator: "op-1", At: decidedAt})
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, rec.Status)
	require.Empty(t, rec.RejectionReason)
	require.Equal(t, "op-1", rec.DecidedBy)
	require.Equal(t, decidedAt, *rec.DecidedAt)

	require.Equal(t, "guide-1", effect.Recipient)
	require.Equal(t, domain.TemplateKind("tour_listing.approved"), effect.Template)
	require.Equal(t, "rec-1", effect.EntityID)
}

func TestTransitionRejectRequiresReason(t *testing.T) {
	sm := NewStateMachine()
	rec := pendingRecord(domain.KindGuideApplication)

	_, err := sm.Transition(rec, domain.StatusRejected, domain.TransitionContext{Reason: "   "})
	require.ErrorIs(t, err, domain.ErrMissingReason)
	require.Equal(t, domain.StatusPending, rec.Status)
	require.Nil(t, rec.DecidedAt)

	effect, err := sm.Transition(rec, domain.StatusRejected, domain.TransitionContext{Reason: " incomplete documents "})
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, rec.Status)
	require.Equal(t, "incomplete documents", rec.RejectionReason)
	require.Equal(t, "incomplete documents", effect.Payload["reason"])
	require.Equal(t, domain.TemplateKind("guide_application.rejected"), effect.Template)
}

func TestTransitionOnlyFromPending(t *testing.T) {
	sm := NewStateMachine()

	for _, status := range []domain.ModerationStatus{domain.StatusApproved, domain.StatusRejected, domain.StatusExpired} {
		rec := pendingRecord(domain.KindGuideProfile)
		rec.Status = status

		_, err := sm.Transition(rec, domain.StatusApproved, domain.TransitionContext{})
		require.ErrorIs(t, err, domain.ErrInvalidTransition, status)
		_, err = sm.Transition(rec, domain.StatusRejected, domain.TransitionContext{Reason: "late"})
		require.ErrorIs(t, err, domain.ErrInvalidTransition, status)
		require.Equal(t, status, rec.Status)
	}
}

func TestTransitionRejectsOtherTargets(t *testing.T) {
	sm := NewStateMachine()
	rec := pendingRecord(domain.KindGuideProfile)

	_, err := sm.Transition(rec, domain.StatusExpired, domain.TransitionContext{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = sm.Transition(rec, domain.StatusPending, domain.TransitionContext{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, domain.StatusPending, rec.Status)
}

func TestTransitionPromotionRequiresSchedule(t *testing.T) {
	sm := NewStateMachine()
	req := pendingPromotion()

	_, err := sm.Transition(req, domain.StatusApproved, domain.TransitionContext{})
	require.ErrorIs(t, err, domain.ErrMissingSchedule)

	backwards := domain.NewInterval(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	_, err = sm.Transition(req, domain.StatusApproved, domain.TransitionContext{Interval: &backwards})
	require.ErrorIs(t, err, domain.ErrMissingSchedule)
	require.Equal(t, domain.StatusPending, req.Status)
	require.Nil(t, req.Interval)

	interval := domain.NewInterval(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	effect, err := sm.Transition(req, domain.StatusApproved, domain.TransitionContext{Interval: &interval, Operator: "op-1"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, req.Status)
	require.Equal(t, interval, *req.Interval)
	require.Equal(t, "2024-01-01", effect.Payload["start_date"])
	require.Equal(t, "2024-01-10", effect.Payload["end_date"])
	require.Equal(t, domain.TemplateKind("promotion_request.approved"), effect.Template)
}

func TestExpire(t *testing.T) {
	sm := NewStateMachine()
	req := pendingPromotion()
	interval := domain.NewInterval(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	require.False(t, sm.Expire(req, interval.End), "pending requests never expire")

	_, err := sm.Transition(req, domain.StatusApproved, domain.TransitionContext{Interval: &interval})
	require.NoError(t, err)

	require.False(t, sm.Expire(req, interval.End.Add(-time.Nanosecond)))
	require.Equal(t, domain.StatusApproved, req.Status)

	require.True(t, sm.Expire(req, interval.End))
	require.Equal(t, domain.StatusExpired, req.Status)
	require.False(t, sm.Expire(req, interval.End.Add(time.Hour)))
}

func TestExpireIgnoresUnscheduledKinds(t *testing.T) {
	sm := NewStateMachine()
	rec := pendingRecord(domain.KindTourListing)
	rec.Status = domain.StatusApproved

	require.False(t, sm.Expire(rec, time.Now()))
	require.Equal(t, domain.StatusApproved, rec.Status)
}

func TestRevoke(t *testing.T) {
	sm := NewStateMachine()
	req := pendingPromotion()

	_, err := sm.Revoke(req, domain.TransitionContext{Reason: "fraud"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	interval := domain.NewInterval(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	_, err = sm.Transition(req, domain.StatusApproved, domain.TransitionContext{Interval: &interval})
	require.NoError(t, err)

	_, err = sm.Revoke(req, domain.TransitionContext{})
	require.ErrorIs(t, err, domain.ErrMissingReason)
	require.Equal(t, domain.StatusApproved, req.Status)

	effect, err := sm.Revoke(req, domain.TransitionContext{Reason: "fraud", Operator: "op-2"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, req.Status)
	require.Equal(t, "fraud", req.RejectionReason)
	require.Equal(t, "op-2", req.DecidedBy)
	require.Equal(t, domain.TemplateKind("promotion_request.rejected"), effect.Template)

	rec := pendingRecord(domain.KindTourListing)
	rec.Status = domain.StatusApproved
	_, err = sm.Revoke(rec, domain.TransitionContext{Reason: "fraud"})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
