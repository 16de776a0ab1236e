package moderation

import (
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
)

// StateMachine enforces the moderation lifecycle for every entity kind:
//
//	PENDING -> APPROVED | REJECTED
//	APPROVED -> EXPIRED   (read-time projection, scheduled kinds only)
//	APPROVED -> REJECTED  (admin revoke, scheduled kinds only)
//
// It mutates the entity in memory and never performs I/O. Callers persist
// the result with a compare-and-set on the previous status.
type StateMachine struct{}

func NewStateMachine() *StateMachine {
	return &StateMachine{}
}

func (sm *StateMachine) Transition(e domain.Moderated, target domain.ModerationStatus, tc domain.TransitionContext) (*domain.Effect, error) {
	state := e.State()
	if state.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: %s is %s", domain.ErrInvalidTransition, state.ID, state.Status)
	}

	switch target {
	case domain.StatusRejected:
		reason := strings.TrimSpace(tc.Reason)
		if reason == "" {
			return nil, domain.ErrMissingReason
		}
		state.Status = domain.StatusRejected
		state.RejectionReason = reason
	case domain.StatusApproved:
		if e.Kind().RequiresSchedule() {
			if tc.Interval == nil || !tc.Interval.Valid() {
				return nil, domain.ErrMissingSchedule
			}
			e.SetSchedule(*tc.Interval)
		}
		state.Status = domain.StatusApproved
	default:
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, state.Status, target)
	}

	sm.stamp(state, tc)
	return effectOf(e), nil
}

// Revoke overrides an earlier approval of a scheduled entity.
func (sm *StateMachine) Revoke(e domain.Moderated, tc domain.TransitionContext) (*domain.Effect, error) {
	state := e.State()
	if !e.Kind().RequiresSchedule() || state.Status != domain.StatusApproved {
		return nil, fmt.Errorf("%w: cannot revoke %s in status %s", domain.ErrInvalidTransition, state.ID, state.Status)
	}
	reason := strings.TrimSpace(tc.Reason)
	if reason == "" {
		return nil, domain.ErrMissingReason
	}
	state.Status = domain.StatusRejected
	state.RejectionReason = reason
	sm.stamp(state, tc)
	return effectOf(e), nil
}

// Expire projects APPROVED to EXPIRED once the schedule has ended. It is not
// an operator action and therefore skips the pending guard.
func (sm *StateMachine) Expire(e domain.Moderated, now time.Time) bool {
	state := e.State()
	if state.Status != domain.StatusApproved || !e.Kind().RequiresSchedule() {
		return false
	}
	schedule := e.Schedule()
	if schedule == nil || now.Before(schedule.End) {
		return false
	}
	state.Status = domain.StatusExpired
	return true
}

func (sm *StateMachine) stamp(state *domain.Moderation, tc domain.TransitionContext) {
	at := tc.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	state.DecidedAt = &at
	state.DecidedBy = tc.Operator
}

func effectOf(e domain.Moderated) *domain.Effect {
	state := e.State()
	payload := map[string]any{
		"status": string(state.Status),
	}
	if state.RejectionReason != "" {
		payload["reason"] = state.RejectionReason
	}
	if s := e.Schedule(); s != nil && state.Status == domain.StatusApproved {
		payload["start_date"] = s.Start.Format(time.DateOnly)
		payload["end_date"] = s.End.Format(time.DateOnly)
	}
	return &domain.Effect{
		Recipient: e.Recipient(),
		Template:  domain.TemplateFor(e.Kind(), state.Status),
		EntityID:  state.ID,
		Kind:      e.Kind(),
		Payload:   payload,
	}
}
