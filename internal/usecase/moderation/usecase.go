package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/metrics"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

type SubmitInput struct {
	Kind      domain.EntityKind
	SubjectID string
	OwnerID   string
	Title     string
	Payload   json.RawMessage
}

// Usecase moderates guide applications, guide profiles, tour listings and
// deletion requests. Promotion requests go through the promotion scheduler.
type Usecase interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.ModerationRecord, error)
	Get(ctx context.Context, kind domain.EntityKind, id string) (*domain.ModerationRecord, error)
	List(ctx context.Context, kind domain.EntityKind, filter domain.ListFilter) ([]*domain.ModerationRecord, int64, error)
	Approve(ctx context.Context, kind domain.EntityKind, id, operator string) (*domain.ModerationRecord, error)
	Reject(ctx context.Context, kind domain.EntityKind, id, reason, operator string) (*domain.ModerationRecord, error)
}

type DefaultUsecase struct {
	repo       domain.ModerationRepository
	machine    *StateMachine
	dispatcher domain.Dispatcher
	actions    map[domain.EntityKind]domain.ApprovalAction
	clock      domain.Clock
	metrics    *metrics.ModerationMetrics
	logger     *zap.Logger
	newID      func() string
}

type Option func(*DefaultUsecase)

// WithApprovalAction registers the domain action committed together with
// approvals of the given kind.
func WithApprovalAction(kind domain.EntityKind, action domain.ApprovalAction) Option {
	return func(uc *DefaultUsecase) { uc.actions[kind] = action }
}

func WithClock(clock domain.Clock) Option {
	return func(uc *DefaultUsecase) { uc.clock = clock }
}

func WithMetrics(m *metrics.ModerationMetrics) Option {
	return func(uc *DefaultUsecase) { uc.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(uc *DefaultUsecase) { uc.logger = logger }
}

func NewDefaultUsecase(repo domain.ModerationRepository, dispatcher domain.Dispatcher, opts ...Option) (*DefaultUsecase, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	uc := &DefaultUsecase{
		repo:       repo,
		machine:    NewStateMachine(),
		dispatcher: dispatcher,
		actions:    make(map[domain.EntityKind]domain.ApprovalAction),
		clock:      domain.SystemClock{},
		logger:     zap.NewNop(),
		newID:      idGenerator,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.dispatcher == nil {
		uc.dispatcher = domain.NopDispatcher{}
	}
	return uc, nil
}

// DeleteAccountAction deletes the subject account of an approved deletion
// request.
func DeleteAccountAction(accounts domain.AccountService) domain.ApprovalAction {
	return func(ctx context.Context, record *domain.ModerationRecord) error {
		return accounts.DeleteAccount(ctx, record.SubjectID)
	}
}

func (uc *DefaultUsecase) Submit(ctx context.Context, input SubmitInput) (*domain.ModerationRecord, error) {
	if err := checkKind(input.Kind); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.SubjectID) == "" {
		return nil, fmt.Errorf("%w: subject id is required", domain.ErrInvalidInput)
	}
	if input.OwnerID == "" {
		input.OwnerID = input.SubjectID
	}

	record := &domain.ModerationRecord{
		Moderation: domain.Moderation{
			ID:        uc.newID(),
			Status:    domain.StatusPending,
			CreatedAt: uc.clock.Now(),
		},
		EntityKind: input.Kind,
		SubjectID:  input.SubjectID,
		OwnerID:    input.OwnerID,
		Title:      input.Title,
		Payload:    input.Payload,
	}
	if err := uc.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("create %s: %w", input.Kind, err)
	}

	uc.logger.Info("moderation record submitted",
		zap.String("kind", string(record.EntityKind)),
		zap.String("id", record.ID),
		zap.String("subject_id", record.SubjectID),
	)
	return record, nil
}

func (uc *DefaultUsecase) Get(ctx context.Context, kind domain.EntityKind, id string) (*domain.ModerationRecord, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	return uc.repo.Get(ctx, kind, id)
}

func (uc *DefaultUsecase) List(ctx context.Context, kind domain.EntityKind, filter domain.ListFilter) ([]*domain.ModerationRecord, int64, error) {
	if err := checkKind(kind); err != nil {
		return nil, 0, err
	}
	return uc.repo.List(ctx, kind, filter.Normalize())
}

func (uc *DefaultUsecase) Approve(ctx context.Context, kind domain.EntityKind, id, operator string) (*domain.ModerationRecord, error) {
	return uc.decide(ctx, kind, id, domain.StatusApproved, domain.TransitionContext{Operator: operator})
}

func (uc *DefaultUsecase) Reject(ctx context.Context, kind domain.EntityKind, id, reason, operator string) (*domain.ModerationRecord, error) {
	return uc.decide(ctx, kind, id, domain.StatusRejected, domain.TransitionContext{Operator: operator, Reason: reason})
}

func (uc *DefaultUsecase) decide(ctx context.Context, kind domain.EntityKind, id string, target domain.ModerationStatus, tc domain.TransitionContext) (*domain.ModerationRecord, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	started := time.Now()

	record, err := uc.repo.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if record.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: %s %s is %s", domain.ErrAlreadyDecided, kind, id, record.Status)
	}

	tc.At = uc.clock.Now()
	effect, err := uc.machine.Transition(record, target, tc)
	if err != nil {
		uc.metrics.RecordDecisionError(string(kind), ErrorType(err))
		return nil, err
	}

	// The action runs before the commit. If the commit then fails the record
	// stays PENDING and a retried approval repeats the action, so actions
	// must be idempotent.
	var action func(ctx context.Context) error
	if fn, ok := uc.actions[kind]; ok && target == domain.StatusApproved {
		action = func(ctx context.Context) error { return fn(ctx, record) }
	}

	if err := uc.repo.Decide(ctx, id, domain.StatusPending, domain.DecisionOf(record), action); err != nil {
		uc.metrics.RecordDecisionError(string(kind), ErrorType(err))
		uc.logger.Warn("moderation decision not committed",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.String("target", string(target)),
			zap.Error(err),
		)
		return nil, err
	}

	uc.metrics.RecordDecision(string(kind), string(record.Status), time.Since(started).Seconds())
	uc.logger.Info("moderation decision committed",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("status", string(record.Status)),
		zap.String("operator", tc.Operator),
	)
	uc.dispatcher.Dispatch(ctx, *effect)
	return record, nil
}

func checkKind(kind domain.EntityKind) error {
	if !kind.Valid() || kind == domain.KindPromotionRequest {
		return fmt.Errorf("%w: unsupported entity kind %q", domain.ErrInvalidInput, kind)
	}
	return nil
}

// ErrorType labels err for metrics.
func ErrorType(err error) string {
	for _, known := range []struct {
		err  error
		name string
	}{
		{domain.ErrNotFound, "not_found"},
		{domain.ErrAlreadyDecided, "already_decided"},
		{domain.ErrInvalidTransition, "invalid_transition"},
		{domain.ErrMissingReason, "missing_reason"},
		{domain.ErrMissingSchedule, "missing_schedule"},
		{domain.ErrInvalidInterval, "invalid_interval"},
		{domain.ErrCapacityExceeded, "capacity_exceeded"},
		{domain.ErrDuplicate, "duplicate"},
	} {
		if errors.Is(err, known.err) {
			return known.name
		}
	}
	return "internal"
}
