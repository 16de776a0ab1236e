package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/metrics"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/moderation"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/slots"
	"github.com/jaevor/go-nanoid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SubmitInput struct {
	// PurchaseID makes Submit idempotent: a repeated purchase returns the
	// request created the first time.
	PurchaseID      string
	GuideID         string
	TourID          string
	PromotionTypeID string
	DurationDays    int
}

// Scheduler is the only writer combining promotion request transitions with
// slot ledger mutations. A failed transition never leaves a reservation
// behind.
type Scheduler struct {
	requests   domain.PromotionRequestRepository
	types      domain.PromotionTypeRepository
	ledger     *slots.Ledger
	machine    *moderation.StateMachine
	dispatcher domain.Dispatcher
	clock      domain.Clock
	metrics    *metrics.ModerationMetrics
	logger     *zap.Logger
	newID      func() string
}

type Option func(*Scheduler)

func WithClock(clock domain.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func WithMetrics(m *metrics.ModerationMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

func NewScheduler(
	requests domain.PromotionRequestRepository,
	types domain.PromotionTypeRepository,
	ledger *slots.Ledger,
	dispatcher domain.Dispatcher,
	opts ...Option,
) (*Scheduler, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		requests:   requests,
		types:      types,
		ledger:     ledger,
		machine:    moderation.NewStateMachine(),
		dispatcher: dispatcher,
		clock:      domain.SystemClock{},
		logger:     zap.NewNop(),
		newID:      idGenerator,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = domain.NopDispatcher{}
	}
	return s, nil
}

// Submit records a purchased promotion as a pending request. The total cost
// is fixed here and never recomputed.
func (s *Scheduler) Submit(ctx context.Context, input SubmitInput) (*domain.PromotionRequest, error) {
	if input.PurchaseID != "" {
		existing, err := s.requests.GetByPurchase(ctx, input.PurchaseID)
		if err == nil {
			s.logger.Info("purchase already submitted",
				zap.String("purchase_id", input.PurchaseID),
				zap.String("request_id", existing.ID),
			)
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	if strings.TrimSpace(input.GuideID) == "" || strings.TrimSpace(input.TourID) == "" {
		return nil, fmt.Errorf("%w: guide id and tour id are required", domain.ErrInvalidInput)
	}
	if input.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidInput)
	}
	pt, err := s.types.Get(ctx, input.PromotionTypeID)
	if err != nil {
		return nil, err
	}
	if !pt.Active {
		return nil, fmt.Errorf("%w: %s", domain.ErrInactiveType, pt.Name)
	}

	req := &domain.PromotionRequest{
		Moderation: domain.Moderation{
			ID:        s.newID(),
			Status:    domain.StatusPending,
			CreatedAt: s.clock.Now(),
		},
		GuideID:         input.GuideID,
		TourID:          input.TourID,
		PromotionTypeID: pt.ID,
		DurationDays:    input.DurationDays,
		TotalCost:       pt.DailyCost.Mul(decimal.NewFromInt(int64(input.DurationDays))),
		PurchaseID:      input.PurchaseID,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		// A concurrent delivery of the same purchase won the insert.
		if errors.Is(err, domain.ErrDuplicate) && input.PurchaseID != "" {
			return s.requests.GetByPurchase(ctx, input.PurchaseID)
		}
		return nil, fmt.Errorf("create promotion request: %w", err)
	}

	s.logger.Info("promotion request submitted",
		zap.String("request_id", req.ID),
		zap.String("promotion_type_id", pt.ID),
		zap.String("guide_id", req.GuideID),
		zap.String("total_cost", req.TotalCost.String()),
	)
	return req, nil
}

func (s *Scheduler) Get(ctx context.Context, id string) (*domain.PromotionRequest, error) {
	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.machine.Expire(req, s.clock.Now())
	return req, nil
}

// List reconciles first so that a status filter sees ended promotions as
// EXPIRED rather than APPROVED.
func (s *Scheduler) List(ctx context.Context, filter domain.PromotionRequestFilter) ([]*domain.PromotionRequest, int64, error) {
	if _, err := s.ReconcileExpired(ctx, s.clock.Now()); err != nil {
		return nil, 0, err
	}
	filter.ListFilter = filter.ListFilter.Normalize()
	reqs, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	now := s.clock.Now()
	for _, req := range reqs {
		s.machine.Expire(req, now)
	}
	return reqs, total, nil
}

// Approve reserves a slot over interval and then approves the request. If
// the approval cannot be committed the reservation is released again.
func (s *Scheduler) Approve(ctx context.Context, requestID string, interval domain.Interval, operator string) (*domain.PromotionRequest, error) {
	started := time.Now()
	req, err := s.loadPending(ctx, requestID)
	if err != nil {
		return nil, s.fail(err)
	}

	now := s.clock.Now()
	if !interval.Valid() {
		return nil, s.fail(fmt.Errorf("%w: end must be after start", domain.ErrInvalidInterval))
	}
	if interval.Start.Before(domain.StartOfDay(now)) {
		return nil, s.fail(fmt.Errorf("%w: start %s is in the past", domain.ErrInvalidInterval, interval.Start.Format(time.DateOnly)))
	}

	if _, err := s.ledger.Reserve(ctx, req.PromotionTypeID, req.ID, interval); err != nil {
		return nil, s.fail(err)
	}

	approved, err := s.commitApproval(ctx, req, interval, operator, now)
	if err != nil {
		if releaseErr := s.ledger.Release(context.WithoutCancel(ctx), req.ID); releaseErr != nil {
			s.logger.Error("failed to roll back reservation",
				zap.String("request_id", req.ID),
				zap.Error(releaseErr),
			)
		}
		return nil, s.fail(err)
	}

	s.metrics.RecordDecision(string(domain.KindPromotionRequest), string(domain.StatusApproved), time.Since(started).Seconds())
	return approved, nil
}

func (s *Scheduler) commitApproval(ctx context.Context, req *domain.PromotionRequest, interval domain.Interval, operator string, now time.Time) (*domain.PromotionRequest, error) {
	effect, err := s.machine.Transition(req, domain.StatusApproved, domain.TransitionContext{
		Interval: &interval,
		Operator: operator,
		At:       now,
	})
	if err != nil {
		return nil, err
	}
	if err := s.requests.Decide(ctx, req.ID, domain.StatusPending, domain.DecisionOf(req)); err != nil {
		return nil, err
	}

	s.logger.Info("promotion request approved",
		zap.String("request_id", req.ID),
		zap.String("promotion_type_id", req.PromotionTypeID),
		zap.String("operator", operator),
	)
	s.dispatcher.Dispatch(ctx, *effect)
	return req, nil
}

// Reject declines a pending request. Pending requests hold no reservation,
// so the ledger is not touched.
func (s *Scheduler) Reject(ctx context.Context, requestID, reason, operator string) (*domain.PromotionRequest, error) {
	started := time.Now()
	req, err := s.loadPending(ctx, requestID)
	if err != nil {
		return nil, s.fail(err)
	}

	effect, err := s.machine.Transition(req, domain.StatusRejected, domain.TransitionContext{
		Reason:   reason,
		Operator: operator,
		At:       s.clock.Now(),
	})
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.requests.Decide(ctx, req.ID, domain.StatusPending, domain.DecisionOf(req)); err != nil {
		return nil, s.fail(err)
	}

	s.metrics.RecordDecision(string(domain.KindPromotionRequest), string(domain.StatusRejected), time.Since(started).Seconds())
	s.logger.Info("promotion request rejected",
		zap.String("request_id", req.ID),
		zap.String("operator", operator),
	)
	s.dispatcher.Dispatch(ctx, *effect)
	return req, nil
}

// Revoke withdraws an approved, still running promotion and frees its slot.
func (s *Scheduler) Revoke(ctx context.Context, requestID, reason, operator string) (*domain.PromotionRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, s.fail(err)
	}
	now := s.clock.Now()
	if s.machine.Expire(req, now) {
		return nil, s.fail(fmt.Errorf("%w: request %s has expired", domain.ErrAlreadyDecided, requestID))
	}

	effect, err := s.machine.Revoke(req, domain.TransitionContext{
		Reason:   reason,
		Operator: operator,
		At:       now,
	})
	if err != nil {
		return nil, s.fail(err)
	}
	if err := s.requests.Decide(ctx, req.ID, domain.StatusApproved, domain.DecisionOf(req)); err != nil {
		return nil, s.fail(err)
	}
	if err := s.ledger.Release(ctx, req.ID); err != nil {
		// The request is already rejected; the next reconcile or revoke
		// retry removes the orphaned reservation.
		s.logger.Error("failed to release revoked reservation",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
	}

	s.metrics.RecordDecision(string(domain.KindPromotionRequest), "REVOKED", 0)
	s.logger.Info("promotion request revoked",
		zap.String("request_id", req.ID),
		zap.String("operator", operator),
	)
	s.dispatcher.Dispatch(ctx, *effect)
	return req, nil
}

// ReconcileExpired drops reservations that ended by asOf and marks every
// approved request that ended by asOf expired. It returns the requests whose
// reservation was dropped.
func (s *Scheduler) ReconcileExpired(ctx context.Context, asOf time.Time) ([]string, error) {
	requestIDs, err := s.ledger.ExpireStale(ctx, asOf)
	if err != nil {
		return nil, err
	}
	marked, err := s.requests.MarkEndedBy(ctx, asOf)
	if err != nil {
		return requestIDs, fmt.Errorf("mark requests expired: %w", err)
	}
	if len(requestIDs) == 0 && marked == 0 {
		return nil, nil
	}
	s.logger.Info("expired promotions reconciled",
		zap.Int("reservations", len(requestIDs)),
		zap.Int64("requests", marked),
		zap.Time("as_of", asOf),
	)
	return requestIDs, nil
}

// Availability reconciles expired reservations and then reports the free
// slots of typeID at asOf.
func (s *Scheduler) Availability(ctx context.Context, typeID string, asOf time.Time) (int, error) {
	if _, err := s.ReconcileExpired(ctx, s.clock.Now()); err != nil {
		return 0, err
	}
	return s.ledger.AvailableSlots(ctx, typeID, asOf)
}

// Usage reports the peak concurrent reservations of typeID inside window.
func (s *Scheduler) Usage(ctx context.Context, typeID string, window domain.Interval) (int, error) {
	if _, err := s.ReconcileExpired(ctx, s.clock.Now()); err != nil {
		return 0, err
	}
	return s.ledger.Usage(ctx, typeID, window)
}

func (s *Scheduler) loadPending(ctx context.Context, requestID string) (*domain.PromotionRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: promotion request %s is %s", domain.ErrAlreadyDecided, requestID, req.Status)
	}
	return req, nil
}

func (s *Scheduler) fail(err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		s.metrics.RecordDecisionError(string(domain.KindPromotionRequest), moderation.ErrorType(err))
	}
	return err
}
