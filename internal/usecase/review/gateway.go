package review

import (
	"context"
	"strings"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/moderation"
)

// PromotionScheduler is the part of promotion.Scheduler the gateway needs.
type PromotionScheduler interface {
	Get(ctx context.Context, id string) (*domain.PromotionRequest, error)
	List(ctx context.Context, filter domain.PromotionRequestFilter) ([]*domain.PromotionRequest, int64, error)
	Approve(ctx context.Context, requestID string, interval domain.Interval, operator string) (*domain.PromotionRequest, error)
	Reject(ctx context.Context, requestID, reason, operator string) (*domain.PromotionRequest, error)
	Revoke(ctx context.Context, requestID, reason, operator string) (*domain.PromotionRequest, error)
	Availability(ctx context.Context, typeID string, asOf time.Time) (int, error)
	Usage(ctx context.Context, typeID string, window domain.Interval) (int, error)
}

type ApproveInput struct {
	Operator string
	// Interval is required for promotion requests and ignored otherwise.
	Interval *domain.Interval
}

// Gateway is the single entry point of the operator console. It checks the
// operator identity and routes each entity kind to its usecase; errors are
// returned unchanged.
type Gateway struct {
	moderation moderation.Usecase
	promotions PromotionScheduler
}

func NewGateway(moderation moderation.Usecase, promotions PromotionScheduler) *Gateway {
	return &Gateway{moderation: moderation, promotions: promotions}
}

func (g *Gateway) List(ctx context.Context, operator string, kind domain.EntityKind, filter domain.ListFilter) ([]domain.Moderated, int64, error) {
	if err := authorize(operator); err != nil {
		return nil, 0, err
	}
	if kind == domain.KindPromotionRequest {
		reqs, total, err := g.promotions.List(ctx, domain.PromotionRequestFilter{ListFilter: filter})
		if err != nil {
			return nil, 0, err
		}
		items := make([]domain.Moderated, 0, len(reqs))
		for _, r := range reqs {
			items = append(items, r)
		}
		return items, total, nil
	}

	records, total, err := g.moderation.List(ctx, kind, filter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]domain.Moderated, 0, len(records))
	for _, r := range records {
		items = append(items, r)
	}
	return items, total, nil
}

func (g *Gateway) Get(ctx context.Context, operator string, kind domain.EntityKind, id string) (domain.Moderated, error) {
	if err := authorize(operator); err != nil {
		return nil, err
	}
	if kind == domain.KindPromotionRequest {
		return unwrap(g.promotions.Get(ctx, id))
	}
	return unwrap(g.moderation.Get(ctx, kind, id))
}

func (g *Gateway) Approve(ctx context.Context, kind domain.EntityKind, id string, input ApproveInput) (domain.Moderated, error) {
	if err := authorize(input.Operator); err != nil {
		return nil, err
	}
	if kind == domain.KindPromotionRequest {
		if input.Interval == nil {
			return nil, domain.ErrMissingSchedule
		}
		return unwrap(g.promotions.Approve(ctx, id, *input.Interval, input.Operator))
	}
	return unwrap(g.moderation.Approve(ctx, kind, id, input.Operator))
}

func (g *Gateway) Reject(ctx context.Context, kind domain.EntityKind, id, reason, operator string) (domain.Moderated, error) {
	if err := authorize(operator); err != nil {
		return nil, err
	}
	if kind == domain.KindPromotionRequest {
		return unwrap(g.promotions.Reject(ctx, id, reason, operator))
	}
	return unwrap(g.moderation.Reject(ctx, kind, id, reason, operator))
}

func (g *Gateway) Revoke(ctx context.Context, requestID, reason, operator string) (*domain.PromotionRequest, error) {
	if err := authorize(operator); err != nil {
		return nil, err
	}
	return g.promotions.Revoke(ctx, requestID, reason, operator)
}

func (g *Gateway) Availability(ctx context.Context, operator, typeID string, asOf time.Time) (int, error) {
	if err := authorize(operator); err != nil {
		return 0, err
	}
	return g.promotions.Availability(ctx, typeID, asOf)
}

func (g *Gateway) Usage(ctx context.Context, operator, typeID string, window domain.Interval) (int, error) {
	if err := authorize(operator); err != nil {
		return 0, err
	}
	return g.promotions.Usage(ctx, typeID, window)
}

func authorize(operator string) error {
	if strings.TrimSpace(operator) == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

// unwrap keeps a typed nil pointer from turning into a non-nil interface.
func unwrap[T domain.Moderated](entity T, err error) (domain.Moderated, error) {
	if err != nil {
		return nil, err
	}
	return entity, nil
}
