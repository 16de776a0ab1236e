package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PromotionTypeInput struct {
	Name        string
	DailyCost   decimal.Decimal
	Description string
	TotalSlots  int
}

// Catalogue manages the promotion types guides can buy. Types are never
// hard-deleted because requests and reservations reference them.
type Catalogue struct {
	types  domain.PromotionTypeRepository
	clock  domain.Clock
	logger *zap.Logger
}

func NewCatalogue(types domain.PromotionTypeRepository, clock domain.Clock, logger *zap.Logger) *Catalogue {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalogue{types: types, clock: clock, logger: logger}
}

func (c *Catalogue) Create(ctx context.Context, input PromotionTypeInput) (*domain.PromotionType, error) {
	if err := validateType(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if err := c.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}
	now := c.clock.Now()
	pt := &domain.PromotionType{
		ID:          uuid.NewString(),
		Name:        name,
		DailyCost:   input.DailyCost,
		Description: input.Description,
		TotalSlots:  input.TotalSlots,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.types.Create(ctx, pt); err != nil {
		return nil, fmt.Errorf("create promotion type: %w", err)
	}
	c.logger.Info("promotion type created",
		zap.String("promotion_type_id", pt.ID),
		zap.String("name", pt.Name),
		zap.Int("total_slots", pt.TotalSlots),
	)
	return pt, nil
}

// Update changes the attributes of a type. Lowering TotalSlots below the
// current usage keeps existing reservations; only new ones are refused.
func (c *Catalogue) Update(ctx context.Context, id string, input PromotionTypeInput) (*domain.PromotionType, error) {
	if err := validateType(input); err != nil {
		return nil, err
	}
	pt, err := c.types.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if err := c.ensureNameFree(ctx, name, pt.ID); err != nil {
		return nil, err
	}
	pt.Name = name
	pt.DailyCost = input.DailyCost
	pt.Description = input.Description
	pt.TotalSlots = input.TotalSlots
	pt.UpdatedAt = c.clock.Now()
	if err := c.types.Update(ctx, pt); err != nil {
		return nil, fmt.Errorf("update promotion type: %w", err)
	}
	c.logger.Info("promotion type updated",
		zap.String("promotion_type_id", pt.ID),
		zap.Int("total_slots", pt.TotalSlots),
	)
	return pt, nil
}

// Deactivate hides the type from new purchases. Pending requests of the
// type can still be decided.
func (c *Catalogue) Deactivate(ctx context.Context, id string) (*domain.PromotionType, error) {
	pt, err := c.types.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !pt.Active {
		return pt, nil
	}
	pt.Active = false
	pt.UpdatedAt = c.clock.Now()
	if err := c.types.Update(ctx, pt); err != nil {
		return nil, fmt.Errorf("deactivate promotion type: %w", err)
	}
	c.logger.Info("promotion type deactivated", zap.String("promotion_type_id", pt.ID))
	return pt, nil
}

func (c *Catalogue) Get(ctx context.Context, id string) (*domain.PromotionType, error) {
	return c.types.Get(ctx, id)
}

func (c *Catalogue) List(ctx context.Context, includeInactive bool) ([]*domain.PromotionType, error) {
	return c.types.List(ctx, includeInactive)
}

// ensureNameFree fails with ErrDuplicate when another type already uses
// name. The unique index on the name column settles concurrent writers.
func (c *Catalogue) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := c.types.GetByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return fmt.Errorf("%w: promotion type %q", domain.ErrDuplicate, name)
}

func validateType(input PromotionTypeInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if input.TotalSlots < 1 {
		return fmt.Errorf("%w: total slots must be at least 1", domain.ErrInvalidInput)
	}
	if input.DailyCost.IsNegative() {
		return fmt.Errorf("%w: daily cost must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
