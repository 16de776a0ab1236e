package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultPromotionTypeRepository struct {
	db *gorm.DB
}

func NewDefaultPromotionTypeRepository(db *gorm.DB) *DefaultPromotionTypeRepository {
	return &DefaultPromotionTypeRepository{db: db}
}

func (r *DefaultPromotionTypeRepository) Create(ctx context.Context, pt *domain.PromotionType) error {
	err := r.db.WithContext(ctx).Create(mappers.ToGORMPromotionType(pt)).Error
	return duplicate(err, "promotion type "+pt.Name)
}

func (r *DefaultPromotionTypeRepository) Update(ctx context.Context, pt *domain.PromotionType) error {
	res := r.db.WithContext(ctx).Model(&models.PromotionTypeModel{}).
		Where("id = ?", pt.ID).
		Updates(map[string]any{
			"name":        pt.Name,
			"daily_cost":  pt.DailyCost,
			"description": pt.Description,
			"total_slots": pt.TotalSlots,
			"active":      pt.Active,
			"updated_at":  pt.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return duplicate(res.Error, "promotion type "+pt.Name)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: promotion type %s", domain.ErrNotFound, pt.ID)
	}
	return nil
}

func (r *DefaultPromotionTypeRepository) Get(ctx context.Context, id string) (*domain.PromotionType, error) {
	var model models.PromotionTypeModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: promotion type %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainPromotionType(&model), nil
}

func (r *DefaultPromotionTypeRepository) GetByName(ctx context.Context, name string) (*domain.PromotionType, error) {
	var model models.PromotionTypeModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: promotion type %q", domain.ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainPromotionType(&model), nil
}

func (r *DefaultPromotionTypeRepository) List(ctx context.Context, includeInactive bool) ([]*domain.PromotionType, error) {
	query := r.db.WithContext(ctx).Model(&models.PromotionTypeModel{})
	if !includeInactive {
		query = query.Where("active = ?", true)
	}

	var typeModels []models.PromotionTypeModel
	if err := query.Order("name ASC").Find(&typeModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find promotion types: %w", err)
	}

	types := make([]*domain.PromotionType, len(typeModels))
	for i := range typeModels {
		types[i] = mappers.ToDomainPromotionType(&typeModels[i])
	}
	return types, nil
}
