package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultPromotionRequestRepository struct {
	db *gorm.DB
}

func NewDefaultPromotionRequestRepository(db *gorm.DB) *DefaultPromotionRequestRepository {
	return &DefaultPromotionRequestRepository{db: db}
}

func (r *DefaultPromotionRequestRepository) Create(ctx context.Context, req *domain.PromotionRequest) error {
	model := mappers.ToGORMPromotionRequest(req)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return duplicate(err, "promotion request for purchase "+req.PurchaseID)
	}
	req.CreatedAt = model.CreatedAt.UTC()
	return nil
}

func (r *DefaultPromotionRequestRepository) Get(ctx context.Context, id string) (*domain.PromotionRequest, error) {
	var model models.PromotionRequestModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: promotion request %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainPromotionRequest(&model), nil
}

func (r *DefaultPromotionRequestRepository) GetByPurchase(ctx context.Context, purchaseID string) (*domain.PromotionRequest, error) {
	var model models.PromotionRequestModel
	err := r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: promotion request for purchase %s", domain.ErrNotFound, purchaseID)
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainPromotionRequest(&model), nil
}

func (r *DefaultPromotionRequestRepository) List(ctx context.Context, filter domain.PromotionRequestFilter) ([]*domain.PromotionRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PromotionRequestModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.PromotionTypeID != "" {
		query = query.Where("promotion_type_id = ?", filter.PromotionTypeID)
	}
	if filter.GuideID != "" {
		query = query.Where("guide_id = ?", filter.GuideID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	var requestModels []models.PromotionRequestModel
	if err := query.
		Order("created_at ASC").Order("id ASC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&requestModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find promotion requests: %w", err)
	}

	requests := make([]*domain.PromotionRequest, len(requestModels))
	for i := range requestModels {
		requests[i] = mappers.ToDomainPromotionRequest(&requestModels[i])
	}
	return requests, total, nil
}

func (r *DefaultPromotionRequestRepository) Decide(ctx context.Context, id string, expected domain.ModerationStatus, decision domain.Decision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PromotionRequestModel{}).
			Where("id = ? AND status = ?", id, string(expected)).
			Updates(decisionColumns(decision))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleDecision(tx, &models.PromotionRequestModel{}, id)
		}
		return nil
	})
}

// MarkEndedBy expires approved requests by their stored end date, so it
// also catches requests whose reservation is already gone.
func (r *DefaultPromotionRequestRepository) MarkEndedBy(ctx context.Context, asOf time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PromotionRequestModel{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", string(domain.StatusApproved), asOf.UTC()).
		Update("status", string(domain.StatusExpired))
	return res.RowsAffected, res.Error
}
