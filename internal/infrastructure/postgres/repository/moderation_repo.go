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

type DefaultModerationRepository struct {
	db *gorm.DB
}

func NewDefaultModerationRepository(db *gorm.DB) *DefaultModerationRepository {
	return &DefaultModerationRepository{db: db}
}

func (r *DefaultModerationRepository) Create(ctx context.Context, record *domain.ModerationRecord) error {
	model := mappers.ToGORMModerationRecord(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	record.CreatedAt = model.CreatedAt.UTC()
	return nil
}

func (r *DefaultModerationRepository) Get(ctx context.Context, kind domain.EntityKind, id string) (*domain.ModerationRecord, error) {
	var model models.ModerationRecordModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND entity_kind = ?", id, string(kind)).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, kind, id)
	}
	if err != nil {
		return nil, err
	}
	return mappers.ToDomainModerationRecord(&model), nil
}

func (r *DefaultModerationRepository) List(ctx context.Context, kind domain.EntityKind, filter domain.ListFilter) ([]*domain.ModerationRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ModerationRecordModel{}).
		Where("entity_kind = ?", string(kind))
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	var recordModels []models.ModerationRecordModel
	if err := query.
		Order("created_at ASC").Order("id ASC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&recordModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find moderation records: %w", err)
	}

	records := make([]*domain.ModerationRecord, len(recordModels))
	for i := range recordModels {
		records[i] = mappers.ToDomainModerationRecord(&recordModels[i])
	}
	return records, total, nil
}

// Decide writes decision if the record is still in status expected and runs
// action in the same transaction. An action error rolls the write back.
func (r *DefaultModerationRepository) Decide(ctx context.Context, id string, expected domain.ModerationStatus, decision domain.Decision, action func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ModerationRecordModel{}).
			Where("id = ? AND status = ?", id, string(expected)).
			Updates(decisionColumns(decision))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return staleDecision(tx, &models.ModerationRecordModel{}, id)
		}
		if action == nil {
			return nil
		}
		return action(ctx)
	})
}

func decisionColumns(decision domain.Decision) map[string]any {
	columns := map[string]any{
		"status":           string(decision.Status),
		"rejection_reason": decision.RejectionReason,
		"decided_by":       decision.DecidedBy,
		"decided_at":       utc(decision.DecidedAt),
	}
	if decision.Interval != nil {
		columns["start_date"] = decision.Interval.Start.UTC()
		columns["end_date"] = decision.Interval.End.UTC()
	}
	return columns
}

// staleDecision tells a lost compare-and-set apart from a missing row.
func staleDecision(tx *gorm.DB, model any, id string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s", domain.ErrAlreadyDecided, id)
}

// duplicate maps a unique constraint violation to domain.ErrDuplicate.
func duplicate(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, what)
	}
	return err
}

func utc(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
