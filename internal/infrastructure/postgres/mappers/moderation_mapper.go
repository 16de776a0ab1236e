package mappers

import (
	"encoding/json"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/models"
	"gorm.io/datatypes"
)

func ToDomainModerationRecord(model *models.ModerationRecordModel) *domain.ModerationRecord {
	return &domain.ModerationRecord{
		Moderation: domain.Moderation{
			ID:              model.ID,
			Status:          domain.ModerationStatus(model.Status),
			RejectionReason: model.RejectionReason,
			CreatedAt:       model.CreatedAt.UTC(),
			DecidedAt:       utcPtr(model.DecidedAt),
			DecidedBy:       model.DecidedBy,
		},
		EntityKind: domain.EntityKind(model.EntityKind),
		SubjectID:  model.SubjectID,
		OwnerID:    model.OwnerID,
		Title:      model.Title,
		Payload:    json.RawMessage(model.Payload),
	}
}

func ToGORMModerationRecord(record *domain.ModerationRecord) *models.ModerationRecordModel {
	return &models.ModerationRecordModel{
		ID:              record.ID,
		EntityKind:      string(record.EntityKind),
		Status:          string(record.Status),
		SubjectID:       record.SubjectID,
		OwnerID:         record.OwnerID,
		Title:           record.Title,
		Payload:         datatypes.JSON(record.Payload),
		RejectionReason: record.RejectionReason,
		DecidedAt:       utcPtr(record.DecidedAt),
		DecidedBy:       record.DecidedBy,
		CreatedAt:       record.CreatedAt.UTC(),
		UpdatedAt:       record.CreatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
