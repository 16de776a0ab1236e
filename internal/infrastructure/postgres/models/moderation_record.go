package models

import (
	"time"

	"gorm.io/datatypes"
)

type ModerationRecordModel struct {
	ID              string `gorm:"primaryKey"`
	EntityKind      string `gorm:"index:idx_moderation_kind_status,priority:1;not null"`
	Status          string `gorm:"index:idx_moderation_kind_status,priority:2;not null"`
	SubjectID       string `gorm:"index;not null"`
	OwnerID         string
	Title           string
	Payload         datatypes.JSON
	RejectionReason string
	DecidedAt       *time.Time
	DecidedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ModerationRecordModel) TableName() string {
	return "moderation_records"
}
