package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PromotionTypeModel struct {
	ID          string          `gorm:"primaryKey"`
	Name        string          `gorm:"uniqueIndex;not null"`
	DailyCost   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Description string
	TotalSlots  int  `gorm:"not null"`
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PromotionTypeModel) TableName() string {
	return "promotion_types"
}

type PromotionRequestModel struct {
	ID              string          `gorm:"primaryKey"`
	GuideID         string          `gorm:"index;not null"`
	TourID          string          `gorm:"not null"`
	PromotionTypeID string          `gorm:"index;not null"`
	PurchaseID      *string         `gorm:"uniqueIndex"`
	DurationDays    int             `gorm:"not null"`
	TotalCost       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status          string          `gorm:"index;not null"`
	RejectionReason string
	StartDate       *time.Time
	EndDate         *time.Time
	DecidedAt       *time.Time
	DecidedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PromotionRequestModel) TableName() string {
	return "promotion_requests"
}

// SlotReservationModel is one occupied slot of a promotion type over the
// half-open range [StartAt, EndAt).
type SlotReservationModel struct {
	ID              string    `gorm:"primaryKey"`
	PromotionTypeID string    `gorm:"index:idx_reservation_type_range,priority:1;not null"`
	RequestID       string    `gorm:"uniqueIndex;not null"`
	StartAt         time.Time `gorm:"index:idx_reservation_type_range,priority:2;not null"`
	EndAt           time.Time `gorm:"index:idx_reservation_type_range,priority:3;index;not null"`
	CreatedAt       time.Time
}

func (SlotReservationModel) TableName() string {
	return "slot_reservations"
}
