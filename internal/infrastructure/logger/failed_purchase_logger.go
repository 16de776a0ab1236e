package logger

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FailedPurchaseEvent records a purchase message that did not become a
// promotion request.
type FailedPurchaseEvent struct {
	ID              uint `gorm:"primaryKey"`
	MessageKey      string
	GuideID         string
	TourID          string
	PromotionTypeID string
	DurationDays    int
	Reason          string
	Timestamp       time.Time
}

func (FailedPurchaseEvent) TableName() string {
	return "failed_promotion_purchases"
}

type FailedPurchaseLogger interface {
	LogFailedPurchase(ctx context.Context, event FailedPurchaseEvent) error
}

type PGFailedPurchaseLogger struct {
	db *gorm.DB
}

func NewPGFailedPurchaseLogger(db *gorm.DB) *PGFailedPurchaseLogger {
	return &PGFailedPurchaseLogger{db: db}
}

func (l *PGFailedPurchaseLogger) LogFailedPurchase(ctx context.Context, event FailedPurchaseEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return l.db.WithContext(ctx).Create(&event).Error
}
