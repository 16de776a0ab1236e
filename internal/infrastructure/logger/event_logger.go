package logger

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DecisionEvent is one row of the moderation audit trail.
type DecisionEvent struct {
	ID         uint   `gorm:"primaryKey"`
	EntityKind string `gorm:"index"`
	EntityID   string `gorm:"index"`
	Template   string
	Recipient  string
	Payload    datatypes.JSON
	Timestamp  time.Time
}

func (DecisionEvent) TableName() string {
	return "moderation_decision_events"
}

type DecisionEventLogger interface {
	LogDecision(ctx context.Context, event DecisionEvent) error
}

type PGDecisionEventLogger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPGDecisionEventLogger(db *gorm.DB, logger *zap.Logger) *PGDecisionEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGDecisionEventLogger{db: db, logger: logger}
}

func (l *PGDecisionEventLogger) LogDecision(ctx context.Context, event DecisionEvent) error {
	return l.db.WithContext(ctx).Create(&event).Error
}

// Dispatch records the effect of a committed decision. Failures are logged
// and never reach the caller.
func (l *PGDecisionEventLogger) Dispatch(ctx context.Context, effect domain.Effect) {
	payload, err := json.Marshal(effect.Payload)
	if err != nil {
		l.logger.Warn("failed to encode decision payload", zap.String("entity_id", effect.EntityID), zap.Error(err))
		payload = nil
	}
	event := DecisionEvent{
		EntityKind: string(effect.Kind),
		EntityID:   effect.EntityID,
		Template:   string(effect.Template),
		Recipient:  effect.Recipient,
		Payload:    datatypes.JSON(payload),
		Timestamp:  time.Now().UTC(),
	}
	if err := l.LogDecision(context.WithoutCancel(ctx), event); err != nil {
		l.logger.Error("failed to write decision event",
			zap.String("entity_id", effect.EntityID),
			zap.String("template", event.Template),
			zap.Error(err),
		)
	}
}
