package background

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/kafka"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/logger"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/promotion"
	"go.uber.org/zap"
)

type PurchaseSubmitter interface {
	Submit(ctx context.Context, input promotion.SubmitInput) (*domain.PromotionRequest, error)
}

// PurchaseConsumer turns purchase events into pending promotion requests.
// Events that cannot be submitted are recorded and skipped.
type PurchaseConsumer struct {
	subscriber domain.SubscriberPort
	topic      string
	groupID    string
	submitter  PurchaseSubmitter
	failures   logger.FailedPurchaseLogger
	logger     *zap.Logger
}

func NewPurchaseConsumer(
	subscriber domain.SubscriberPort,
	topic, groupID string,
	submitter PurchaseSubmitter,
	failures logger.FailedPurchaseLogger,
	log *zap.Logger,
) *PurchaseConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseConsumer{
		subscriber: subscriber,
		topic:      topic,
		groupID:    groupID,
		submitter:  submitter,
		failures:   failures,
		logger:     log,
	}
}

func (pc *PurchaseConsumer) Run(ctx context.Context) error {
	messages, err := pc.subscriber.Subscribe(ctx, pc.topic, pc.groupID)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", pc.topic, err)
	}
	pc.logger.Info("purchase consumer started", zap.String("topic", pc.topic), zap.String("group_id", pc.groupID))

	for msg := range messages {
		if err := pc.Handle(ctx, msg); err != nil {
			pc.logger.Warn("purchase event skipped", zap.ByteString("key", msg.Key), zap.Error(err))
		}
	}
	return ctx.Err()
}

// Handle submits one purchase event.
func (pc *PurchaseConsumer) Handle(ctx context.Context, msg domain.Message) error {
	var event kafka.PurchaseEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		pc.recordFailure(ctx, msg, event, err)
		return fmt.Errorf("decode purchase event: %w", err)
	}

	req, err := pc.submitter.Submit(ctx, promotion.SubmitInput{
		PurchaseID:      event.PurchaseID,
		GuideID:         event.GuideID,
		TourID:          event.TourID,
		PromotionTypeID: event.PromotionTypeID,
		DurationDays:    event.DurationDays,
	})
	if err != nil {
		pc.recordFailure(ctx, msg, event, err)
		return err
	}

	pc.logger.Info("promotion purchase queued for review",
		zap.String("purchase_id", event.PurchaseID),
		zap.String("request_id", req.ID),
	)
	return nil
}

func (pc *PurchaseConsumer) recordFailure(ctx context.Context, msg domain.Message, event kafka.PurchaseEvent, cause error) {
	if pc.failures == nil {
		return
	}
	err := pc.failures.LogFailedPurchase(ctx, logger.FailedPurchaseEvent{
		MessageKey:      string(msg.Key),
		GuideID:         event.GuideID,
		TourID:          event.TourID,
		PromotionTypeID: event.PromotionTypeID,
		DurationDays:    event.DurationDays,
		Reason:          cause.Error(),
	})
	if err != nil {
		pc.logger.Error("failed to record rejected purchase", zap.Error(err))
	}
}
