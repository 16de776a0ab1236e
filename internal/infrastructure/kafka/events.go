package kafka

import "time"

// NotificationEvent is published for every committed moderation decision.
// Consumers render Template for Recipient.
type NotificationEvent struct {
	EventID    string         `json:"event_id"`
	Template   string         `json:"template"`
	Recipient  string         `json:"recipient"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// PurchaseEvent is emitted by the payments service once a guide has paid
// for a promotion.
type PurchaseEvent struct {
	PurchaseID      string `json:"purchase_id"`
	GuideID         string `json:"guide_id"`
	TourID          string `json:"tour_id"`
	PromotionTypeID string `json:"promotion_type_id"`
	DurationDays    int    `json:"duration_days"`
}
