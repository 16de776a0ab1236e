package request

import "github.com/shopspring/decimal"

type SubmitPromotionRequest struct {
	PurchaseID      string `json:"purchase_id"`
	GuideID         string `json:"guide_id" binding:"required"`
	TourID          string `json:"tour_id" binding:"required"`
	PromotionTypeID string `json:"promotion_type_id" binding:"required"`
	DurationDays    int    `json:"duration_days" binding:"required"`
}

type PromotionTypeRequest struct {
	Name        string          `json:"name" binding:"required"`
	DailyCost   decimal.Decimal `json:"daily_cost"`
	Description string          `json:"description"`
	TotalSlots  int             `json:"total_slots" binding:"required"`
}
