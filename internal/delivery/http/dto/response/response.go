package response

import (
	"encoding/json"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type ListResponse struct {
	Items any   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ModerationItem is the wire form of any moderated entity. Fields that do
// not apply to the entity kind are omitted.
type ModerationItem struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecidedBy       string     `json:"decided_by,omitempty"`

	SubjectID string          `json:"subject_id,omitempty"`
	OwnerID   string          `json:"owner_id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`

	GuideID         string           `json:"guide_id,omitempty"`
	TourID          string           `json:"tour_id,omitempty"`
	PromotionTypeID string           `json:"promotion_type_id,omitempty"`
	PurchaseID      string           `json:"purchase_id,omitempty"`
	DurationDays    int              `json:"duration_days,omitempty"`
	TotalCost       *decimal.Decimal `json:"total_cost,omitempty"`
	StartDate       *time.Time       `json:"start_date,omitempty"`
	EndDate         *time.Time       `json:"end_date,omitempty"`
}

func FromModerated(m domain.Moderated) ModerationItem {
	state := m.State()
	item := ModerationItem{
		ID:              state.ID,
		Kind:            string(m.Kind()),
		Status:          string(state.Status),
		RejectionReason: state.RejectionReason,
		CreatedAt:       state.CreatedAt,
		DecidedAt:       state.DecidedAt,
		DecidedBy:       state.DecidedBy,
	}

	switch e := m.(type) {
	case *domain.ModerationRecord:
		item.SubjectID = e.SubjectID
		item.OwnerID = e.OwnerID
		item.Title = e.Title
		item.Payload = e.Payload
	case *domain.PromotionRequest:
		cost := e.TotalCost
		item.GuideID = e.GuideID
		item.TourID = e.TourID
		item.PromotionTypeID = e.PromotionTypeID
		item.PurchaseID = e.PurchaseID
		item.DurationDays = e.DurationDays
		item.TotalCost = &cost
		if e.Interval != nil {
			start, end := e.Interval.Start, e.Interval.End
			item.StartDate = &start
			item.EndDate = &end
		}
	}
	return item
}

func FromModeratedList(items []domain.Moderated) []ModerationItem {
	out := make([]ModerationItem, 0, len(items))
	for _, m := range items {
		out = append(out, FromModerated(m))
	}
	return out
}

type PromotionType struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DailyCost   decimal.Decimal `json:"daily_cost"`
	Description string          `json:"description,omitempty"`
	TotalSlots  int             `json:"total_slots"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func FromPromotionType(pt *domain.PromotionType) PromotionType {
	return PromotionType{
		ID:          pt.ID,
		Name:        pt.Name,
		DailyCost:   pt.DailyCost,
		Description: pt.Description,
		TotalSlots:  pt.TotalSlots,
		Active:      pt.Active,
		CreatedAt:   pt.CreatedAt,
		UpdatedAt:   pt.UpdatedAt,
	}
}

type Availability struct {
	PromotionTypeID string    `json:"promotion_type_id"`
	AsOf            time.Time `json:"as_of"`
	AvailableSlots  int       `json:"available_slots"`
}

type Usage struct {
	PromotionTypeID string    `json:"promotion_type_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	PeakUsage       int       `json:"peak_usage"`
}
