package mappers

import (
	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/models"
)

func ToDomainPromotionType(model *models.PromotionTypeModel) *domain.PromotionType {
	return &domain.PromotionType{
		ID:          model.ID,
		Name:        model.Name,
		DailyCost:   model.DailyCost,
		Description: model.Description,
		TotalSlots:  model.TotalSlots,
		Active:      model.Active,
		CreatedAt:   model.CreatedAt.UTC(),
		UpdatedAt:   model.UpdatedAt.UTC(),
	}
}

func ToGORMPromotionType(pt *domain.PromotionType) *models.PromotionTypeModel {
	return &models.PromotionTypeModel{
		ID:          pt.ID,
		Name:        pt.Name,
		DailyCost:   pt.DailyCost,
		Description: pt.Description,
		TotalSlots:  pt.TotalSlots,
		Active:      pt.Active,
		CreatedAt:   pt.CreatedAt.UTC(),
		UpdatedAt:   pt.UpdatedAt.UTC(),
	}
}

func ToDomainPromotionRequest(model *models.PromotionRequestModel) *domain.PromotionRequest {
	req := &domain.PromotionRequest{
		Moderation: domain.Moderation{
			ID:              model.ID,
			Status:          domain.ModerationStatus(model.Status),
			RejectionReason: model.RejectionReason,
			CreatedAt:       model.CreatedAt.UTC(),
			DecidedAt:       utcPtr(model.DecidedAt),
			DecidedBy:       model.DecidedBy,
		},
		GuideID:         model.GuideID,
		TourID:          model.TourID,
		PromotionTypeID: model.PromotionTypeID,
		DurationDays:    model.DurationDays,
		TotalCost:       model.TotalCost,
	}
	if model.PurchaseID != nil {
		req.PurchaseID = *model.PurchaseID
	}
	if model.StartDate != nil && model.EndDate != nil {
		interval := domain.NewInterval(*model.StartDate, *model.EndDate)
		req.Interval = &interval
	}
	return req
}

func ToGORMPromotionRequest(req *domain.PromotionRequest) *models.PromotionRequestModel {
	model := &models.PromotionRequestModel{
		ID:              req.ID,
		GuideID:         req.GuideID,
		TourID:          req.TourID,
		PromotionTypeID: req.PromotionTypeID,
		DurationDays:    req.DurationDays,
		TotalCost:       req.TotalCost,
		Status:          string(req.Status),
		RejectionReason: req.RejectionReason,
		DecidedAt:       utcPtr(req.DecidedAt),
		DecidedBy:       req.DecidedBy,
		CreatedAt:       req.CreatedAt.UTC(),
		UpdatedAt:       req.CreatedAt.UTC(),
	}
	if req.PurchaseID != "" {
		purchaseID := req.PurchaseID
		model.PurchaseID = &purchaseID
	}
	if req.Interval != nil {
		start, end := req.Interval.Start.UTC(), req.Interval.End.UTC()
		model.StartDate = &start
		model.EndDate = &end
	}
	return model
}

func ToDomainReservation(model *models.SlotReservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:              model.ID,
		PromotionTypeID: model.PromotionTypeID,
		RequestID:       model.RequestID,
		Interval:        domain.NewInterval(model.StartAt, model.EndAt),
		CreatedAt:       model.CreatedAt.UTC(),
	}
}

func ToGORMReservation(r *domain.Reservation) *models.SlotReservationModel {
	return &models.SlotReservationModel{
		ID:              r.ID,
		PromotionTypeID: r.PromotionTypeID,
		RequestID:       r.RequestID,
		StartAt:         r.Interval.Start.UTC(),
		EndAt:           r.Interval.End.UTC(),
		CreatedAt:       r.CreatedAt.UTC(),
	}
}
