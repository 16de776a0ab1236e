package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/LavaJover/tourhub-moderation-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/tourhub-moderation-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/promotion"
	"github.com/gin-gonic/gin"
)

type PurchaseSubmitter interface {
	Submit(ctx context.Context, input promotion.SubmitInput) (*domain.PromotionRequest, error)
}

type PromotionCatalogue interface {
	Create(ctx context.Context, input promotion.PromotionTypeInput) (*domain.PromotionType, error)
	Update(ctx context.Context, id string, input promotion.PromotionTypeInput) (*domain.PromotionType, error)
	Deactivate(ctx context.Context, id string) (*domain.PromotionType, error)
	Get(ctx context.Context, id string) (*domain.PromotionType, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.PromotionType, error)
}

type PromotionHandler struct {
	gateway   ReviewGateway
	purchases PurchaseSubmitter
	catalogue PromotionCatalogue
	clock     domain.Clock
}

func NewPromotionHandler(gateway ReviewGateway, purchases PurchaseSubmitter, catalogue PromotionCatalogue, clock domain.Clock) *PromotionHandler {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &PromotionHandler{gateway: gateway, purchases: purchases, catalogue: catalogue, clock: clock}
}

func (h *PromotionHandler) SubmitRequest(c *gin.Context) {
	var req request.SubmitPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	created, err := h.purchases.Submit(c.Request.Context(), promotion.SubmitInput{
		PurchaseID:      req.PurchaseID,
		GuideID:         req.GuideID,
		TourID:          req.TourID,
		PromotionTypeID: req.PromotionTypeID,
		DurationDays:    req.DurationDays,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromModerated(created))
}

func (h *PromotionHandler) RevokeRequest(c *gin.Context) {
	var req request.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	revoked, err := h.gateway.Revoke(c.Request.Context(), c.Param("id"), req.Reason, operatorOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromModerated(revoked))
}

func (h *PromotionHandler) ListTypes(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	types, err := h.catalogue.List(c.Request.Context(), includeInactive)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]response.PromotionType, 0, len(types))
	for _, pt := range types {
		items = append(items, response.FromPromotionType(pt))
	}
	c.JSON(http.StatusOK, items)
}

func (h *PromotionHandler) GetType(c *gin.Context) {
	pt, err := h.catalogue.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPromotionType(pt))
}

func (h *PromotionHandler) CreateType(c *gin.Context) {
	input, ok := bindTypeInput(c)
	if !ok {
		return
	}
	pt, err := h.catalogue.Create(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromPromotionType(pt))
}

func (h *PromotionHandler) UpdateType(c *gin.Context) {
	input, ok := bindTypeInput(c)
	if !ok {
		return
	}
	pt, err := h.catalogue.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPromotionType(pt))
}

func (h *PromotionHandler) DeactivateType(c *gin.Context) {
	pt, err := h.catalogue.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromPromotionType(pt))
}

// Availability reports free slots at as_of, or the peak usage between start
// and end when both are given.
func (h *PromotionHandler) Availability(c *gin.Context) {
	typeID := c.Param("id")
	if start, end := c.Query("start"), c.Query("end"); start != "" || end != "" {
		window, err := parseInterval(start, end)
		if err != nil {
			writeError(c, err)
			return
		}
		peak, err := h.gateway.Usage(c.Request.Context(), operatorOf(c), typeID, window)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Usage{
			PromotionTypeID: typeID,
			Start:           window.Start,
			End:             window.End,
			PeakUsage:       peak,
		})
		return
	}

	asOf := h.clock.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseTime(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		asOf = parsed
	}
	free, err := h.gateway.Availability(c.Request.Context(), operatorOf(c), typeID, asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Availability{
		PromotionTypeID: typeID,
		AsOf:            asOf,
		AvailableSlots:  free,
	})
}

func bindTypeInput(c *gin.Context) (promotion.PromotionTypeInput, bool) {
	var req request.PromotionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return promotion.PromotionTypeInput{}, false
	}
	return promotion.PromotionTypeInput{
		Name:        req.Name,
		DailyCost:   req.DailyCost,
		Description: req.Description,
		TotalSlots:  req.TotalSlots,
	}, true
}
