package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/delivery/http/dto/request"
	"github.com/LavaJover/tourhub-moderation-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/moderation"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/review"
	"github.com/gin-gonic/gin"
)

// ReviewGateway is the operator-facing surface of review.Gateway.
type ReviewGateway interface {
	List(ctx context.Context, operator string, kind domain.EntityKind, filter domain.ListFilter) ([]domain.Moderated, int64, error)
	Get(ctx context.Context, operator string, kind domain.EntityKind, id string) (domain.Moderated, error)
	Approve(ctx context.Context, kind domain.EntityKind, id string, input review.ApproveInput) (domain.Moderated, error)
	Reject(ctx context.Context, kind domain.EntityKind, id, reason, operator string) (domain.Moderated, error)
	Revoke(ctx context.Context, requestID, reason, operator string) (*domain.PromotionRequest, error)
	Availability(ctx context.Context, operator, typeID string, asOf time.Time) (int, error)
	Usage(ctx context.Context, operator, typeID string, window domain.Interval) (int, error)
}

type RecordSubmitter interface {
	Submit(ctx context.Context, input moderation.SubmitInput) (*domain.ModerationRecord, error)
}

type ModerationHandler struct {
	gateway ReviewGateway
	records RecordSubmitter
}

func NewModerationHandler(gateway ReviewGateway, records RecordSubmitter) *ModerationHandler {
	return &ModerationHandler{gateway: gateway, records: records}
}

func (h *ModerationHandler) List(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		writeError(c, err)
		return
	}
	filter, err := parseListFilter(c)
	if err != nil {
		writeError(c, err)
		return
	}

	items, total, err := h.gateway.List(c.Request.Context(), operatorOf(c), kind, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.ListResponse{
		Items: response.FromModeratedList(items),
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

func (h *ModerationHandler) Get(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		writeError(c, err)
		return
	}
	item, err := h.gateway.Get(c.Request.Context(), operatorOf(c), kind, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromModerated(item))
}

func (h *ModerationHandler) Submit(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req request.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	record, err := h.records.Submit(c.Request.Context(), moderation.SubmitInput{
		Kind:      kind,
		SubjectID: req.SubjectID,
		OwnerID:   req.OwnerID,
		Title:     req.Title,
		Payload:   req.Payload,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromModerated(record))
}

func (h *ModerationHandler) Approve(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		writeError(c, err)
		return
	}

	input := review.ApproveInput{Operator: operatorOf(c)}
	if kind.RequiresSchedule() {
		var req request.ApproveRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
			return
		}
		if req.StartDate != "" || req.EndDate != "" {
			interval, err := parseInterval(req.StartDate, req.EndDate)
			if err != nil {
				writeError(c, err)
				return
			}
			input.Interval = &interval
		}
	}

	item, err := h.gateway.Approve(c.Request.Context(), kind, c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromModerated(item))
}

func (h *ModerationHandler) Reject(c *gin.Context) {
	kind, err := parseKind(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var req request.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}

	item, err := h.gateway.Reject(c.Request.Context(), kind, c.Param("id"), req.Reason, operatorOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromModerated(item))
}
