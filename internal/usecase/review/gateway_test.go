package review_test

import (
	"context"
	"testing"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/tourhub-moderation-service/internal/testutil"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/moderation"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/promotion"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/review"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/slots"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type gatewayFixture struct {
	gateway   *review.Gateway
	records   *moderation.DefaultUsecase
	scheduler *promotion.Scheduler
	typeID    string
}

func newGateway(t *testing.T) *gatewayFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := testutil.NewClock(testutil.Date(2023, 12, 31))
	types := repository.NewDefaultPromotionTypeRepository(db)

	records, err := moderation.NewDefaultUsecase(repository.NewDefaultModerationRepository(db), nil, moderation.WithClock(clock))
	require.NoError(t, err)

	ledger := slots.NewLedger(repository.NewDefaultReservationStore(db), types, slots.WithClock(clock))
	scheduler, err := promotion.NewScheduler(repository.NewDefaultPromotionRequestRepository(db), types, ledger, nil, promotion.WithClock(clock))
	require.NoError(t, err)

	pt, err := promotion.NewCatalogue(types, clock, nil).Create(context.Background(), promotion.PromotionTypeInput{
		Name:       "Homepage banner",
		DailyCost:  decimal.NewFromInt(10),
		TotalSlots: 1,
	})
	require.NoError(t, err)

	return &gatewayFixture{
		gateway:   review.NewGateway(records, scheduler),
		records:   records,
		scheduler: scheduler,
		typeID:    pt.ID,
	}
}

func (f *gatewayFixture) submitPromotion(t *testing.T) *domain.PromotionRequest {
	t.Helper()
	req, err := f.scheduler.Submit(context.Background(), promotion.SubmitInput{
		GuideID: "guide-1", TourID: "tour-1", PromotionTypeID: f.typeID, DurationDays: 9,
	})
	require.NoError(t, err)
	return req
}

func TestGatewayRequiresOperator(t *testing.T) {
	f := newGateway(t)
	ctx := context.Background()
	interval := domain.NewInterval(testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 10))

	_, _, err := f.gateway.List(ctx, "", domain.KindTourListing, domain.ListFilter{})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.gateway.Get(ctx, " ", domain.KindTourListing, "x")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.gateway.Approve(ctx, domain.KindPromotionRequest, "x", review.ApproveInput{Interval: &interval})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.gateway.Reject(ctx, domain.KindTourListing, "x", "reason", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.gateway.Revoke(ctx, "x", "reason", "")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.gateway.Availability(ctx, "", f.typeID, testutil.Date(2024, 1, 1))
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.gateway.Usage(ctx, "", f.typeID, interval)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGatewayRoutesRecords(t *testing.T) {
	f := newGateway(t)
	ctx := context.Background()

	rec, err := f.records.Submit(ctx, moderation.SubmitInput{Kind: domain.KindGuideApplication, SubjectID: "guide-9"})
	require.NoError(t, err)

	items, total, err := f.gateway.List(ctx, "op-1", domain.KindGuideApplication, domain.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, rec.ID, items[0].State().ID)

	approved, err := f.gateway.Approve(ctx, domain.KindGuideApplication, rec.ID, review.ApproveInput{Operator: "op-1"})
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, approved.State().Status)

	got, err := f.gateway.Get(ctx, "op-1", domain.KindGuideApplication, rec.ID)
	require.NoError(t, err)
	require.Equal(t, domain.KindGuideApplication, got.Kind())
	require.Equal(t, "op-1", got.State().DecidedBy)
}

func TestGatewayNotFoundIsNilInterface(t *testing.T) {
	f := newGateway(t)

	got, err := f.gateway.Get(context.Background(), "op-1", domain.KindPromotionRequest, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Nil(t, got)
}

func TestGatewayRoutesPromotions(t *testing.T) {
	f := newGateway(t)
	ctx := context.Background()
	req := f.submitPromotion(t)

	_, err := f.gateway.Approve(ctx, domain.KindPromotionRequest, req.ID, review.ApproveInput{Operator: "op-1"})
	require.ErrorIs(t, err, domain.ErrMissingSchedule)

	interval := domain.NewInterval(testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 10))
	approved, err := f.gateway.Approve(ctx, domain.KindPromotionRequest, req.ID, review.ApproveInput{Operator: "op-1", Interval: &interval})
	require.NoError(t, err)
	require.Equal(t, interval, *approved.Schedule())

	items, total, err := f.gateway.List(ctx, "op-1", domain.KindPromotionRequest, domain.ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, domain.KindPromotionRequest, items[0].Kind())

	free, err := f.gateway.Availability(ctx, "op-1", f.typeID, testutil.Date(2024, 1, 5))
	require.NoError(t, err)
	require.Equal(t, 0, free)

	usage, err := f.gateway.Usage(ctx, "op-1", f.typeID, interval)
	require.NoError(t, err)
	require.Equal(t, 1, usage)

	revoked, err := f.gateway.Revoke(ctx, req.ID, "fraud", "op-2")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, revoked.Status)
}

func TestGatewayRejectPromotion(t *testing.T) {
	f := newGateway(t)
	ctx := context.Background()
	req := f.submitPromotion(t)

	_, err := f.gateway.Reject(ctx, domain.KindPromotionRequest, req.ID, "", "op-1")
	require.ErrorIs(t, err, domain.ErrMissingReason)

	rejected, err := f.gateway.Reject(ctx, domain.KindPromotionRequest, req.ID, "duplicate purchase", "op-1")
	require.NoError(t, err)
	require.Equal(t, "duplicate purchase", rejected.State().RejectionReason)
}
