package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/tourhub-moderation-service/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestModerationDecideIsCompareAndSet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDefaultModerationRepository(db)
	ctx := context.Background()

	rec := &domain.ModerationRecord{
		Moderation: domain.Moderation{ID: "rec-1", Status: domain.StatusPending, CreatedAt: testutil.Date(2024, 1, 1)},
		EntityKind: domain.KindTourListing,
		SubjectID:  "tour-1",
		OwnerID:    "guide-1",
	}
	require.NoError(t, repo.Create(ctx, rec))

	at := testutil.Date(2024, 1, 2)
	decision := domain.Decision{Status: domain.StatusApproved, DecidedAt: &at, DecidedBy: "op-1"}
	require.NoError(t, repo.Decide(ctx, "rec-1", domain.StatusPending, decision, nil))

	err := repo.Decide(ctx, "rec-1", domain.StatusPending, domain.Decision{Status: domain.StatusRejected, RejectionReason: "late"}, nil)
	require.ErrorIs(t, err, domain.ErrAlreadyDecided)

	err = repo.Decide(ctx, "missing", domain.StatusPending, decision, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := repo.Get(ctx, domain.KindTourListing, "rec-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, stored.Status)
	require.Empty(t, stored.RejectionReason)
	require.True(t, at.Equal(*stored.DecidedAt))
}

func TestModerationDecideRollsBackOnActionError(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDefaultModerationRepository(db)
	ctx := context.Background()

	rec := &domain.ModerationRecord{
		Moderation: domain.Moderation{ID: "rec-1", Status: domain.StatusPending},
		EntityKind: domain.KindDeletionRequest,
		SubjectID:  "account-1",
	}
	require.NoError(t, repo.Create(ctx, rec))

	actionErr := errors.New("accounts unavailable")
	err := repo.Decide(ctx, "rec-1", domain.StatusPending, domain.Decision{Status: domain.StatusApproved}, func(context.Context) error {
		return actionErr
	})
	require.ErrorIs(t, err, actionErr)

	stored, err := repo.Get(ctx, domain.KindDeletionRequest, "rec-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, stored.Status)
}

func TestPromotionRequestDecideAndExpire(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDefaultPromotionRequestRepository(db)
	ctx := context.Background()

	for _, id := range []string{"req-1", "req-2"} {
		require.NoError(t, repo.Create(ctx, &domain.PromotionRequest{
			Moderation:      domain.Moderation{ID: id, Status: domain.StatusPending},
			GuideID:         "guide-1",
			TourID:          "tour-1",
			PromotionTypeID: "type-1",
			DurationDays:    9,
			TotalCost:       decimal.RequireFromString("90.00"),
		}))
	}

	interval := domain.NewInterval(testutil.Date(2024, 1, 1), testutil.Date(2024, 1, 10))
	require.NoError(t, repo.Decide(ctx, "req-1", domain.StatusPending, domain.Decision{
		Status:    domain.StatusApproved,
		Interval:  &interval,
		DecidedBy: "op-1",
	}))
	err := repo.Decide(ctx, "req-1", domain.StatusPending, domain.Decision{Status: domain.StatusRejected, RejectionReason: "x"})
	require.ErrorIs(t, err, domain.ErrAlreadyDecided)

	stored, err := repo.Get(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, stored.Status)
	require.NotNil(t, stored.Interval)
	require.True(t, interval.Start.Equal(stored.Interval.Start))
	require.True(t, interval.End.Equal(stored.Interval.End))
	require.True(t, decimal.NewFromInt(90).Equal(stored.TotalCost))

	marked, err := repo.MarkEndedBy(ctx, testutil.Date(2024, 1, 9))
	require.NoError(t, err)
	require.Zero(t, marked)

	marked, err = repo.MarkEndedBy(ctx, testutil.Date(2024, 1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 1, marked)

	stored, err = repo.Get(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusExpired, stored.Status)
	pending, err := repo.Get(ctx, "req-2")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, pending.Status)

	approved := domain.StatusExpired
	items, total, err := repo.List(ctx, domain.PromotionRequestFilter{
		ListFilter: domain.ListFilter{Status: &approved, Page: 1, Limit: 10},
		GuideID:    "guide-1",
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "req-1", items[0].ID)
}

func TestReservationStoreQueries(t *testing.T) {
	db := testutil.NewTestDB(t)
	types := repository.NewDefaultPromotionTypeRepository(db)
	store := repository.NewDefaultReservationStore(db)
	ctx := context.Background()

	require.NoError(t, types.Create(ctx, &domain.PromotionType{ID: "type-1", Name: "Banner", TotalSlots: 2, Active: true}))

	day := func(d int) time.Time { return testutil.Date(2024, 1, d) }
	for _, r := range []*domain.Reservation{
		{ID: "res-a", PromotionTypeID: "type-1", RequestID: "req-a", Interval: domain.NewInterval(day(1), day(10))},
		{ID: "res-b", PromotionTypeID: "type-1", RequestID: "req-b", Interval: domain.NewInterval(day(10), day(15))},
		{ID: "res-c", PromotionTypeID: "type-2", RequestID: "req-c", Interval: domain.NewInterval(day(1), day(5))},
	} {
		require.NoError(t, store.Create(ctx, r))
	}

	overlapping, err := store.ListOverlapping(ctx, "type-1", domain.NewInterval(day(5), day(10)))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	require.Equal(t, "res-a", overlapping[0].ID)

	overlapping, err = store.ListOverlapping(ctx, "type-1", domain.NewInterval(day(9), day(11)))
	require.NoError(t, err)
	require.Len(t, overlapping, 2)

	ended, err := store.ListEndedBy(ctx, day(10))
	require.NoError(t, err)
	require.Len(t, ended, 2)

	_, err = store.GetByRequest(ctx, "req-x")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = store.WithTypeLock(ctx, "type-1", func(pt *domain.PromotionType, tx domain.ReservationStore) error {
		require.Equal(t, 2, pt.TotalSlots)
		removed, err := tx.DeleteByRequest(ctx, "req-a")
		require.EqualValues(t, 1, removed)
		return err
	})
	require.NoError(t, err)

	rollback := errors.New("abort")
	err = store.WithTypeLock(ctx, "type-1", func(_ *domain.PromotionType, tx domain.ReservationStore) error {
		if _, err := tx.DeleteByIDs(ctx, []string{"res-b"}); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	remaining, err := store.ListByType(ctx, "type-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "res-b", remaining[0].ID)

	err = store.WithTypeLock(ctx, "missing", func(*domain.PromotionType, domain.ReservationStore) error { return nil })
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromotionTypeUpdateMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	types := repository.NewDefaultPromotionTypeRepository(db)

	err := types.Update(context.Background(), &domain.PromotionType{ID: "missing", Name: "X", TotalSlots: 1})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromotionTypeNameIsUnique(t *testing.T) {
	db := testutil.NewTestDB(t)
	types := repository.NewDefaultPromotionTypeRepository(db)
	ctx := context.Background()

	require.NoError(t, types.Create(ctx, &domain.PromotionType{ID: "type-1", Name: "Banner", TotalSlots: 1, Active: true}))
	require.NoError(t, types.Create(ctx, &domain.PromotionType{ID: "type-2", Name: "Spotlight", TotalSlots: 1, Active: true}))

	err := types.Create(ctx, &domain.PromotionType{ID: "type-3", Name: "Banner", TotalSlots: 1, Active: true})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	err = types.Update(ctx, &domain.PromotionType{ID: "type-2", Name: "Banner", TotalSlots: 1, Active: true})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	found, err := types.GetByName(ctx, "Banner")
	require.NoError(t, err)
	require.Equal(t, "type-1", found.ID)

	_, err = types.GetByName(ctx, "Carousel")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromotionRequestPurchaseIsUnique(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewDefaultPromotionRequestRepository(db)
	ctx := context.Background()

	newRequest := func(id, purchaseID string) *domain.PromotionRequest {
		return &domain.PromotionRequest{
			Moderation:      domain.Moderation{ID: id, Status: domain.StatusPending},
			GuideID:         "guide-1",
			TourID:          "tour-1",
			PromotionTypeID: "type-1",
			DurationDays:    3,
			TotalCost:       decimal.RequireFromString("30.00"),
			PurchaseID:      purchaseID,
		}
	}

	require.NoError(t, repo.Create(ctx, newRequest("req-1", "purchase-1")))
	err := repo.Create(ctx, newRequest("req-2", "purchase-1"))
	require.ErrorIs(t, err, domain.ErrDuplicate)

	// Requests without a purchase do not collide with each other.
	require.NoError(t, repo.Create(ctx, newRequest("req-3", "")))
	require.NoError(t, repo.Create(ctx, newRequest("req-4", "")))

	found, err := repo.GetByPurchase(ctx, "purchase-1")
	require.NoError(t, err)
	require.Equal(t, "req-1", found.ID)
	require.Equal(t, "purchase-1", found.PurchaseID)

	_, err = repo.GetByPurchase(ctx, "purchase-2")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
