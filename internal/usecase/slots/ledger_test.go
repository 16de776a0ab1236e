package slots_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/tourhub-moderation-service/internal/testutil"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/slots"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return testutil.Date(2024, 1, d)
}

func span(from, to int) domain.Interval {
	return domain.NewInterval(day(from), day(to))
}

func reservation(id string, interval domain.Interval) *domain.Reservation {
	return &domain.Reservation{ID: id, PromotionTypeID: "type-1", RequestID: "req-" + id, Interval: interval}
}

func TestPeakUsage(t *testing.T) {
	reservations := []*domain.Reservation{
		reservation("a", span(1, 10)),
		reservation("b", span(5, 15)),
		reservation("c", span(10, 20)),
		reservation("d", span(25, 30)),
	}

	tests := []struct {
		name   string
		window domain.Interval
		want   int
	}{
		{"two overlap inside", span(1, 31), 2},
		{"single reservation", span(1, 5), 1},
		{"back to back do not stack", span(10, 11), 2},
		{"gap", span(20, 25), 0},
		{"window before all", domain.NewInterval(day(1).AddDate(0, -1, 0), day(1)), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slots.PeakUsage(reservations, tt.window))
		})
	}
}

func TestPeakUsageHalfOpen(t *testing.T) {
	reservations := []*domain.Reservation{
		reservation("a", span(1, 10)),
		reservation("b", span(10, 15)),
	}
	assert.Equal(t, 1, slots.PeakUsage(reservations, span(1, 15)))
	assert.True(t, slots.HasCapacity(1, reservations[:1], span(10, 15)))
	assert.False(t, slots.HasCapacity(1, reservations[:1], span(9, 15)))
}

type ledgerFixture struct {
	ledger *slots.Ledger
	store  *repository.DefaultReservationStore
	types  *repository.DefaultPromotionTypeRepository
}

func newLedger(t *testing.T, totalSlots int) *ledgerFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := repository.NewDefaultReservationStore(db)
	types := repository.NewDefaultPromotionTypeRepository(db)
	require.NoError(t, types.Create(context.Background(), &domain.PromotionType{
		ID:         "type-1",
		Name:       "Homepage banner",
		DailyCost:  decimal.NewFromInt(10),
		TotalSlots: totalSlots,
		Active:     true,
	}))
	return &ledgerFixture{
		ledger: slots.NewLedger(store, types, slots.WithClock(testutil.NewClock(day(1)))),
		store:  store,
		types:  types,
	}
}

func TestReserveRespectsCapacity(t *testing.T) {
	f := newLedger(t, 1)
	ctx := context.Background()

	r, err := f.ledger.Reserve(ctx, "type-1", "req-a", span(1, 10))
	require.NoError(t, err)
	require.Equal(t, "req-a", r.RequestID)

	_, err = f.ledger.Reserve(ctx, "type-1", "req-b", span(5, 15))
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)

	_, err = f.ledger.Reserve(ctx, "type-1", "req-c", span(10, 15))
	require.NoError(t, err)

	free, err := f.ledger.AvailableSlots(ctx, "type-1", day(5))
	require.NoError(t, err)
	require.Equal(t, 0, free)

	free, err = f.ledger.AvailableSlots(ctx, "type-1", day(20))
	require.NoError(t, err)
	require.Equal(t, 1, free)
}

func TestReserveRejectsInvalidInput(t *testing.T) {
	f := newLedger(t, 1)
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, "type-1", "req-a", span(10, 10))
	require.ErrorIs(t, err, domain.ErrInvalidInterval)

	_, err = f.ledger.Reserve(ctx, "missing", "req-a", span(1, 10))
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ledger.Reserve(ctx, "type-1", "req-a", span(1, 3))
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, "type-1", "req-a", span(20, 25))
	require.ErrorIs(t, err, domain.ErrAlreadyDecided)
}

func TestReserveConcurrent(t *testing.T) {
	const totalSlots = 3
	f := newLedger(t, totalSlots)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.ledger.Reserve(ctx, "type-1", fmt.Sprintf("req-%d", i), span(1+i%3, 10+i%3))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, totalSlots, ok)
	require.Equal(t, 12-totalSlots, full)

	usage, err := f.ledger.Usage(ctx, "type-1", span(1, 31))
	require.NoError(t, err)
	require.Equal(t, totalSlots, usage)
}

func TestRelease(t *testing.T) {
	f := newLedger(t, 1)
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, "type-1", "req-a", span(1, 10))
	require.NoError(t, err)

	require.NoError(t, f.ledger.Release(ctx, "req-a"))
	require.NoError(t, f.ledger.Release(ctx, "req-a"))
	require.NoError(t, f.ledger.Release(ctx, "unknown"))

	_, err = f.ledger.Reserve(ctx, "type-1", "req-b", span(5, 15))
	require.NoError(t, err)
}

func TestExpireStale(t *testing.T) {
	f := newLedger(t, 2)
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, "type-1", "req-a", span(1, 10))
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, "type-1", "req-b", span(5, 15))
	require.NoError(t, err)

	expired, err := f.ledger.ExpireStale(ctx, day(9))
	require.NoError(t, err)
	require.Empty(t, expired)

	expired, err = f.ledger.ExpireStale(ctx, day(10))
	require.NoError(t, err)
	require.Equal(t, []string{"req-a"}, expired)

	remaining, err := f.store.ListByType(ctx, "type-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "req-b", remaining[0].RequestID)

	expired, err = f.ledger.ExpireStale(ctx, day(10))
	require.NoError(t, err)
	require.Empty(t, expired)
}

func TestAvailableSlotsClampsAfterCapacityCut(t *testing.T) {
	f := newLedger(t, 2)
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, "type-1", "req-a", span(1, 10))
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, "type-1", "req-b", span(1, 10))
	require.NoError(t, err)

	pt, err := f.types.Get(ctx, "type-1")
	require.NoError(t, err)
	pt.TotalSlots = 1
	require.NoError(t, f.types.Update(ctx, pt))

	free, err := f.ledger.AvailableSlots(ctx, "type-1", day(5))
	require.NoError(t, err)
	require.Equal(t, 0, free)

	_, err = f.ledger.Reserve(ctx, "type-1", "req-c", span(5, 6))
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestUsage(t *testing.T) {
	f := newLedger(t, 2)
	ctx := context.Background()

	_, err := f.ledger.Usage(ctx, "type-1", span(10, 1))
	require.ErrorIs(t, err, domain.ErrInvalidInterval)
	_, err = f.ledger.Usage(ctx, "missing", span(1, 10))
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ledger.Reserve(ctx, "type-1", "req-a", span(1, 10))
	require.NoError(t, err)
	_, err = f.ledger.Reserve(ctx, "type-1", "req-b", span(8, 12))
	require.NoError(t, err)

	usage, err := f.ledger.Usage(ctx, "type-1", span(1, 8))
	require.NoError(t, err)
	require.Equal(t, 1, usage)

	usage, err = f.ledger.Usage(ctx, "type-1", span(1, 31))
	require.NoError(t, err)
	require.Equal(t, 2, usage)
}

type countingLocker struct {
	mu    sync.Mutex
	calls int
}

func (c *countingLocker) Lock(context.Context, string) (func(), error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return func() {}, nil
}

func TestExtraLockerIsAcquired(t *testing.T) {
	db := testutil.NewTestDB(t)
	types := repository.NewDefaultPromotionTypeRepository(db)
	require.NoError(t, types.Create(context.Background(), &domain.PromotionType{ID: "type-1", Name: "Banner", TotalSlots: 1, Active: true}))

	locker := &countingLocker{}
	ledger := slots.NewLedger(repository.NewDefaultReservationStore(db), types, slots.WithLocker(locker))

	_, err := ledger.Reserve(context.Background(), "type-1", "req-a", span(1, 10))
	require.NoError(t, err)
	require.NoError(t, ledger.Release(context.Background(), "req-a"))
	require.Equal(t, 2, locker.calls)
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	km := slots.NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), "type-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "type-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := km.Lock(context.Background(), "type-2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := km.Lock(context.Background(), "type-1")
	require.NoError(t, err)
	again()
}
