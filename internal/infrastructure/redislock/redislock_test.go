package redislock_test

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/redislock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

const lockKey = "moderation:lock:promotion-type:type-1"

func newLocker(t *testing.T, ttl time.Duration) (*redislock.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := redislock.NewClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return redislock.New(rdb, ttl, nil), mr
}

func TestLockAndRelease(t *testing.T) {
	locker, mr := newLocker(t, 5*time.Second)

	unlock, err := locker.Lock(context.Background(), "type-1")
	require.NoError(t, err)
	require.True(t, mr.Exists(lockKey))
	require.Equal(t, 5*time.Second, mr.TTL(lockKey))

	unlock()
	require.False(t, mr.Exists(lockKey))
}

func TestLockWaitsForHolder(t *testing.T) {
	locker, _ := newLocker(t, 5*time.Second)

	unlock, err := locker.Lock(context.Background(), "type-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "type-1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// other promotion types are not blocked
	unlockOther, err := locker.Lock(context.Background(), "type-2")
	require.NoError(t, err)
	unlockOther()

	acquired := make(chan func(), 1)
	go func() {
		next, err := locker.Lock(context.Background(), "type-1")
		if err == nil {
			acquired <- next
		}
	}()
	time.Sleep(50 * time.Millisecond)
	unlock()

	select {
	case next := <-acquired:
		next()
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not acquire the released lock")
	}
}

func TestLockCanceledContext(t *testing.T) {
	locker, _ := newLocker(t, 5*time.Second)

	unlock, err := locker.Lock(context.Background(), "type-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, "type-1")
	require.ErrorIs(t, err, context.Canceled)
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	locker, mr := newLocker(t, time.Second)

	stale, err := locker.Lock(context.Background(), "type-1")
	require.NoError(t, err)

	// the first holder outlives its TTL and a second instance takes over
	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists(lockKey))

	current, err := locker.Lock(context.Background(), "type-1")
	require.NoError(t, err)
	token, err := mr.Get(lockKey)
	require.NoError(t, err)

	stale()
	got, err := mr.Get(lockKey)
	require.NoError(t, err)
	require.Equal(t, token, got)

	current()
	require.False(t, mr.Exists(lockKey))
}

func TestNewClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := redislock.NewClient(ctx, addr, "", 0)
	require.Error(t, err)
}
