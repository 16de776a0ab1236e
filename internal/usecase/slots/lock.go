package slots

import (
	"context"
	"sync"
)

// Locker serializes writers of one promotion type. Lock must give up when
// ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker with one channel semaphore per key.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]chan struct{})}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	sem, ok := k.slots[key]
	if !ok {
		sem = make(chan struct{}, 1)
		k.slots[key] = sem
	}
	k.mu.Unlock()

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// chain acquires lockers in order and releases them in reverse.
func chain(ctx context.Context, key string, lockers []Locker) (func(), error) {
	unlocks := make([]func(), 0, len(lockers))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range lockers {
		unlock, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}
