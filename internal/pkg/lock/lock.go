// Package lock provides per-user locking for read-modify-write sequences on a
// player's profile and equipment.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// entry is a one-slot semaphore shared by every holder and waiter of a user.
type entry struct {
	sem  chan struct{}
	refs int
}

// UserLock serializes operations per user ID. Entries are dropped once no
// goroutine holds or waits on them.
type UserLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{entries: make(map[int64]*entry)}
}

func (ul *UserLock) acquire(userID int64) *entry {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.entries[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		ul.entries[userID] = e
	}
	e.refs++
	return e
}

func (ul *UserLock) release(userID int64, e *entry) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(ul.entries, userID)
	}
}

// Lock blocks until the user's lock is held.
func (ul *UserLock) Lock(userID int64) {
	e := ul.acquire(userID)
	e.sem <- struct{}{}
}

// LockContext blocks until the user's lock is held or ctx is done.
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	e := ul.acquire(userID)
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		ul.release(userID, e)
		return fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
	}
}

// TryLock acquires the lock without blocking and reports whether it succeeded.
func (ul *UserLock) TryLock(userID int64) bool {
	e := ul.acquire(userID)
	select {
	case e.sem <- struct{}{}:
		return true
	default:
		ul.release(userID, e)
		return false
	}
}

// Unlock releases the user's lock. Unlocking a user that is not locked is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	e, ok := ul.entries[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}

	select {
	case <-e.sem:
		ul.release(userID, e)
	default:
	}
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(ctx context.Context, userID int64, fn func() error) error {
	if err := ul.LockContext(ctx, userID); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

// Len returns the number of users with a live entry.
func (ul *UserLock) Len() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.entries)
}
