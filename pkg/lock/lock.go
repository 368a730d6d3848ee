// Package lock defines per-key mutual exclusion for lifecycle operations
// that mutate one transaction code.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a lock could not be acquired in time.
var ErrTimeout = errors.New("lock acquisition timed out")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker serializes work per key. Lock blocks until the key is free, ctx is
// done or the implementation's wait bound elapses.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// With runs fn while holding key.
func With(ctx context.Context, l Locker, key string, fn func() error) error {
	unlock, err := l.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}
