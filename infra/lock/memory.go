// Package lock provides the in-process and Redis implementations of
// lock.Locker.
package lock

import (
	"context"
	"sync"

	"github.com/amirasaad/escrow/pkg/lock"
)

// MemoryLocker keeps one single-slot channel per key. Channels make the wait
// cancellable, which sync.Mutex is not.
type MemoryLocker struct {
	slots sync.Map // key -> chan struct{}
}

// NewMemoryLocker returns a locker scoped to this process.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{}
}

func (m *MemoryLocker) slot(key string) chan struct{} {
	v, _ := m.slots.LoadOrStore(key, make(chan struct{}, 1))
	return v.(chan struct{})
}

// Lock implements lock.Locker.
func (m *MemoryLocker) Lock(ctx context.Context, key string) (lock.Unlock, error) {
	ch := m.slot(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}

var _ lock.Locker = (*MemoryLocker)(nil)
