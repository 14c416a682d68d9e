package mutex

import (
	"context"
	"sync"

	"github.com/jzx17/juiceplant/pkg/types"
)

// BlockingMutex is a mutual exclusion lock built from an occupied flag and a
// condition variable. Waiters block in cond.Wait instead of spinning; Release
// wakes every waiter and each one re-checks the flag before taking it.
//
// The zero value is not usable, create instances with New.
type BlockingMutex struct {
	mu   sync.Mutex
	cond *sync.Cond

	occupied bool

	// statistics, guarded by mu
	acquisitions int64
	contended    int64
	wakeups      int64
	waiting      int
}

// New creates an unoccupied BlockingMutex
func New() *BlockingMutex {
	m := &BlockingMutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Acquire blocks until the mutex is free and then marks it occupied.
// Every wake-up re-checks the flag, so a woken waiter that loses the race
// simply goes back to waiting.
func (m *BlockingMutex) Acquire() {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.acquireLocked(context.Background())
}

// AcquireContext is like Acquire but stops waiting once ctx is done.
// It returns an error matching types.ErrInterrupted and ctx.Err() in that case,
// and the mutex is left untouched. A context that is already done fails
// immediately, and so does a waiter that wakes up after cancellation.
func (m *BlockingMutex) AcquireContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return types.Interrupted(err)
	}

	// wake all waiters on cancellation so they observe ctx.Err()
	stop := context.AfterFunc(ctx, func() {
		m.mu.Lock()
		m.cond.Broadcast()
		m.mu.Unlock()
	})
	defer stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.acquireLocked(ctx)
}

// acquireLocked must be called with m.mu held
func (m *BlockingMutex) acquireLocked(ctx context.Context) error {
	waited := false
	for m.occupied {
		if err := ctx.Err(); err != nil {
			return types.Interrupted(err)
		}
		waited = true
		m.waiting++
		m.cond.Wait()
		m.waiting--
		m.wakeups++
	}
	// a waiter woken after cancellation gives up even if the flag is free
	if waited {
		if err := ctx.Err(); err != nil {
			return types.Interrupted(err)
		}
	}

	m.occupied = true
	m.acquisitions++
	if waited {
		m.contended++
	}
	return nil
}

// TryAcquire takes the mutex if it is free and reports whether it did
func (m *BlockingMutex) TryAcquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.occupied {
		return false
	}
	m.occupied = true
	m.acquisitions++
	return true
}

// Release frees the mutex and wakes all waiters.
// Releasing a mutex that is not occupied is a programming error and panics.
func (m *BlockingMutex) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.occupied {
		panic("mutex: release of unoccupied BlockingMutex")
	}
	m.occupied = false
	m.cond.Broadcast()
}

// Occupied reports whether the mutex is currently held
func (m *BlockingMutex) Occupied() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.occupied
}

// Stats returns a snapshot of the mutex statistics
func (m *BlockingMutex) Stats() types.MutexStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return types.MutexStats{
		Acquisitions: m.acquisitions,
		Contended:    m.contended,
		Wakeups:      m.wakeups,
		Waiting:      m.waiting,
		Occupied:     m.occupied,
	}
}
