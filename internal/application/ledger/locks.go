package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// customerLocks serializes ledger mutations per customer. The lock is held
// across accrual, allocation and reconciliation so no two operations against
// the same customer's invoice set can interleave.
type customerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the mutex for one customer and returns the unlock function.
// Entries are reference counted so the map does not grow without bound.
func (l *customerLocks) Lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &lockEntry{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
