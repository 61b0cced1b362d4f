package services

import (
	"sync"
)

// orderLocks serializes mutating flows per order. Duplicate callback
// delivery and user double-clicks are expected; the lock guarantees
// at most one create/capture is in flight for any one order while the
// idempotency checks against stored state handle the second arrival.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[string]*lockEntry)}
}

// Lock blocks until the order's lock is held and returns the release func.
func (l *orderLocks) Lock(orderRef string) func() {
	l.mu.Lock()
	entry, ok := l.locks[orderRef]
	if !ok {
		entry = &lockEntry{}
		l.locks[orderRef] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orderRef)
		}
		l.mu.Unlock()
	}
}
