package handlers

import (
	"sync"

	"github.com/google/uuid"
)

// ownerLocks hands out one mutex per user. Entries are dropped once no
// request holds or waits on them.
type ownerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*ownerLock
}

type ownerLock struct {
	sync.Mutex
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{locks: make(map[uuid.UUID]*ownerLock)}
}

// lock blocks until id's mutex is held and returns its release func.
func (l *ownerLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	ol, ok := l.locks[id]
	if !ok {
		ol = &ownerLock{}
		l.locks[id] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return func() {
		ol.Unlock()
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *ownerLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
