package engine

import "sync"

// keyedLock provides one exclusive critical section per bet id. Entries are
// refcounted and removed when the last holder releases, so the map does not
// grow with the number of bets ever touched.
type keyedLock struct {
	mu      sync.Mutex
	entries map[uint64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{entries: make(map[uint64]*lockEntry)}
}

func (k *keyedLock) lock(id uint64) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &lockEntry{}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedLock) unlock(id uint64) {
	k.mu.Lock()
	e := k.entries[id]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
