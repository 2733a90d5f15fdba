package guide

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes operations per guide ID. The store offers no
// cross-entity transactions, so two interleaved lifecycle operations on
// the same guide could corrupt the stock/status pairing; holding the
// guide's lock for the whole operation rules that out in-process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*lockEntry)}
}

// Lock acquires the lock for the given key, blocking until available
func (k *keyedMutex) Lock(key uuid.UUID) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock releases the lock for the given key and drops the entry once no
// waiter remains
func (k *keyedMutex) Unlock(key uuid.UUID) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if ok {
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
	}
	k.mu.Unlock()

	if ok {
		entry.mu.Unlock()
	}
}
