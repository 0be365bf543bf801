package catalog

import "sync"

// keyedMutex serializes work per id. Entries are reference counted and
// dropped when the last holder unlocks, so the map only holds ids in use.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until id is free and returns the matching unlock func.
func (k *keyedMutex) Lock(id string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &refMutex{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
