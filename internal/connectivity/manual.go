// Package connectivity reports whether the remote store is reachable.
package connectivity

import "sync"

// broadcaster fans state transitions out to subscribers without blocking.
type broadcaster struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	nextID int
}

func (b *broadcaster) Online() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.online
}

func (b *broadcaster) Subscribe() (<-chan bool, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan bool)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan bool, 1)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// set records the state and reports whether it changed.
func (b *broadcaster) set(online bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.online == online {
		return false
	}
	b.online = online
	for _, ch := range b.subs {
		// Keep only the latest state for a slow subscriber
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- online:
		default:
		}
	}
	return true
}

// Manual is a monitor whose state is set by the caller.
type Manual struct {
	broadcaster
}

// NewManual creates a monitor in the given initial state.
func NewManual(online bool) *Manual {
	m := &Manual{}
	m.online = online
	return m
}

// Set changes the state, notifying subscribers on a transition.
func (m *Manual) Set(online bool) {
	m.set(online)
}
