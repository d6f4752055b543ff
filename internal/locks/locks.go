package locks

import (
	"context"
	"sync"
)

// Locker serializes the read-compute-write sequence for one scheduling key
// (learner or learner+question). Attempts for different keys proceed in
// parallel; two attempts on the same key never interleave.
type Locker interface {
	// Acquire blocks until the key lock is held or ctx is done. The
	// returned release func must be called exactly once.
	Acquire(ctx context.Context, key string) (func(), error)
}

// KeyedMutex is the single-process Locker. Each key maps to a one-slot
// channel semaphore; entries are dropped once the last holder releases.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.put(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-e.sem
			m.put(key, e)
		})
	}
	return release, nil
}

func (m *KeyedMutex) put(key string, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
