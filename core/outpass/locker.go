package outpass

import "sync"

// keyedMutex hands out one mutex per outpass id. Entries are dropped once nobody holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until the lock for id is held and returns its release func.
func (km *keyedMutex) Lock(id string) (unlock func()) {
	km.mu.Lock()
	l, ok := km.locks[id]
	if !ok {
		l = new(refLock)
		km.locks[id] = l
	}
	l.refs++
	km.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		km.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(km.locks, id)
		}
		km.mu.Unlock()
	}
}
