package session

import "sync"

// Locks hands out one mutex per session id so concurrent requests from the
// same browser apply their read-modify-write cycles one at a time.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*lockEntry)}
}

// Lock acquires the lock for id and returns its release function
func (l *Locks) Lock(id string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of ids currently locked or waiting
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
