package diary

import "sync"

// locker hands out one mutex per key. Fetch and save of the same date
// serialize on it; different dates never contend.
type locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLocker() *locker {
	return &locker{locks: make(map[string]*sync.Mutex)}
}

func (l *locker) lock(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
