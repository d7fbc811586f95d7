package services

import "sync"

// keyedMutex serializes work per key (event ID or poll ID). The capacity
// gate's count-then-admit sequence and the poll engine's activate/vote paths
// run under the key's mutex so concurrent requests for the same entity cannot
// interleave between the read and the write.
//
// Entries are never evicted; the map is bounded by the number of distinct
// events and polls seen by this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock locks the mutex for key and returns it; the caller must Unlock it.
func (km *keyedMutex) Lock(key string) *sync.Mutex {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &sync.Mutex{}
		km.locks[key] = l
	}
	km.mu.Unlock()
	l.Lock()
	return l
}
