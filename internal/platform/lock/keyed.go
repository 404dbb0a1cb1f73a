// Package lock provides per-key mutual exclusion. The mutation gateway uses
// it to serialize writes against the same record while letting writes to
// different records proceed in parallel.
package lock

import "sync"

// KeyedMutex hands out one mutex per key. Mutexes are created on first use
// and retained; key cardinality here is bounded by the number of records.
type KeyedMutex struct {
	mu    sync.RWMutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (k *KeyedMutex) get(key string) *sync.Mutex {
	k.mu.RLock()
	m, ok := k.locks[key]
	k.mu.RUnlock()
	if ok {
		return m
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	// Double-check after acquiring write lock
	if m, ok := k.locks[key]; ok {
		return m
	}
	m = &sync.Mutex{}
	k.locks[key] = m
	return m
}

// Lock acquires the mutex for key, blocking until it is available.
func (k *KeyedMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the mutex for key.
func (k *KeyedMutex) Unlock(key string) {
	k.get(key).Unlock()
}
