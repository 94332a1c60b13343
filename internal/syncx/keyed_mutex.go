// Package syncx holds small concurrency primitives shared by the server.
package syncx

import (
	"context"
	"sync"
)

// KeyedMutex serializes work per key. Different keys never block each other.
// Entries are reference counted and dropped once no goroutine holds or waits
// on them, so the map only grows with the number of busy keys.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	slot chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*keyedLock),
	}
}

// Lock blocks until the key is free or ctx is done. The returned release
// func is safe to call more than once.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{slot: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		k.release(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			k.release(key, entry)
		})
	}, nil
}

// TryLock acquires the key only if nobody holds it.
func (k *KeyedMutex) TryLock(key string) (func(), bool) {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{slot: make(chan struct{}, 1)}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	select {
	case entry.slot <- struct{}{}:
	default:
		k.release(key, entry)
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.slot
			k.release(key, entry)
		})
	}, true
}

// Len reports how many keys are currently held or awaited.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyedMutex) release(key string, entry *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry.refs--
	if entry.refs == 0 && k.locks[key] == entry {
		delete(k.locks, key)
	}
}
