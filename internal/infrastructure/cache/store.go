package cache

import (
	"hash/fnv"
	"sync"
)

// DefaultShardCount is used when NewStore is given a non-positive count.
const DefaultShardCount = 32

// Store is a concurrent in-process key-value map. Keys are spread over
// independently locked shards, so operations on different keys rarely
// contend and every operation on a single key is atomic.
type Store[V any] struct {
	shards []*shard[V]
}

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

// NewStore creates a store with shardCount shards.
func NewStore[V any](shardCount int) *Store[V] {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	s := &Store[V]{shards: make([]*shard[V], shardCount)}
	for i := range s.shards {
		s.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return s
}

func (s *Store[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

// Get returns the value stored under key.
func (s *Store[V]) Get(key string) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.items[key]
	return v, ok
}

// Put stores value under key, replacing any previous value.
func (s *Store[V]) Put(key string, value V) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.items[key] = value
	sh.mu.Unlock()
}

// Remove deletes key and returns the value it held. Only one of several
// concurrent callers removing the same key observes ok == true.
func (s *Store[V]) Remove(key string) (V, bool) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.items[key]
	if ok {
		delete(sh.items, key)
	}
	return v, ok
}

// Update applies fn to the current value of key while holding the key's lock.
// fn returns the new value and whether to keep it; returning false deletes the key.
func (s *Store[V]) Update(key string, fn func(current V, exists bool) (V, bool)) V {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	current, exists := sh.items[key]
	next, keep := fn(current, exists)
	if keep {
		sh.items[key] = next
	} else {
		delete(sh.items, key)
	}
	return next
}

// Range calls fn for every entry until fn returns false. Each shard is read
// locked while it is visited; fn must not modify the store.
func (s *Store[V]) Range(fn func(key string, value V) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.items {
			if !fn(k, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// Len returns the number of entries.
func (s *Store[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}
