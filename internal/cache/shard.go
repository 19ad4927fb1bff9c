package cache

import (
	"hash/fnv"
	"sync"
)

const shardCount = 32

// shardedMap is a string-keyed map split across shardCount locks so that
// operations on unrelated keys don't contend. Mutations for a single key
// always land on the same shard, which is what gives the per-key atomicity
// of update and getOrCreate.
type shardedMap[V any] struct {
	shards [shardCount]mapShard[V]
}

type mapShard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

func newShardedMap[V any]() *shardedMap[V] {
	sm := &shardedMap[V]{}
	for i := range sm.shards {
		sm.shards[i].m = make(map[string]V)
	}
	return sm
}

func (sm *shardedMap[V]) shardFor(key string) *mapShard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &sm.shards[h.Sum32()%shardCount]
}

func (sm *shardedMap[V]) get(key string) (V, bool) {
	s := sm.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	return v, ok
}

func (sm *shardedMap[V]) set(key string, v V) {
	s := sm.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = v
}

// update applies fn to the current value for key under the shard's write
// lock. fn receives the existing value (ok reports presence) and returns the
// value to store; returning an error leaves the map untouched.
func (sm *shardedMap[V]) update(key string, fn func(v V, ok bool) (V, error)) error {
	s := sm.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.m[key], presence(s.m, key))
	if err != nil {
		return err
	}
	s.m[key] = next

	return nil
}

// getOrCreate returns the value for key, storing the result of newV first if
// the key is absent. Concurrent callers for the same key get the same value.
func (sm *shardedMap[V]) getOrCreate(key string, newV func() V) V {
	s := sm.shardFor(key)

	s.mu.RLock()
	v, ok := s.m[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[key]; ok {
		return v
	}
	v = newV()
	s.m[key] = v

	return v
}

func presence[V any](m map[string]V, key string) bool {
	_, ok := m[key]
	return ok
}
