package store

import (
	"sync"

	"voxelfog.ai/internal/sim/world/logic/mathx"
)

const defaultShards = 64

// ShardedMap is a concurrent map from chunk coordinate to V. Each shard has
// its own RWMutex, so lookups for different chunks rarely contend.
type ShardedMap[V any] struct {
	shards []shard[V]
}

type shard[V any] struct {
	mu sync.RWMutex
	m  map[ChunkCoord]V
}

func NewShardedMap[V any](n int) *ShardedMap[V] {
	if n <= 0 {
		n = defaultShards
	}
	s := &ShardedMap[V]{shards: make([]shard[V], n)}
	for i := range s.shards {
		s.shards[i].m = map[ChunkCoord]V{}
	}
	return s
}

func (s *ShardedMap[V]) shardFor(k ChunkCoord) *shard[V] {
	h := mathx.Hash3(0, k.X, k.Y, k.Z)
	return &s.shards[h%uint64(len(s.shards))]
}

func (s *ShardedMap[V]) Load(k ChunkCoord) (V, bool) {
	sh := s.shardFor(k)
	sh.mu.RLock()
	v, ok := sh.m[k]
	sh.mu.RUnlock()
	return v, ok
}

// LoadOrStore returns the existing value for k if present; otherwise it stores
// and returns v. loaded reports whether v was discarded.
func (s *ShardedMap[V]) LoadOrStore(k ChunkCoord, v V) (actual V, loaded bool) {
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cur, ok := sh.m[k]; ok {
		return cur, true
	}
	sh.m[k] = v
	return v, false
}

// Range calls fn for every entry until fn returns false. Shards are visited
// one at a time under their read lock; fn must not write to the map.
func (s *ShardedMap[V]) Range(fn func(k ChunkCoord, v V) bool) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k, v := range sh.m {
			if !fn(k, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

func (s *ShardedMap[V]) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}
