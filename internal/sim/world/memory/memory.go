// Package memory records every tile an observer has ever seen.
//
// Memory chunks use the same centered coordinate scheme as the terrain chunk
// store but hold only a bitmap. Cells only ever go from false to true.
package memory

import (
	"sync"
	"sync/atomic"

	"voxelfog.ai/internal/sim/world/fov"
	"voxelfog.ai/internal/sim/world/logic/mathx"
	"voxelfog.ai/internal/sim/world/terrain/store"
)

type chunk struct {
	mu        sync.RWMutex
	memorized []bool
}

type MapMemory struct {
	size   int
	chunks *store.ShardedMap[*chunk]
	count  atomic.Int64
}

func New(chunkSize int) *MapMemory {
	if chunkSize <= 0 {
		chunkSize = store.DefaultChunkSize
	}
	return &MapMemory{
		size:   chunkSize,
		chunks: store.NewShardedMap[*chunk](0),
	}
}

func (m *MapMemory) chunkFor(cc store.ChunkCoord) *chunk {
	if ch, ok := m.chunks.Load(cc); ok {
		return ch
	}
	ch := &chunk{memorized: make([]bool, m.size*m.size*m.size)}
	actual, _ := m.chunks.LoadOrStore(cc, ch)
	return actual
}

// Mark memorizes the absolute coordinate p and reports whether it was new.
func (m *MapMemory) Mark(p mathx.Vec3i) bool {
	ch := m.chunkFor(store.ChunkCoordOf(p, m.size))
	i := store.LocalIndex(p, m.size)
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.memorized[i] {
		return false
	}
	ch.memorized[i] = true
	m.count.Add(1)
	return true
}

// Record memorizes origin+offset for every offset in visible and returns how
// many cells were newly memorized.
func (m *MapMemory) Record(origin mathx.Vec3i, visible fov.Set) int {
	added := 0
	for off := range visible {
		if m.Mark(origin.Add(off)) {
			added++
		}
	}
	return added
}

// IsMemorized is false for cells in memory chunks that were never touched.
func (m *MapMemory) IsMemorized(p mathx.Vec3i) bool {
	ch, ok := m.chunks.Load(store.ChunkCoordOf(p, m.size))
	if !ok {
		return false
	}
	i := store.LocalIndex(p, m.size)
	ch.mu.RLock()
	v := ch.memorized[i]
	ch.mu.RUnlock()
	return v
}

// Len is the number of memorized cells.
func (m *MapMemory) Len() int { return int(m.count.Load()) }

// Chunks is the number of memory chunks allocated so far.
func (m *MapMemory) Chunks() int { return m.chunks.Len() }
