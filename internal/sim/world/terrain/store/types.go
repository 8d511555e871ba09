package store

import (
	"crypto/sha256"
	"sync"

	"voxelfog.ai/internal/sim/world/logic/mathx"
	genpkg "voxelfog.ai/internal/sim/world/terrain/gen"
)

// DefaultChunkSize is odd so chunk 0 is symmetric around the origin.
const DefaultChunkSize = 15

type ChunkCoord struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.X != o.X {
		return c.X < o.X
	}
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.Z < o.Z
}

// Chunk is a size³ block of voxels. Tiles and Obstacles are written once by
// the generator before the chunk is published; later access goes through the
// accessors, which hold mu for a single tile.
type Chunk struct {
	Coord ChunkCoord
	Size  int

	mu        sync.RWMutex
	tiles     []*genpkg.Tile // len = Size³
	obstacles []bool         // parallel to tiles

	dirty bool
	hash  [32]byte
}

func newChunk(cc ChunkCoord, size int) *Chunk {
	n := size * size * size
	return &Chunk{
		Coord:     cc,
		Size:      size,
		tiles:     make([]*genpkg.Tile, n),
		obstacles: make([]bool, n),
		dirty:     true,
	}
}

func (c *Chunk) Obstacle(i int) bool {
	c.mu.RLock()
	v := c.obstacles[i]
	c.mu.RUnlock()
	return v
}

func (c *Chunk) Tile(i int) *genpkg.Tile {
	c.mu.RLock()
	t := c.tiles[i]
	c.mu.RUnlock()
	return t
}

func (c *Chunk) Set(i int, t *genpkg.Tile, obstacle bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tiles[i] == t && c.obstacles[i] == obstacle {
		return
	}
	c.tiles[i] = t
	c.obstacles[i] = obstacle
	c.dirty = true
}

// Digest hashes tile names and obstacle flags in index order.
func (c *Chunk) Digest() [32]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		for i, t := range c.tiles {
			if t != nil {
				h.Write([]byte(t.Name))
			}
			if c.obstacles[i] {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// Origin is the global coordinate of local (0,0,0).
func (c *Chunk) Origin() mathx.Vec3i {
	return ChunkOrigin(c.Coord, c.Size)
}

type ChunkStore struct {
	size   int
	gen    genpkg.Generator
	chunks *ShardedMap[*Chunk]
}

func NewChunkStore(size int, gen genpkg.Generator) *ChunkStore {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if gen == nil {
		gen = genpkg.Flat{Tile: genpkg.TileAir}
	}
	return &ChunkStore{
		size:   size,
		gen:    gen,
		chunks: NewShardedMap[*Chunk](defaultShards),
	}
}

func (s *ChunkStore) ChunkSize() int { return s.size }
