package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"voxelfog.ai/internal/sim/world/logic/mathx"
	genpkg "voxelfog.ai/internal/sim/world/terrain/gen"
)

// GetOrCreate returns the chunk at cc, generating it if absent. Generation
// runs outside the shard lock; if two callers race, the first insert wins and
// both get the same chunk.
func (s *ChunkStore) GetOrCreate(cc ChunkCoord) *Chunk {
	if ch, ok := s.chunks.Load(cc); ok {
		return ch
	}
	ch := newChunk(cc, s.size)
	s.gen.Generate(ch.Origin(), s.size, ch.tiles, ch.obstacles)
	_ = ch.Digest()
	actual, _ := s.chunks.LoadOrStore(cc, ch)
	return actual
}

// Get never creates.
func (s *ChunkStore) Get(cc ChunkCoord) (*Chunk, bool) {
	return s.chunks.Load(cc)
}

func (s *ChunkStore) Obstacle(p mathx.Vec3i) bool {
	ch := s.GetOrCreate(ChunkCoordOf(p, s.size))
	return ch.Obstacle(LocalIndex(p, s.size))
}

func (s *ChunkStore) TileAt(p mathx.Vec3i) *genpkg.Tile {
	ch := s.GetOrCreate(ChunkCoordOf(p, s.size))
	return ch.Tile(LocalIndex(p, s.size))
}

func (s *ChunkStore) SetTile(p mathx.Vec3i, t *genpkg.Tile, obstacle bool) {
	ch := s.GetOrCreate(ChunkCoordOf(p, s.size))
	ch.Set(LocalIndex(p, s.size), t, obstacle)
}

// EnsureRegion creates every chunk intersecting the cube center±radius and
// returns how many chunks that cube spans.
func (s *ChunkStore) EnsureRegion(center mathx.Vec3i, radius int) int {
	if radius < 0 {
		radius = 0
	}
	lo := ChunkCoordOf(mathx.Vec3i{X: center.X - radius, Y: center.Y - radius, Z: center.Z - radius}, s.size)
	hi := ChunkCoordOf(mathx.Vec3i{X: center.X + radius, Y: center.Y + radius, Z: center.Z + radius}, s.size)
	n := 0
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				s.GetOrCreate(ChunkCoord{X: x, Y: y, Z: z})
				n++
			}
		}
	}
	return n
}

func (s *ChunkStore) Len() int { return s.chunks.Len() }

func (s *ChunkStore) LoadedChunkKeys() []ChunkCoord {
	keys := make([]ChunkCoord, 0, s.chunks.Len())
	s.chunks.Range(func(k ChunkCoord, _ *Chunk) bool {
		keys = append(keys, k)
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Digest hashes the coordinates and digests of all loaded chunks in
// coordinate order.
func (s *ChunkStore) Digest() string {
	h := sha256.New()
	var tmp [8]byte
	for _, k := range s.LoadedChunkKeys() {
		ch, ok := s.chunks.Load(k)
		if !ok {
			continue
		}
		for _, v := range [3]int{k.X, k.Y, k.Z} {
			binary.LittleEndian.PutUint64(tmp[:], uint64(int64(v)))
			h.Write(tmp[:])
		}
		d := ch.Digest()
		h.Write(d[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
