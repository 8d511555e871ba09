package gen

import "voxelfog.ai/internal/sim/world/logic/mathx"

// Generator fills one chunk. origin is the global coordinate of local (0,0,0);
// tiles and obstacles have size³ entries laid out as mathx.Index3.
// Implementations must be safe for concurrent use.
type Generator interface {
	Generate(origin mathx.Vec3i, size int, tiles []*Tile, obstacles []bool)
}

// Seeds for the independent hash streams of CaveGen.
const (
	saltPuncture = 101
	saltFeature  = 202
)

// CaveGen is the default terrain policy: solid ground below GroundZ, sparse
// wall punctures on the ground layer, and at most one spherical cavity or
// boulder per chunk. Every decision is a pure function of Seed and coordinate.
type CaveGen struct {
	Seed    int64
	GroundZ int

	PuncturePermille int
	FeaturePermille  int
	FeatureMinR      int
	FeatureMaxR      int

	Palette Palette
}

func (g CaveGen) Generate(origin mathx.Vec3i, size int, tiles []*Tile, obstacles []bool) {
	pal := g.Palette.orDefault()

	f, hasFeature := g.feature(origin, size)

	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				p := mathx.Vec3i{X: origin.X + x, Y: origin.Y + y, Z: origin.Z + z}
				t, solid := g.base(p, pal)
				if hasFeature && f.contains(p) {
					if f.cavity {
						t, solid = pal.Air, false
					} else {
						t, solid = pal.Boulder, true
					}
				}
				i := mathx.Index3(x, y, z, size)
				tiles[i] = t
				obstacles[i] = solid
			}
		}
	}
}

func (g CaveGen) base(p mathx.Vec3i, pal Palette) (*Tile, bool) {
	switch {
	case p.Z < g.GroundZ:
		return pal.Ground, true
	case p.Z == g.GroundZ:
		roll := mathx.Hash3(g.Seed+saltPuncture, p.X, p.Y, p.Z) % 1000
		if roll < uint64(ClampPermille(g.PuncturePermille)) {
			return pal.Wall, true
		}
	}
	return pal.Air, false
}

type sphere struct {
	center mathx.Vec3i
	r2     int
	cavity bool
}

func (s sphere) contains(p mathx.Vec3i) bool {
	return p.Sub(s.center).Dist2() <= s.r2
}

// feature places the per-chunk sphere. The center is hashed inside the chunk
// and the sphere is only applied to tiles of this chunk, so neighbors never
// need to know about it.
func (g CaveGen) feature(origin mathx.Vec3i, size int) (sphere, bool) {
	if size <= 0 {
		return sphere{}, false
	}
	h := mathx.Hash3(g.Seed+saltFeature, origin.X, origin.Y, origin.Z)
	if h%1000 >= uint64(ClampPermille(g.FeaturePermille)) {
		return sphere{}, false
	}
	minR, maxR := g.FeatureMinR, g.FeatureMaxR
	if minR <= 0 {
		minR = 1
	}
	if maxR < minR {
		maxR = minR
	}
	r := minR + int((h>>10)%uint64(maxR-minR+1))
	c := mathx.Vec3i{
		X: origin.X + int((h>>20)%uint64(size)),
		Y: origin.Y + int((h>>30)%uint64(size)),
		Z: origin.Z + int((h>>40)%uint64(size)),
	}
	return sphere{center: c, r2: r * r, cavity: (h>>50)&1 == 0}, true
}

func ClampPermille(v int) int {
	if v < 0 {
		return 0
	}
	if v > 1000 {
		return 1000
	}
	return v
}

// Flat fills every voxel with the same tile.
type Flat struct {
	Tile     *Tile
	Obstacle bool
}

func (f Flat) Generate(origin mathx.Vec3i, size int, tiles []*Tile, obstacles []bool) {
	for i := range tiles {
		tiles[i] = f.Tile
		obstacles[i] = f.Obstacle
	}
}

// Func generates by evaluating fn at every global coordinate.
type Func func(p mathx.Vec3i) (*Tile, bool)

func (fn Func) Generate(origin mathx.Vec3i, size int, tiles []*Tile, obstacles []bool) {
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				i := mathx.Index3(x, y, z, size)
				tiles[i], obstacles[i] = fn(mathx.Vec3i{X: origin.X + x, Y: origin.Y + y, Z: origin.Z + z})
			}
		}
	}
}
