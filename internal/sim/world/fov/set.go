package fov

import (
	"sort"

	"voxelfog.ai/internal/sim/world/logic/mathx"
)

// Set holds tile offsets relative to the observer.
type Set map[mathx.Vec3i]struct{}

func (s Set) Add(p mathx.Vec3i)      { s[p] = struct{}{} }
func (s Set) Has(p mathx.Vec3i) bool { _, ok := s[p]; return ok }
func (s Set) Len() int               { return len(s) }

func (s Set) Union(o Set) {
	for p := range o {
		s[p] = struct{}{}
	}
}

// Sorted returns the offsets ordered by z, y, x.
func (s Set) Sorted() []mathx.Vec3i {
	out := make([]mathx.Vec3i, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
