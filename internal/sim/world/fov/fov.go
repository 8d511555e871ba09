// Package fov computes symmetric shadowcasting visibility in three dimensions.
//
// The sweep is the classic row-by-row recursive shadowcast run once per
// axis-aligned direction (±X, ±Y, ±Z). Within a sweep every tile is addressed
// as (depth, a, b): depth grows away from the observer and a, b span the
// slice plane. Each pending region carries exact rational slope bounds for
// both plane axes; only the radius cutoff is a distance test.
package fov

import (
	"golang.org/x/sync/errgroup"

	"voxelfog.ai/internal/sim/rational"
	"voxelfog.ai/internal/sim/world/logic/mathx"
)

// MaxRadius keeps depth×coordinate products far inside int64.
const MaxRadius = 4096

// Obstacles answers "does this tile block sight" for global coordinates.
// Implementations must be safe for concurrent readers.
type Obstacles interface {
	Obstacle(p mathx.Vec3i) bool
}

type direction struct {
	name   string
	offset func(depth, a, b int) mathx.Vec3i
}

var directions = [6]direction{
	{"+x", func(d, a, b int) mathx.Vec3i { return mathx.Vec3i{X: d, Y: a, Z: b} }},
	{"-x", func(d, a, b int) mathx.Vec3i { return mathx.Vec3i{X: -d, Y: a, Z: b} }},
	{"+y", func(d, a, b int) mathx.Vec3i { return mathx.Vec3i{X: a, Y: d, Z: b} }},
	{"-y", func(d, a, b int) mathx.Vec3i { return mathx.Vec3i{X: a, Y: -d, Z: b} }},
	{"+z", func(d, a, b int) mathx.Vec3i { return mathx.Vec3i{X: a, Y: b, Z: d} }},
	{"-z", func(d, a, b int) mathx.Vec3i { return mathx.Vec3i{X: a, Y: b, Z: -d} }},
}

// Engine is stateless apart from its obstacle source and may be shared.
type Engine struct {
	Obstacles Obstacles
	// Serial runs the six sweeps on the calling goroutine.
	Serial bool
}

// Compute returns every offset visible from origin within radius. The result
// always contains the zero offset.
func (e *Engine) Compute(origin mathx.Vec3i, radius uint32) Set {
	r := int(radius)
	if r > MaxRadius {
		r = MaxRadius
	}

	var parts [len(directions)]Set
	if e.Serial {
		for i, dir := range directions {
			parts[i] = e.sweep(origin, r, dir)
		}
	} else {
		var g errgroup.Group
		for i, dir := range directions {
			i, dir := i, dir
			g.Go(func() error {
				parts[i] = e.sweep(origin, r, dir)
				return nil
			})
		}
		_ = g.Wait()
	}

	out := Set{}
	out.Add(mathx.Vec3i{})
	for _, p := range parts {
		out.Union(p)
	}
	return out
}

type region struct {
	depth    int
	aLo, aHi rational.Rational
	bLo, bHi rational.Rational
}

type run struct {
	lo, hi rational.Rational
}

func (e *Engine) sweep(origin mathx.Vec3i, radius int, dir direction) Set {
	seen := Set{}
	if radius <= 0 {
		return seen
	}
	r2 := radius * radius

	one := rational.FromInt(1)
	stack := []region{{depth: 1, aLo: one.Neg(), aHi: one, bLo: one.Neg(), bHi: one}}
	runs := make([]run, 0, 8)

	for len(stack) > 0 {
		rg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if rg.depth > radius {
			continue
		}
		d := rg.depth
		a0, a1 := rowRange(d, rg.aLo, rg.aHi)
		b0, b1 := rowRange(d, rg.bLo, rg.bHi)
		if a0 > a1 || b0 > b1 {
			continue
		}

		// Consecutive obstacle-free rows continue as a single region.
		var pending *region
		flush := func() {
			if pending != nil {
				stack = append(stack, *pending)
				pending = nil
			}
		}

		for a := a0; a <= a1; a++ {
			stripLo := rational.Max(rg.aLo, slope(d, a))
			stripHi := rational.Min(rg.aHi, slope(d, a+1))
			symA := symmetric(d, a, rg.aLo, rg.aHi)

			runs = runs[:0]
			open := false
			blocked := false
			runStart := rg.bLo
			for b := b0; b <= b1; b++ {
				off := dir.offset(d, a, b)
				obstacle := e.Obstacles.Obstacle(origin.Add(off))
				if off.Dist2() <= r2 && (obstacle || (symA && symmetric(d, b, rg.bLo, rg.bHi))) {
					seen.Add(off)
				}
				switch {
				case obstacle:
					blocked = true
					if open {
						// empty -> wall: the run ends at the wall's leading edge
						runs = append(runs, run{lo: runStart, hi: slope(d, b)})
						open = false
					}
				case !open:
					// wall -> empty narrows the start of the next run
					if b > b0 {
						runStart = slope(d, b)
					}
					open = true
				}
			}
			if open {
				runs = append(runs, run{lo: runStart, hi: rg.bHi})
			}

			if !blocked {
				if pending == nil {
					pending = &region{depth: d + 1, aLo: stripLo, aHi: stripHi, bLo: rg.bLo, bHi: rg.bHi}
				} else {
					pending.aHi = stripHi
				}
				continue
			}
			flush()
			for _, rn := range runs {
				stack = append(stack, region{depth: d + 1, aLo: stripLo, aHi: stripHi, bLo: rn.lo, bHi: rn.hi})
			}
		}
		flush()
	}
	return seen
}

// rowRange is the inclusive column range at depth d between slopes lo and hi:
// floor(d*lo + 1/2) .. ceil(d*hi - 1/2).
func rowRange(d int, lo, hi rational.Rational) (int, int) {
	first := lo.MulInt(int64(d)).Add(rational.Half).Floor()
	last := hi.MulInt(int64(d)).Sub(rational.Half).Ceil()
	return int(first), int(last)
}

// slope is the edge between column c-1 and column c at depth d: (2c-1)/(2d).
func slope(d, c int) rational.Rational {
	return rational.New(int64(2*c-1), int64(2*d))
}

// symmetric reports whether column c at depth d lies within [d*lo, d*hi].
// Ties count as visible.
func symmetric(d, c int, lo, hi rational.Rational) bool {
	col := rational.FromInt(int64(c))
	return lo.MulInt(int64(d)).LessEq(col) && col.LessEq(hi.MulInt(int64(d)))
}
