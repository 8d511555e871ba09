package world

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"voxelfog.ai/internal/sim/world/logic/pathfind"
)

// systemFOV rebuilds every observer's visible set. Chunks under the sight
// cube are created up front so the sweeps rarely generate terrain.
func (w *World) systemFOV(_ uint64) error {
	if len(w.observers) == 0 {
		return missing("fov", "observer")
	}
	for _, o := range w.observers {
		w.chunks.EnsureRegion(o.Pos, int(o.Sight.Radius))
		o.Sight.Visible = w.fov.Compute(o.Pos, o.Sight.Radius)
	}
	return nil
}

func (w *World) systemMemory(_ uint64) error {
	if len(w.observers) == 0 {
		return missing("memory", "observer")
	}
	for _, o := range w.observers {
		if o.Sight.Visible == nil {
			return missing("memory", "sight")
		}
		o.Memory.Record(o.Pos, o.Sight.Visible)
	}
	return nil
}

// systemPathfinding plans one step per pursuing seeker toward the primary
// observer. Searches only read the world, so they run concurrently.
func (w *World) systemPathfinding(_ uint64) error {
	clear(w.steps)
	target := w.Primary()
	if target == nil {
		return missing("pathfinding", "observer")
	}

	seekers := w.sortedSeekers()
	type result struct {
		step Vec3i
		ok   bool
	}
	results := make([]result, len(seekers))
	passable := func(p Vec3i) bool { return !w.chunks.Obstacle(p) }
	opts := pathfind.Options{MaxNodes: w.cfg.PathMaxNodes}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range seekers {
		if !s.Pursue {
			continue
		}
		i, from := i, s.Pos
		g.Go(func() error {
			step, ok := pathfind.FindPathStep(from, target.Pos, passable, opts)
			results[i] = result{step: step, ok: ok}
			return nil
		})
	}
	_ = g.Wait()

	for i, s := range seekers {
		if results[i].ok {
			w.steps[s.ID] = results[i].step
		}
	}
	return nil
}

// systemMovement applies planned steps in seeker ID order. A step is refused
// when it enters an obstacle, an observer, or a tile another seeker holds.
func (w *World) systemMovement(_ uint64) ([]RecordedStep, error) {
	if len(w.steps) == 0 {
		return nil, nil
	}
	seekers := w.sortedSeekers()
	occupied := make(map[Vec3i]bool, len(seekers))
	for _, s := range seekers {
		occupied[s.Pos] = true
	}

	var out []RecordedStep
	for _, s := range seekers {
		to, ok := w.steps[s.ID]
		if !ok {
			continue
		}
		if to.Manhattan(s.Pos) != 1 || occupied[to] || w.occupiedByObserver(to) || w.chunks.Obstacle(to) {
			continue
		}
		delete(occupied, s.Pos)
		occupied[to] = true
		out = append(out, RecordedStep{SeekerID: s.ID, From: s.Pos, To: to})
		s.Pos = to
	}
	clear(w.steps)
	return out, nil
}
