package pathfind

import (
	"testing"

	"voxelfog.ai/internal/sim/world/logic/mathx"
)

func openExcept(blocked map[mathx.Vec3i]bool) func(mathx.Vec3i) bool {
	return func(p mathx.Vec3i) bool { return !blocked[p] }
}

func TestFindPathStep_StraightLineDecreasesDistance(t *testing.T) {
	start := mathx.Vec3i{X: -3, Y: 2, Z: 1}
	targets := []mathx.Vec3i{{X: 5, Y: 2, Z: 1}, {X: -3, Y: -4, Z: 1}, {X: -3, Y: 2, Z: 9}, {X: 4, Y: -1, Z: -2}}
	for _, target := range targets {
		step, ok := FindPathStep(start, target, openExcept(nil), Options{})
		if !ok {
			t.Fatalf("no step toward %v", target)
		}
		if step.Manhattan(start) != 1 {
			t.Fatalf("step %v is not adjacent to %v", step, start)
		}
		if step.Manhattan(target) >= start.Manhattan(target) {
			t.Fatalf("step %v does not approach %v", step, target)
		}
	}
}

func TestFindPathStep_AtTarget(t *testing.T) {
	p := mathx.Vec3i{X: 1}
	if _, ok := FindPathStep(p, p, openExcept(nil), Options{}); ok {
		t.Fatalf("no step expected when already at the target")
	}
}

func TestFindPathStep_WalledOffSeeker(t *testing.T) {
	blocked := map[mathx.Vec3i]bool{}
	for _, d := range mathx.Neighbors6 {
		blocked[d] = true
	}
	if _, ok := FindPathStep(mathx.Vec3i{}, mathx.Vec3i{X: 10}, openExcept(blocked), Options{}); ok {
		t.Fatalf("enclosed seeker must not get a step")
	}
}

func TestFindPathStep_UnreachableTargetRespectsBudget(t *testing.T) {
	target := mathx.Vec3i{X: 6}
	blocked := map[mathx.Vec3i]bool{}
	for _, d := range mathx.Neighbors6 {
		blocked[target.Add(d)] = true
	}
	calls := 0
	passable := func(p mathx.Vec3i) bool {
		calls++
		return !blocked[p]
	}
	if _, ok := FindPathStep(mathx.Vec3i{}, target, passable, Options{MaxNodes: 500}); ok {
		t.Fatalf("enclosed target must not be reachable")
	}
	if calls > 500*6+6 {
		t.Fatalf("search ignored the node budget: %d passability checks", calls)
	}
}

func TestFindPath_DetoursAroundWall(t *testing.T) {
	// A wall at x=1 spanning y in [-2,2] on the z=0 plane; z is blocked above and
	// below so the search stays planar.
	blocked := map[mathx.Vec3i]bool{}
	for y := -2; y <= 2; y++ {
		blocked[mathx.Vec3i{X: 1, Y: y}] = true
	}
	for x := -5; x <= 5; x++ {
		for y := -5; y <= 5; y++ {
			blocked[mathx.Vec3i{X: x, Y: y, Z: 1}] = true
			blocked[mathx.Vec3i{X: x, Y: y, Z: -1}] = true
		}
	}
	start := mathx.Vec3i{}
	target := mathx.Vec3i{X: 2}
	path := FindPath(start, target, openExcept(blocked), Options{})
	if path == nil {
		t.Fatalf("expected a path")
	}
	if path[0] != start || path[len(path)-1] != target {
		t.Fatalf("path endpoints wrong: %v", path)
	}
	// Around the wall: 3 up, 2 across, 3 down.
	if len(path)-1 != 8 {
		t.Fatalf("path length %d want 8: %v", len(path)-1, path)
	}
	for i := 1; i < len(path); i++ {
		if path[i].Manhattan(path[i-1]) != 1 || blocked[path[i]] {
			t.Fatalf("invalid path at %d: %v", i, path)
		}
	}
}

func TestFindPath_Deterministic(t *testing.T) {
	start := mathx.Vec3i{X: -2, Y: -2}
	target := mathx.Vec3i{X: 3, Y: 4, Z: -1}
	a := FindPath(start, target, openExcept(nil), Options{})
	b := FindPath(start, target, openExcept(nil), Options{})
	if len(a) != len(b) {
		t.Fatalf("length differs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("paths differ at %d", i)
		}
	}
	if len(a)-1 != start.Manhattan(target) {
		t.Fatalf("open-space path should be Manhattan-optimal: %d vs %d", len(a)-1, start.Manhattan(target))
	}
}
