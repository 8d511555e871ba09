package pathfind

import (
	"container/heap"

	"voxelfog.ai/internal/sim/world/logic/mathx"
)

// DefaultMaxNodes bounds a single search. The world is unbounded, so an
// unreachable target would otherwise expand forever.
const DefaultMaxNodes = 4096

type Options struct {
	// MaxNodes caps the number of expanded nodes; <= 0 means DefaultMaxNodes.
	MaxNodes int
}

// FindPathStep runs A* from start to target over 6-connected tiles and returns
// the first step of a shortest path. It returns false when start == target or
// no path is found within the node budget.
func FindPathStep(start, target mathx.Vec3i, passable func(mathx.Vec3i) bool, opts Options) (mathx.Vec3i, bool) {
	path := FindPath(start, target, passable, opts)
	if len(path) < 2 {
		return mathx.Vec3i{}, false
	}
	return path[1], true
}

// FindPath returns the full path including start and target, or nil.
// Unit step cost, Manhattan heuristic, and a fixed neighbor order make the
// result deterministic.
func FindPath(start, target mathx.Vec3i, passable func(mathx.Vec3i) bool, opts Options) []mathx.Vec3i {
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	if start == target {
		return []mathx.Vec3i{start}
	}

	g := map[mathx.Vec3i]int{start: 0}
	parent := make(map[mathx.Vec3i]mathx.Vec3i, 256)
	closed := make(map[mathx.Vec3i]bool, 256)

	open := &openList{}
	var seq uint64
	heap.Push(open, &node{pos: start, g: 0, h: start.Manhattan(target), seq: seq})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.pos] {
			continue
		}
		if cur.pos == target {
			return reconstruct(parent, start, target)
		}
		closed[cur.pos] = true
		expanded++
		if expanded > maxNodes {
			return nil
		}

		for _, d := range mathx.Neighbors6 {
			np := cur.pos.Add(d)
			if closed[np] {
				continue
			}
			if !passable(np) {
				continue
			}
			ng := cur.g + 1
			if old, ok := g[np]; ok && old <= ng {
				continue
			}
			g[np] = ng
			parent[np] = cur.pos
			seq++
			heap.Push(open, &node{pos: np, g: ng, h: np.Manhattan(target), seq: seq})
		}
	}
	return nil
}

func reconstruct(parent map[mathx.Vec3i]mathx.Vec3i, start, target mathx.Vec3i) []mathx.Vec3i {
	path := []mathx.Vec3i{target}
	for p := target; p != start; {
		p = parent[p]
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type node struct {
	pos mathx.Vec3i
	g   int
	h   int
	seq uint64
}

// openList orders by f, then h (prefer nodes closer to the target), then
// insertion order.
type openList []*node

func (o openList) Len() int { return len(o) }

func (o openList) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	if o[i].h != o[j].h {
		return o[i].h < o[j].h
	}
	return o[i].seq < o[j].seq
}

func (o openList) Swap(i, j int) { o[i], o[j] = o[j], o[i] }

func (o *openList) Push(x any) { *o = append(*o, x.(*node)) }

func (o *openList) Pop() any {
	old := *o
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return it
}
