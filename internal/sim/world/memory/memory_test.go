package memory

import (
	"sync"
	"testing"

	"voxelfog.ai/internal/sim/world/fov"
	"voxelfog.ai/internal/sim/world/logic/mathx"
)

func TestIsMemorized_UntouchedChunk(t *testing.T) {
	m := New(15)
	if m.IsMemorized(mathx.Vec3i{X: 1000, Y: -1000, Z: 5}) {
		t.Fatalf("untouched cell must not be memorized")
	}
	if m.Chunks() != 0 {
		t.Fatalf("IsMemorized must not allocate chunks, got %d", m.Chunks())
	}
}

func TestRecord_UsesAbsoluteCoordinates(t *testing.T) {
	m := New(15)
	origin := mathx.Vec3i{X: 7, Y: 7, Z: 0}
	vis := fov.Set{}
	vis.Add(mathx.Vec3i{})
	vis.Add(mathx.Vec3i{X: 1})
	vis.Add(mathx.Vec3i{Y: -20, Z: 3})

	if n := m.Record(origin, vis); n != 3 {
		t.Fatalf("Record added %d cells, want 3", n)
	}
	for _, p := range []mathx.Vec3i{{X: 7, Y: 7}, {X: 8, Y: 7}, {X: 7, Y: -13, Z: 3}} {
		if !m.IsMemorized(p) {
			t.Fatalf("%v should be memorized", p)
		}
	}
	if m.IsMemorized(mathx.Vec3i{X: 1}) {
		t.Fatalf("offset must not be memorized as an absolute coordinate")
	}
	// (7,7,0) and (8,7,0) straddle the chunk 0 / chunk 1 boundary.
	if m.Chunks() != 3 {
		t.Fatalf("Chunks=%d want 3", m.Chunks())
	}
}

func TestRecord_Monotonic(t *testing.T) {
	m := New(15)
	seen := map[mathx.Vec3i]bool{}
	origins := []mathx.Vec3i{{}, {X: 3}, {X: 3, Y: 9}, {X: -20, Z: 4}}
	for _, o := range origins {
		vis := fov.Set{}
		for dx := -2; dx <= 2; dx++ {
			vis.Add(mathx.Vec3i{X: dx, Y: dx * dx})
		}
		m.Record(o, vis)
		for off := range vis {
			seen[o.Add(off)] = true
		}
		for p := range seen {
			if !m.IsMemorized(p) {
				t.Fatalf("%v was memorized earlier and is now forgotten", p)
			}
		}
	}
	if m.Len() != len(seen) {
		t.Fatalf("Len=%d want %d", m.Len(), len(seen))
	}
	if n := m.Record(mathx.Vec3i{}, fov.Set{mathx.Vec3i{}: {}}); n != 0 {
		t.Fatalf("re-recording a known cell added %d", n)
	}
}

func TestRecord_ConcurrentWritersCountOnce(t *testing.T) {
	m := New(15)
	vis := fov.Set{}
	for x := -10; x <= 10; x++ {
		for y := -10; y <= 10; y++ {
			vis.Add(mathx.Vec3i{X: x, Y: y})
		}
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(mathx.Vec3i{}, vis)
		}()
	}
	wg.Wait()
	if m.Len() != vis.Len() {
		t.Fatalf("Len=%d want %d", m.Len(), vis.Len())
	}
}
