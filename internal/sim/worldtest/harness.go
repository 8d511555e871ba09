package worldtest

import (
	"sync"
	"testing"

	world "voxelfog.ai/internal/sim/world"
	"voxelfog.ai/internal/sim/world/terrain/gen"
)

// Harness is a small black-box test helper for driving a world via exported APIs:
// - the primary observer is spawned on construction
// - Step()/StepMulti() advance one tick via StepOnce()
// - every tick log entry is kept in order for assertions
//
// It intentionally avoids touching world internals so tests can live outside the world package.
type Harness struct {
	T *testing.T
	W *world.World

	DefaultObserverID string

	rec *Recorder
}

// Recorder is a TickLogger that keeps every entry in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []world.TickLogEntry
}

func (r *Recorder) WriteTick(e world.TickLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *Recorder) Entries() []world.TickLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]world.TickLogEntry(nil), r.entries...)
}

func NewHarness(t *testing.T, cfg world.WorldConfig, observerPos world.Vec3i) *Harness {
	t.Helper()

	w, err := world.New(cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return NewHarnessWithWorld(t, w, observerPos)
}

// NewHarnessWithWorld is like NewHarness, but uses an already-constructed world instance.
// This is useful when terrain must be edited before the observer's first sight.
func NewHarnessWithWorld(t *testing.T, w *world.World, observerPos world.Vec3i) *Harness {
	t.Helper()
	if w == nil {
		t.Fatalf("NewHarnessWithWorld: nil world")
	}

	h := &Harness{T: t, W: w, DefaultObserverID: "P", rec: &Recorder{}}
	w.AddTickLogger(h.rec)
	e := h.StepMulti(nil, world.Spawn{Kind: world.SpawnObserver, ID: h.DefaultObserverID, Pos: observerPos})
	if len(e.Spawns) != 1 {
		t.Fatalf("observer spawn at %v rejected", observerPos)
	}
	return h
}

func (h *Harness) Entries() []world.TickLogEntry { return h.rec.Entries() }

func (h *Harness) Last() world.TickLogEntry {
	h.T.Helper()
	es := h.rec.Entries()
	if len(es) == 0 {
		h.T.Fatalf("no ticks recorded")
	}
	return es[len(es)-1]
}

// Step moves the default observer by delta (zero for none) and advances one tick.
func (h *Harness) Step(delta world.Vec3i) world.TickLogEntry {
	h.T.Helper()
	if delta == (world.Vec3i{}) {
		return h.StepMulti(nil)
	}
	return h.StepMulti([]world.ObserverMove{{ObserverID: h.DefaultObserverID, Delta: delta}})
}

func (h *Harness) StepMulti(moves []world.ObserverMove, spawns ...world.Spawn) world.TickLogEntry {
	h.T.Helper()
	tick, digest := h.W.StepOnce(moves, spawns...)
	e := h.Last()
	if e.Tick != tick || e.Digest != digest {
		h.T.Fatalf("tick log out of sync: entry=%d/%s step=%d/%s", e.Tick, e.Digest, tick, digest)
	}
	return e
}

func (h *Harness) StepNoop() world.TickLogEntry {
	h.T.Helper()
	return h.StepMulti(nil)
}

// AddSeeker spawns a seeker and returns its assigned id.
func (h *Harness) AddSeeker(pos world.Vec3i) string {
	h.T.Helper()
	e := h.StepMulti(nil, world.Spawn{Kind: world.SpawnSeeker, Pos: pos})
	if len(e.Spawns) != 1 {
		h.T.Fatalf("seeker spawn at %v rejected", pos)
	}
	return e.Spawns[0].ID
}

func (h *Harness) Observer() *world.Observer {
	h.T.Helper()
	o := h.W.Observer(h.DefaultObserverID)
	if o == nil {
		h.T.Fatalf("observer %q missing", h.DefaultObserverID)
	}
	return o
}

func (h *Harness) SeekerPos(id string) world.Vec3i {
	h.T.Helper()
	for _, s := range h.W.Seekers() {
		if s.ID == id {
			return s.Pos
		}
	}
	h.T.Fatalf("unknown seeker id: %q", id)
	return world.Vec3i{}
}

// SetBlock writes a wall (solid) or air tile. Takes effect on the next tick.
func (h *Harness) SetBlock(pos world.Vec3i, solid bool) {
	if solid {
		h.W.Chunks().SetTile(pos, gen.TileWall, true)
		return
	}
	h.W.Chunks().SetTile(pos, gen.TileAir, false)
}
