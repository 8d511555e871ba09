package world

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"voxelfog.ai/internal/sim/world/terrain/gen"
)

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("new world: %v", err)
	}
	return w
}

func openWorld(t *testing.T) *World {
	return newTestWorld(t, WorldConfig{SightRadius: 6, Generator: gen.Flat{Tile: gen.TileAir}})
}

// roomGen encloses the box lo..hi in walls with a single open doorway tile.
func roomGen(lo, hi, door Vec3i) gen.Func {
	return func(p Vec3i) (*gen.Tile, bool) {
		if p == door {
			return gen.TileAir, false
		}
		inX := p.X >= lo.X && p.X <= hi.X
		inY := p.Y >= lo.Y && p.Y <= hi.Y
		inZ := p.Z >= lo.Z && p.Z <= hi.Z
		if !(inX && inY && inZ) {
			return gen.TileAir, false
		}
		if p.X == lo.X || p.X == hi.X || p.Y == lo.Y || p.Y == hi.Y || p.Z == lo.Z || p.Z == hi.Z {
			return gen.TileWall, true
		}
		return gen.TileAir, false
	}
}

func TestStepOnce_DoorwayScenario(t *testing.T) {
	lo := Vec3i{X: 0, Y: -4, Z: -4}
	hi := Vec3i{X: 6, Y: 4, Z: 4}
	door := Vec3i{}
	observer := Vec3i{X: -1}
	w := newTestWorld(t, WorldConfig{SightRadius: 10, Generator: roomGen(lo, hi, door)})

	w.StepOnce(nil,
		Spawn{Kind: SpawnObserver, ID: "P", Pos: observer},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 4, Y: 2, Z: 1}},
	)
	p := w.Primary()
	if p == nil || p.ID != "P" {
		t.Fatalf("primary observer missing")
	}

	// Sight: doorway and outer wall visible, room corners hidden.
	if !p.Sight.Visible.Has(door.Sub(observer)) {
		t.Fatalf("doorway must be visible")
	}
	if !p.Sight.Visible.Has(Vec3i{X: 0, Y: 2}.Sub(observer)) {
		t.Fatalf("outer wall should be visible")
	}
	// The wall is one tile thick, so the symmetric cone through the doorway
	// reaches into the room. Only tiles outside that cone are hidden.
	if !p.Sight.Visible.Has(Vec3i{X: 3}.Sub(observer)) {
		t.Fatalf("interior tile on the doorway axis should be visible")
	}
	for _, c := range []Vec3i{{X: 1, Y: 3, Z: 3}, {X: 2, Y: -3, Z: -3}, {X: 3, Y: 3, Z: -3}} {
		if p.Sight.Visible.Has(c.Sub(observer)) {
			t.Fatalf("room corner %v must be hidden", c)
		}
		if p.Memory.IsMemorized(c) {
			t.Fatalf("room corner %v must not be memorized", c)
		}
	}
	if !p.Memory.IsMemorized(door) {
		t.Fatalf("doorway must be memorized")
	}

	// Seeker: one step per tick toward the observer, through the doorway.
	want := Vec3i{X: 4, Y: 2, Z: 1}.Manhattan(observer) - 1
	for tick := 1; tick < 12; tick++ {
		s := w.Seekers()[0]
		if got := s.Pos.Manhattan(observer); got != want {
			t.Fatalf("tick %d: seeker %v at distance %d, want %d", tick, s.Pos, got, want)
		}
		if want > 1 {
			want--
		}
		w.StepOnce(nil)
	}
	if s := w.Seekers()[0]; s.Pos != door {
		t.Fatalf("seeker should wait in the doorway, at %v", s.Pos)
	}
}

func TestStepOnce_MissingObserverSkipsSystems(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWorld(t, WorldConfig{Generator: gen.Flat{Tile: gen.TileAir}, Logger: log.New(&buf, "", 0)})

	tick, digest := w.StepOnce(nil, Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 3}})
	if tick != 0 || digest == "" {
		t.Fatalf("tick=%d digest=%q", tick, digest)
	}
	tick, _ = w.StepOnce(nil)
	if tick != 1 {
		t.Fatalf("tick did not advance: %d", tick)
	}
	if m := w.Metrics(); m.Tick != 2 || m.SkippedSystems != 6 || m.Seekers != 1 {
		t.Fatalf("metrics %+v", m)
	}
	if !strings.Contains(buf.String(), "can't run pathfinding without observer") {
		t.Fatalf("missing state not logged: %q", buf.String())
	}
	if s := w.Seekers()[0]; s.Pos != (Vec3i{X: 3}) {
		t.Fatalf("seeker moved without a target: %v", s.Pos)
	}

	// Once an observer arrives, every system runs.
	w.StepOnce(nil, Spawn{Kind: SpawnObserver, Pos: Vec3i{}, Radius: 2})
	if m := w.Metrics(); m.SkippedSystems != 6 || m.Visible == 0 {
		t.Fatalf("metrics after observer spawn %+v", m)
	}
	if s := w.Seekers()[0]; s.Pos != (Vec3i{X: 2}) {
		t.Fatalf("seeker should step toward the observer, at %v", s.Pos)
	}
}

func TestNew_DefaultLoggerReportsSkips(t *testing.T) {
	var buf bytes.Buffer
	prev := DefaultLogOutput
	DefaultLogOutput = &buf
	t.Cleanup(func() { DefaultLogOutput = prev })

	w := newTestWorld(t, WorldConfig{Generator: gen.Flat{Tile: gen.TileAir}})
	w.StepOnce(nil, Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 3}})

	out := buf.String()
	if !strings.Contains(out, "[world] ") || !strings.Contains(out, "tick 0: SKIP pathfinding") {
		t.Fatalf("skip not reported on the default logger: %q", out)
	}
}

func TestMissingStateError(t *testing.T) {
	err := missing("pathfinding", "observer", "map")
	if !errors.Is(err, ErrMissingState) {
		t.Fatalf("errors.Is should match ErrMissingState")
	}
	var ms *MissingStateError
	if !errors.As(err, &ms) || ms.System != "pathfinding" {
		t.Fatalf("errors.As failed: %v", err)
	}
	if got := err.Error(); got != "can't run pathfinding without observer and map" {
		t.Fatalf("message %q", got)
	}
	if got := missing("fov", "a", "b", "c").Error(); got != "can't run fov without a, b and c" {
		t.Fatalf("message %q", got)
	}
}

func TestMovement_SeekersDoNotCollide(t *testing.T) {
	w := openWorld(t)
	w.StepOnce(nil,
		Spawn{Kind: SpawnObserver, Pos: Vec3i{}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 3}}, // S0001
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 2}}, // S0002
	)
	got := w.Seekers()
	if got[0].Pos != (Vec3i{X: 3}) || got[1].Pos != (Vec3i{X: 1}) {
		t.Fatalf("after tick 0: %+v", got)
	}
	w.StepOnce(nil)
	got = w.Seekers()
	if got[0].Pos != (Vec3i{X: 2}) || got[1].Pos != (Vec3i{X: 1}) {
		t.Fatalf("after tick 1: %+v", got)
	}
}

func TestObserverMove(t *testing.T) {
	w := newTestWorld(t, WorldConfig{SightRadius: 3, Generator: gen.Func(func(p Vec3i) (*gen.Tile, bool) {
		if p.X == 2 {
			return gen.TileWall, true
		}
		return gen.TileAir, false
	})})
	w.StepOnce(nil, Spawn{Kind: SpawnObserver, ID: "P", Pos: Vec3i{}})

	w.StepOnce([]ObserverMove{{ObserverID: "P", Delta: Vec3i{X: 1}}})
	if p := w.Observer("P"); p.Pos != (Vec3i{X: 1}) {
		t.Fatalf("move not applied: %v", p.Pos)
	}
	// Into the wall, diagonal, and unknown observer are all refused.
	w.StepOnce([]ObserverMove{
		{ObserverID: "P", Delta: Vec3i{X: 1}},
		{ObserverID: "P", Delta: Vec3i{X: -1, Y: 1}},
		{ObserverID: "nobody", Delta: Vec3i{Y: 1}},
	})
	if p := w.Observer("P"); p.Pos != (Vec3i{X: 1}) {
		t.Fatalf("invalid moves applied: %v", p.Pos)
	}
	// Memory keeps what was seen from the old position.
	w.StepOnce([]ObserverMove{{ObserverID: "P", Delta: Vec3i{Y: 1}}, {ObserverID: "P", Delta: Vec3i{Y: 1}}})
	p := w.Observer("P")
	if !p.Memory.IsMemorized(Vec3i{X: -2}) {
		t.Fatalf("earlier sight forgotten")
	}
	if p.Memory.IsMemorized(Vec3i{X: 3}) {
		t.Fatalf("tile behind the wall memorized")
	}
}

func TestSpawn_RejectsObstacleAndDuplicates(t *testing.T) {
	w := newTestWorld(t, WorldConfig{Generator: gen.Func(func(p Vec3i) (*gen.Tile, bool) {
		return gen.TileGround, p.Z < 0
	})})
	var entries []TickLogEntry
	w.AddTickLogger(tickLoggerFunc(func(e TickLogEntry) error {
		entries = append(entries, e)
		return nil
	}))
	w.StepOnce(nil,
		Spawn{Kind: SpawnObserver, ID: "P", Pos: Vec3i{}},
		Spawn{Kind: SpawnObserver, ID: "P", Pos: Vec3i{X: 1}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{Z: -1}},
		Spawn{Kind: "dragon", Pos: Vec3i{Y: 1}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 5}},
	)
	if len(entries) != 1 || len(entries[0].Spawns) != 2 {
		t.Fatalf("recorded spawns %+v", entries)
	}
	if s := entries[0].Spawns[1]; s.Kind != SpawnSeeker || s.ID != "S0001" {
		t.Fatalf("seeker spawn %+v", s)
	}
}

func TestSpawn_GeneratedIDsSkipExplicitOnes(t *testing.T) {
	w := openWorld(t)
	w.StepOnce(nil,
		Spawn{Kind: SpawnSeeker, ID: "S0007", Pos: Vec3i{X: 3}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 4}},
		Spawn{Kind: SpawnSeeker, ID: "scout", Pos: Vec3i{X: 5}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 6}},
	)
	got := map[string]bool{}
	for _, s := range w.Seekers() {
		got[s.ID] = true
	}
	for _, id := range []string{"S0007", "S0008", "scout", "S0009"} {
		if !got[id] {
			t.Fatalf("missing seeker %s in %v", id, got)
		}
	}
}

func TestSpawn_RejectsOccupiedTiles(t *testing.T) {
	w := openWorld(t)
	var entries []TickLogEntry
	w.AddTickLogger(tickLoggerFunc(func(e TickLogEntry) error {
		entries = append(entries, e)
		return nil
	}))
	w.StepOnce(nil,
		Spawn{Kind: SpawnObserver, ID: "P", Pos: Vec3i{}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{}},
		Spawn{Kind: SpawnSeeker, Pos: Vec3i{X: 4}},
		Spawn{Kind: SpawnSeeker, ID: "dup-tile", Pos: Vec3i{X: 4}},
	)
	if got := len(entries[0].Spawns); got != 2 {
		t.Fatalf("recorded spawns %+v", entries[0].Spawns)
	}
	seekers := w.Seekers()
	if len(seekers) != 1 || seekers[0].ID != "S0001" {
		t.Fatalf("seekers %+v", seekers)
	}
}

type tickLoggerFunc func(TickLogEntry) error

func (f tickLoggerFunc) WriteTick(e TickLogEntry) error { return f(e) }

func TestStepOnce_DeterministicDigests(t *testing.T) {
	run := func(seed int64) []string {
		w := newTestWorld(t, WorldConfig{Seed: seed, SightRadius: 6})
		var out []string
		spawns := []Spawn{
			{Kind: SpawnObserver, Pos: Vec3i{Z: 3}},
			{Kind: SpawnSeeker, Pos: Vec3i{X: 5, Y: 4, Z: 3}},
		}
		for i := 0; i < 6; i++ {
			var moves []ObserverMove
			if i%2 == 1 {
				moves = []ObserverMove{{ObserverID: "O0001", Delta: Vec3i{X: -1}}}
			}
			_, d := w.StepOnce(moves, spawns...)
			spawns = nil
			out = append(out, d)
		}
		return out
	}
	a, b := run(11), run(11)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("tick %d digest differs between identical runs", i)
		}
	}
	if c := run(12); c[0] == a[0] {
		t.Fatalf("different seeds should produce different digests")
	}
}

func TestRun_TicksUntilStopped(t *testing.T) {
	w := newTestWorld(t, WorldConfig{TickRateHz: 200, SightRadius: 3, Generator: gen.Flat{Tile: gen.TileAir}})
	var mu sync.Mutex
	var entries []TickLogEntry
	w.AddTickLogger(tickLoggerFunc(func(e TickLogEntry) error {
		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := w.Spawn(ctx, Spawn{Kind: SpawnObserver, Pos: Vec3i{}}); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := w.Move(ctx, ObserverMove{ObserverID: "O0001", Delta: Vec3i{Y: 1}}); err != nil {
		t.Fatalf("move: %v", err)
	}
	for w.Metrics().Tick < 5 || w.Metrics().Observers == 0 {
		select {
		case <-ctx.Done():
			t.Fatalf("world did not tick: %+v", w.Metrics())
		case <-time.After(5 * time.Millisecond):
		}
	}
	w.Stop()
	w.Stop()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for i, e := range entries {
		if e.Tick != uint64(i) {
			t.Fatalf("entry %d has tick %d", i, e.Tick)
		}
	}
	if len(w.Stats()) != 4 {
		t.Fatalf("stats for %d systems, want 4", len(w.Stats()))
	}
}

func TestSystemStats_MovingAverage(t *testing.T) {
	s := NewSystemStats()
	s.Observe("fov", 10*time.Millisecond)
	s.Observe("fov", 20*time.Millisecond)
	s.Observe("fov", 30*time.Millisecond)
	st := s.Snapshot()[0]
	if st.Avg != 20*time.Millisecond || st.Samples != 3 {
		t.Fatalf("avg %v samples %d", st.Avg, st.Samples)
	}
	for i := 0; i < 97; i++ {
		s.Observe("fov", 20*time.Millisecond)
	}
	if st := s.Snapshot()[0]; st.Samples != 100 {
		t.Fatalf("samples %d want 100", st.Samples)
	}
	s.Observe("fov", 7*time.Millisecond)
	if st := s.Snapshot()[0]; st.Samples != 1 || st.Avg != 7*time.Millisecond {
		t.Fatalf("window should restart: %+v", st)
	}
	s.Observe("memory", time.Millisecond)
	if s.Total() != 8*time.Millisecond {
		t.Fatalf("total %v", s.Total())
	}
}

func TestMemorySlice(t *testing.T) {
	w := newTestWorld(t, WorldConfig{SightRadius: 3, Generator: gen.Func(func(p Vec3i) (*gen.Tile, bool) {
		if p.X == 2 {
			return gen.TileWall, true
		}
		return gen.TileAir, false
	})})
	w.StepOnce(nil, Spawn{Kind: SpawnObserver, ID: "P", Pos: Vec3i{}})
	rows := w.MemorySlice("P", 3)
	if len(rows) != 7 {
		t.Fatalf("rows %d", len(rows))
	}
	mid := rows[3]
	if !strings.HasPrefix(mid, "...@.#") {
		t.Fatalf("middle row %q", mid)
	}
	if w.MemorySlice("nobody", 3) != nil {
		t.Fatalf("unknown observer should render nothing")
	}
}
