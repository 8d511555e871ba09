package world

import (
	"sort"
	"sync"
	"sync/atomic"

	"voxelfog.ai/internal/sim/world/fov"
	"voxelfog.ai/internal/sim/world/logic/ids"
	"voxelfog.ai/internal/sim/world/logic/mathx"
	"voxelfog.ai/internal/sim/world/memory"
	"voxelfog.ai/internal/sim/world/terrain/store"
)

type Vec3i = mathx.Vec3i

// Sight is rebuilt every tick by the fov system. Visible holds offsets
// relative to the observer.
type Sight struct {
	Radius  uint32
	Visible fov.Set
}

type Observer struct {
	ID     string
	Pos    Vec3i
	Sight  Sight
	Memory *memory.MapMemory
}

// Seeker walks one tile per tick toward the primary observer while Pursue
// is set. No path is cached between ticks.
type Seeker struct {
	ID     string
	Pos    Vec3i
	Pursue bool
}

const (
	SpawnObserver = "observer"
	SpawnSeeker   = "seeker"
)

// Spawn adds an observer or a seeker at a tick boundary. An empty ID is
// assigned by the world; a zero Radius means the configured sight radius.
type Spawn struct {
	Kind   string `json:"kind"`
	ID     string `json:"id,omitempty"`
	Pos    Vec3i  `json:"pos"`
	Radius int    `json:"radius,omitempty"`
}

// ObserverMove shifts an observer by one of the six unit directions.
type ObserverMove struct {
	ObserverID string `json:"observer_id"`
	Delta      Vec3i  `json:"delta"`
}

type RecordedStep struct {
	SeekerID string `json:"seeker_id"`
	From     Vec3i  `json:"from"`
	To       Vec3i  `json:"to"`
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type TickLogEntry struct {
	Tick         uint64         `json:"tick"`
	Spawns       []Spawn        `json:"spawns,omitempty"`
	Moves        []ObserverMove `json:"moves,omitempty"`
	Steps        []RecordedStep `json:"steps,omitempty"`
	Visible      int            `json:"visible"`
	Memorized    int            `json:"memorized"`
	LoadedChunks int            `json:"loaded_chunks"`
	Digest       string         `json:"digest"`
}

// World owns the chunk store, the observers and the seekers.
// All state must be accessed only from the world loop goroutine; Metrics and
// Stats are the exceptions.
type World struct {
	cfg WorldConfig

	tick atomic.Uint64

	chunks *store.ChunkStore
	fov    *fov.Engine

	observers []*Observer // spawn order; observers[0] is primary
	seekers   map[string]*Seeker

	// Filled by the pathfinding system, drained by movement.
	steps map[string]Vec3i

	moves    chan ObserverMove
	spawns   chan Spawn
	stop     chan struct{}
	stopOnce sync.Once

	nextObserverNum atomic.Uint64
	nextSeekerNum   atomic.Uint64

	tickLoggers []TickLogger

	stats   *SystemStats
	skipped uint64
	metrics atomic.Value
}

func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	chunks := store.NewChunkStore(cfg.ChunkSize, cfg.Generator)
	w := &World{
		cfg:     cfg,
		chunks:  chunks,
		fov:     &fov.Engine{Obstacles: chunks, Serial: cfg.SerialFOV},
		seekers: map[string]*Seeker{},
		steps:   map[string]Vec3i{},
		moves:   make(chan ObserverMove, 256),
		spawns:  make(chan Spawn, 256),
		stop:    make(chan struct{}),
		stats:   NewSystemStats(),
	}
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Chunks exposes the chunk store for read-mostly collaborators.
func (w *World) Chunks() *store.ChunkStore { return w.chunks }

// AddTickLogger registers a sink for per-tick records. Call before Run.
func (w *World) AddTickLogger(l TickLogger) {
	if l != nil {
		w.tickLoggers = append(w.tickLoggers, l)
	}
}

func (w *World) Primary() *Observer {
	if len(w.observers) == 0 {
		return nil
	}
	return w.observers[0]
}

func (w *World) Observer(id string) *Observer {
	for _, o := range w.observers {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Seekers returns copies ordered by ID.
func (w *World) Seekers() []Seeker {
	out := make([]Seeker, 0, len(w.seekers))
	for _, s := range w.seekers {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) sortedSeekers() []*Seeker {
	out := make([]*Seeker, 0, len(w.seekers))
	for _, s := range w.seekers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) occupiedByObserver(p Vec3i) bool {
	for _, o := range w.observers {
		if o.Pos == p {
			return true
		}
	}
	return false
}

func (w *World) occupiedBySeeker(p Vec3i) bool {
	for _, s := range w.seekers {
		if s.Pos == p {
			return true
		}
	}
	return false
}

// applySpawn returns the spawn as recorded (ID and radius resolved), or false
// when it was rejected.
func (w *World) applySpawn(s Spawn) (Spawn, bool) {
	if w.chunks.Obstacle(s.Pos) {
		w.cfg.Logger.Printf("spawn %s at %v rejected: obstacle", s.Kind, s.Pos)
		return s, false
	}
	switch s.Kind {
	case SpawnObserver:
		if s.ID == "" {
			s.ID = ids.ObserverID(w.nextObserverNum.Add(1))
		}
		if w.Observer(s.ID) != nil {
			w.cfg.Logger.Printf("spawn observer %s rejected: duplicate id", s.ID)
			return s, false
		}
		if s.Radius <= 0 {
			s.Radius = w.cfg.SightRadius
		}
		if s.Radius > fov.MaxRadius {
			s.Radius = fov.MaxRadius
		}
		bumpCounter(&w.nextObserverNum, ids.ObserverPrefix, s.ID)
		w.observers = append(w.observers, &Observer{
			ID:     s.ID,
			Pos:    s.Pos,
			Sight:  Sight{Radius: uint32(s.Radius)},
			Memory: memory.New(w.cfg.ChunkSize),
		})
		return s, true
	case SpawnSeeker:
		if w.occupiedByObserver(s.Pos) || w.occupiedBySeeker(s.Pos) {
			w.cfg.Logger.Printf("spawn seeker at %v rejected: occupied", s.Pos)
			return s, false
		}
		if s.ID == "" {
			s.ID = ids.SeekerID(w.nextSeekerNum.Add(1))
		}
		if _, dup := w.seekers[s.ID]; dup {
			w.cfg.Logger.Printf("spawn seeker %s rejected: duplicate id", s.ID)
			return s, false
		}
		s.Radius = 0
		bumpCounter(&w.nextSeekerNum, ids.SeekerPrefix, s.ID)
		w.seekers[s.ID] = &Seeker{ID: s.ID, Pos: s.Pos, Pursue: true}
		return s, true
	default:
		w.cfg.Logger.Printf("spawn kind %q rejected", s.Kind)
		return s, false
	}
}

// bumpCounter keeps generated ids ahead of explicit ones like "S0007".
func bumpCounter(c *atomic.Uint64, prefix, id string) {
	if n, ok := ids.ParseUintAfterPrefix(prefix, id); ok {
		c.Store(ids.MaxU64(c.Load(), n))
	}
}

func (w *World) applyMove(m ObserverMove) bool {
	o := w.Observer(m.ObserverID)
	if o == nil || m.Delta.Manhattan(Vec3i{}) != 1 {
		return false
	}
	to := o.Pos.Add(m.Delta)
	if w.chunks.Obstacle(to) {
		return false
	}
	o.Pos = to
	return true
}
