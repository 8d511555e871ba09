package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"voxelfog.ai/internal/persistence/indexdb"
	persistlog "voxelfog.ai/internal/persistence/log"
	"voxelfog.ai/internal/sim/tuning"
	"voxelfog.ai/internal/sim/world"
)

func main() {
	var (
		worldID    = flag.String("world", "world_1", "world id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite tick index")
		ticks      = flag.Uint64("ticks", 0, "run this many ticks as fast as possible (0: tick in real time until SIGINT)")
		seekers    = flag.Int("seekers", 4, "number of seekers spawned around the observer")
		walk       = flag.String("walk", "+x+x+y+y-x-x-y-y", "observer walk, one unit move per tick, repeated")
		slice      = flag.Int("slice", 12, "half width of the memory slice printed on exit (0 to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[fogsim] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		if tune, err = tuning.Load(""); err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	steps, err := parseWalk(*walk)
	if err != nil {
		logger.Fatalf("walk: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}
	// Replay rebuilds the world from this file.
	if err := writeJSON(filepath.Join(worldDir, "tuning.json"), tune); err != nil {
		logger.Fatalf("write tuning: %v", err)
	}

	cfg := world.ConfigFromTuning(tune)
	cfg.ID = *worldID
	cfg.Logger = logger
	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	// Every run starts at tick 0; older segments would break replay.
	if n, err := persistlog.RemoveTickLogs(filepath.Join(worldDir, "events")); err != nil {
		logger.Fatalf("clear tick log: %v", err)
	} else if n > 0 {
		logger.Printf("removed %d tick log segments from a previous run", n)
	}
	tickLog := persistlog.NewTickLogger(worldDir)
	defer tickLog.Close()
	w.AddTickLogger(tickLog)

	if !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "world.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer func() {
			logger.Printf("index stats: %+v", idx.Stats())
			_ = idx.Close()
		}()
		if err := idx.UpsertTuning(*worldID, tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
		w.AddTickLogger(idx)
	}

	spawns := initialSpawns(w, tune.SightRadius, *seekers)
	moveAt := func(tick uint64) []world.ObserverMove {
		if len(steps) == 0 || tick == 0 {
			return nil
		}
		return []world.ObserverMove{{ObserverID: "P", Delta: steps[(tick-1)%uint64(len(steps))]}}
	}

	if *ticks > 0 {
		start := time.Now()
		w.StepOnce(nil, spawns...)
		for t := uint64(1); t < *ticks; t++ {
			w.StepOnce(moveAt(t))
		}
		logger.Printf("ran %d ticks in %s", *ticks, time.Since(start).Round(time.Millisecond))
	} else {
		ctx, cancel := signalContext()
		defer cancel()
		for _, s := range spawns {
			if err := w.Spawn(ctx, s); err != nil {
				logger.Fatalf("spawn: %v", err)
			}
		}
		go feedMoves(ctx, w, moveAt)
		logger.Printf("world %s running at %d Hz", w.ID(), w.TickRateHz())
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("run: %v", err)
		}
	}

	m := w.Metrics()
	logger.Printf("tick=%d observers=%d seekers=%d loaded_chunks=%d visible=%d memorized=%d skipped=%d step_ms=%.3f",
		m.Tick, m.Observers, m.Seekers, m.LoadedChunks, m.Visible, m.Memorized, m.SkippedSystems, m.StepMS)
	for _, st := range w.Stats() {
		logger.Printf("%s system elapsed: %s", st.System, st.Avg)
	}
	if *slice > 0 {
		if p := w.Primary(); p != nil {
			fmt.Printf("memory slice z=%d around %v\n", p.Pos.Z, p.Pos)
			for _, row := range w.MemorySlice(p.ID, *slice) {
				fmt.Println(row)
			}
		}
	}
}

// initialSpawns places the observer on the first open tile at or above the
// origin and seekers on a ring just outside its sight.
func initialSpawns(w *world.World, sight, seekers int) []world.Spawn {
	out := []world.Spawn{{Kind: world.SpawnObserver, ID: "P", Pos: freeAbove(w, world.Vec3i{Z: 1})}}
	ring := sight + 2
	corners := []world.Vec3i{{X: ring}, {Y: ring}, {X: -ring}, {Y: -ring}, {X: ring, Y: ring}, {X: -ring, Y: -ring}, {X: ring, Y: -ring}, {X: -ring, Y: ring}}
	for i := 0; i < seekers; i++ {
		c := corners[i%len(corners)]
		c.X += i / len(corners)
		c.Z = 1
		out = append(out, world.Spawn{Kind: world.SpawnSeeker, Pos: freeAbove(w, c)})
	}
	return out
}

func freeAbove(w *world.World, p world.Vec3i) world.Vec3i {
	for i := 0; i < 64; i++ {
		if !w.Chunks().Obstacle(p) {
			return p
		}
		p.Z++
	}
	return p
}

// parseWalk turns "+x-y+z" into unit deltas.
func parseWalk(s string) ([]world.Vec3i, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("bad walk %q", s)
	}
	out := make([]world.Vec3i, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		sign := 1
		switch s[i] {
		case '+':
		case '-':
			sign = -1
		default:
			return nil, fmt.Errorf("bad sign %q at %d", s[i], i)
		}
		var d world.Vec3i
		switch s[i+1] {
		case 'x', 'X':
			d.X = sign
		case 'y', 'Y':
			d.Y = sign
		case 'z', 'Z':
			d.Z = sign
		default:
			return nil, fmt.Errorf("bad axis %q at %d", s[i+1], i+1)
		}
		out = append(out, d)
	}
	return out, nil
}

func feedMoves(ctx context.Context, w *world.World, moveAt func(uint64) []world.ObserverMove) {
	ticker := time.NewTicker(time.Second / time.Duration(w.TickRateHz()))
	defer ticker.Stop()
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		tick := w.Metrics().Tick
		if tick == last {
			continue
		}
		last = tick
		for _, m := range moveAt(tick) {
			if err := w.Move(ctx, m); err != nil {
				return
			}
		}
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
