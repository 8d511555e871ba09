package world

import (
	"errors"
	"time"
)

type system struct {
	name string
	run  func(nowTick uint64) error
}

func (w *World) systems(steps *[]RecordedStep) []system {
	return []system{
		{"fov", w.systemFOV},
		{"memory", w.systemMemory},
		{"pathfinding", w.systemPathfinding},
		{"movement", func(nowTick uint64) error {
			var err error
			*steps, err = w.systemMovement(nowTick)
			return err
		}},
	}
}

func (w *World) stepInternal(moves []ObserverMove, spawns []Spawn) TickLogEntry {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	// Spawns and observer moves apply at the tick boundary, before any system.
	recordedSpawns := make([]Spawn, 0, len(spawns))
	for _, s := range spawns {
		if rec, ok := w.applySpawn(s); ok {
			recordedSpawns = append(recordedSpawns, rec)
		}
	}
	recordedMoves := make([]ObserverMove, 0, len(moves))
	for _, m := range moves {
		if w.applyMove(m) {
			recordedMoves = append(recordedMoves, m)
		}
	}

	var steps []RecordedStep
	for _, sys := range w.systems(&steps) {
		start := time.Now()
		err := sys.run(nowTick)
		w.stats.Observe(sys.name, time.Since(start))
		if err == nil {
			continue
		}
		w.skipped++
		if errors.Is(err, ErrMissingState) {
			w.cfg.Logger.Printf("tick %d: SKIP %s: %v", nowTick, sys.name, err)
		} else {
			w.cfg.Logger.Printf("tick %d: %s failed: %v", nowTick, sys.name, err)
		}
	}

	entry := TickLogEntry{
		Tick:         nowTick,
		Spawns:       recordedSpawns,
		Moves:        recordedMoves,
		Steps:        steps,
		LoadedChunks: w.chunks.Len(),
	}
	if p := w.Primary(); p != nil {
		entry.Visible = p.Sight.Visible.Len()
		entry.Memorized = p.Memory.Len()
	}
	entry.Digest = w.stateDigest(nowTick)
	for _, l := range w.tickLoggers {
		if err := l.WriteTick(entry); err != nil {
			w.cfg.Logger.Printf("tick %d: tick log: %v", nowTick, err)
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)
	w.metrics.Store(WorldMetrics{
		Tick:           nextTick,
		Observers:      len(w.observers),
		Seekers:        len(w.seekers),
		LoadedChunks:   entry.LoadedChunks,
		Visible:        entry.Visible,
		Memorized:      entry.Memorized,
		SkippedSystems: w.skipped,
		StepMS:         stepMS,
	})
	return entry
}
