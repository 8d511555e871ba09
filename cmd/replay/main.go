package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "voxelfog.ai/internal/persistence/log"
	"voxelfog.ai/internal/sim/tuning"
	"voxelfog.ai/internal/sim/world"
)

var errStop = errors.New("stop")

func main() {
	var (
		worldDir = flag.String("world_dir", "", "world data dir containing tuning.json and events/")
		fromTick = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *worldDir == "" {
		fmt.Fprintln(os.Stderr, "missing -world_dir")
		os.Exit(2)
	}

	checked, err := replayDir(*worldDir, *fromTick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}

func loadTuning(path string) (tuning.Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return tuning.Tuning{}, err
	}
	var t tuning.Tuning
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, t.Validate()
}

// replayDir re-runs a recorded world from tick 0 and compares every digest.
func replayDir(worldDir string, verifyFrom, toTick uint64) (uint64, error) {
	tune, err := loadTuning(filepath.Join(worldDir, "tuning.json"))
	if err != nil {
		return 0, fmt.Errorf("load tuning: %w", err)
	}
	w, err := world.New(world.ConfigFromTuning(tune))
	if err != nil {
		return 0, fmt.Errorf("world: %w", err)
	}

	files, err := persistlog.ListTickLogs(filepath.Join(worldDir, "events"))
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no events files found in %s", worldDir)
	}

	var checked uint64
	for _, path := range files {
		err := persistlog.ReadTickLog(path, func(entry world.TickLogEntry) error {
			if toTick != 0 && entry.Tick > toTick {
				return errStop
			}
			if entry.Tick != w.CurrentTick() {
				return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", w.CurrentTick(), entry.Tick, filepath.Base(path))
			}
			tick, gotDigest := w.StepOnce(entry.Moves, entry.Spawns...)
			if tick != entry.Tick {
				return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
			}
			if tick >= verifyFrom {
				checked++
				if gotDigest != entry.Digest {
					return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
				}
			}
			return nil
		})
		if errors.Is(err, errStop) {
			break
		}
		if err != nil {
			return checked, err
		}
	}
	return checked, nil
}
