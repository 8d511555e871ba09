package worldtest

import (
	"testing"

	world "voxelfog.ai/internal/sim/world"
	"voxelfog.ai/internal/sim/world/terrain/gen"
)

func openCfg(sight int) world.WorldConfig {
	return world.WorldConfig{ID: "test", SightRadius: sight, Generator: gen.Flat{Tile: gen.TileAir}}
}

func stepsFor(entries []world.TickLogEntry, seekerID string) []world.RecordedStep {
	var out []world.RecordedStep
	for _, e := range entries {
		for _, s := range e.Steps {
			if s.SeekerID == seekerID {
				out = append(out, s)
			}
		}
	}
	return out
}

func stepUntilStill(t *testing.T, h *Harness, limit int) {
	t.Helper()
	for i := 0; i < limit; i++ {
		if len(h.StepNoop().Steps) == 0 {
			return
		}
	}
	t.Fatalf("stepUntilStill: seekers still moving after %d ticks", limit)
}
