package world

import (
	"fmt"
	"io"
	"log"
	"os"

	"voxelfog.ai/internal/sim/tuning"
	"voxelfog.ai/internal/sim/world/fov"
	"voxelfog.ai/internal/sim/world/logic/pathfind"
	"voxelfog.ai/internal/sim/world/terrain/gen"
	"voxelfog.ai/internal/sim/world/terrain/store"
)

// DefaultLogOutput receives world logs when WorldConfig.Logger is nil.
var DefaultLogOutput io.Writer = os.Stderr

type WorldConfig struct {
	ID           string
	TickRateHz   int
	ChunkSize    int
	SightRadius  int
	Seed         int64
	PathMaxNodes int
	SerialFOV    bool

	// Generator fills new chunks. Nil means the seeded cave generator.
	Generator gen.Generator

	Logger *log.Logger
}

// ConfigFromTuning maps a validated tuning file onto a world config.
func ConfigFromTuning(t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:           "WORLD",
		TickRateHz:   t.TickRateHz,
		ChunkSize:    t.ChunkSize,
		SightRadius:  t.SightRadius,
		Seed:         t.Seed,
		PathMaxNodes: t.PathMaxNodes,
		SerialFOV:    t.SerialFOV,
		Generator:    t.Generator(),
	}
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "WORLD"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 5
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = store.DefaultChunkSize
	}
	if c.SightRadius < 0 {
		c.SightRadius = 0
	}
	if c.PathMaxNodes <= 0 {
		c.PathMaxNodes = pathfind.DefaultMaxNodes
	}
	if c.Generator == nil {
		d := tuning.Defaults()
		d.Seed = c.Seed
		c.Generator = d.Generator()
	}
	if c.Logger == nil {
		c.Logger = log.New(DefaultLogOutput, "[world] ", log.LstdFlags|log.Lmicroseconds)
	}
}

func (c WorldConfig) validate() error {
	if c.SightRadius > fov.MaxRadius {
		return fmt.Errorf("sight radius %d exceeds %d", c.SightRadius, fov.MaxRadius)
	}
	return nil
}
