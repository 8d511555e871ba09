package tuning

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"voxelfog.ai/internal/sim/world/terrain/gen"
)

//go:embed tuning.schema.json
var schemaSrc string

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("tuning.schema.json", schemaSrc)
})

type Tuning struct {
	TickRateHz   int   `yaml:"tick_rate_hz" json:"tick_rate_hz" env:"FOG_TICK_RATE_HZ"`
	ChunkSize    int   `yaml:"chunk_size" json:"chunk_size" env:"FOG_CHUNK_SIZE"`
	SightRadius  int   `yaml:"sight_radius" json:"sight_radius" env:"FOG_SIGHT_RADIUS"`
	Seed         int64 `yaml:"seed" json:"seed" env:"FOG_SEED"`
	PathMaxNodes int   `yaml:"path_max_nodes" json:"path_max_nodes" env:"FOG_PATH_MAX_NODES"`

	// SerialFOV runs the six sweeps on the tick goroutine.
	SerialFOV bool `yaml:"serial_fov" json:"serial_fov"`

	Gen   Gen   `yaml:"gen" json:"gen"`
	Tiles Tiles `yaml:"tiles" json:"tiles"`
}

type Gen struct {
	GroundZ          int `yaml:"ground_z" json:"ground_z"`
	PuncturePermille int `yaml:"puncture_permille" json:"puncture_permille"`
	FeaturePermille  int `yaml:"feature_permille" json:"feature_permille"`
	FeatureMinR      int `yaml:"feature_min_r" json:"feature_min_r"`
	FeatureMaxR      int `yaml:"feature_max_r" json:"feature_max_r"`
}

type Tiles struct {
	Air     gen.Tile `yaml:"air" json:"air"`
	Ground  gen.Tile `yaml:"ground" json:"ground"`
	Wall    gen.Tile `yaml:"wall" json:"wall"`
	Boulder gen.Tile `yaml:"boulder" json:"boulder"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:   5,
		ChunkSize:    15,
		SightRadius:  8,
		Seed:         1337,
		PathMaxNodes: 4096,
		Gen: Gen{
			GroundZ:          0,
			PuncturePermille: 60,
			FeaturePermille:  350,
			FeatureMinR:      2,
			FeatureMaxR:      5,
		},
		Tiles: Tiles{
			Air:     *gen.TileAir,
			Ground:  *gen.TileGround,
			Wall:    *gen.TileWall,
			Boulder: *gen.TileBoulder,
		},
	}
}

// Load reads path over Defaults(), applies FOG_* environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return t, err
		}
		if err := yaml.Unmarshal(raw, &t); err != nil {
			return t, fmt.Errorf("tuning.yaml: %w", err)
		}
	}
	if err := env.Parse(&t); err != nil {
		return t, fmt.Errorf("tuning env: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// Validate checks t against the embedded JSON Schema.
func (t Tuning) Validate() error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("tuning schema: %w", err)
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("tuning invalid: %w", err)
	}
	if t.Gen.FeatureMinR > t.Gen.FeatureMaxR {
		return fmt.Errorf("tuning invalid: gen.feature_min_r %d > gen.feature_max_r %d", t.Gen.FeatureMinR, t.Gen.FeatureMaxR)
	}
	return nil
}

// Palette interns the configured tiles; every voxel of a kind shares one pointer.
func (t Tuning) Palette() gen.Palette {
	pick := func(cfg gen.Tile, def *gen.Tile) *gen.Tile {
		if strings.TrimSpace(cfg.Name) == "" {
			return def
		}
		if cfg == *def {
			return def
		}
		c := cfg
		return &c
	}
	return gen.Palette{
		Air:     pick(t.Tiles.Air, gen.TileAir),
		Ground:  pick(t.Tiles.Ground, gen.TileGround),
		Wall:    pick(t.Tiles.Wall, gen.TileWall),
		Boulder: pick(t.Tiles.Boulder, gen.TileBoulder),
	}
}

// Generator builds the terrain policy described by t.Gen.
func (t Tuning) Generator() gen.CaveGen {
	return gen.CaveGen{
		Seed:             t.Seed,
		GroundZ:          t.Gen.GroundZ,
		PuncturePermille: t.Gen.PuncturePermille,
		FeaturePermille:  t.Gen.FeaturePermille,
		FeatureMinR:      t.Gen.FeatureMinR,
		FeatureMaxR:      t.Gen.FeatureMaxR,
		Palette:          t.Palette(),
	}
}
