package gen

// Tile is an immutable voxel descriptor shared by every voxel of its kind.
type Tile struct {
	Name     string `yaml:"name" json:"name"`
	Sprite   string `yaml:"sprite" json:"sprite"`
	Fallback string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Palette holds the shared tiles a generator hands out.
type Palette struct {
	Air     *Tile
	Ground  *Tile
	Wall    *Tile
	Boulder *Tile
}

var (
	TileAir     = &Tile{Name: "air", Sprite: "tileset:empty"}
	TileGround  = &Tile{Name: "ground", Sprite: "tileset:ground", Fallback: "tileset:wall"}
	TileWall    = &Tile{Name: "wall", Sprite: "tileset:wall"}
	TileBoulder = &Tile{Name: "boulder", Sprite: "tileset:boulder", Fallback: "tileset:wall"}
)

func DefaultPalette() Palette {
	return Palette{Air: TileAir, Ground: TileGround, Wall: TileWall, Boulder: TileBoulder}
}

func (p Palette) orDefault() Palette {
	d := DefaultPalette()
	if p.Air == nil {
		p.Air = d.Air
	}
	if p.Ground == nil {
		p.Ground = d.Ground
	}
	if p.Wall == nil {
		p.Wall = d.Wall
	}
	if p.Boulder == nil {
		p.Boulder = d.Boulder
	}
	return p
}
