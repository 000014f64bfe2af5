package world

// Grid is a dense chunk volume of tile kinds stored in one flat buffer
// indexed by ((z*Y)+y)*X+x, so a z-major walk touches memory in order.
type Grid struct {
	dims  Dims
	tiles []TileKind
}

// NewGrid allocates an empty grid.
func NewGrid(d Dims) *Grid {
	return &Grid{
		dims:  d,
		tiles: make([]TileKind, d.Volume()),
	}
}

// Dims returns the grid dimensions.
func (g *Grid) Dims() Dims {
	return g.dims
}

func (g *Grid) inBounds(x, y, z int) bool {
	return x >= 0 && x < g.dims.X && y >= 0 && y < g.dims.Y && z >= 0 && z < g.dims.Z
}

func (g *Grid) index(x, y, z int) int {
	return ((z*g.dims.Y)+y)*g.dims.X + x
}

// At returns the tile at local coordinates. Anything outside the volume is empty.
func (g *Grid) At(x, y, z int) TileKind {
	if !g.inBounds(x, y, z) {
		return TileEmpty
	}
	return g.tiles[g.index(x, y, z)]
}

// Solid reports whether the cell at local coordinates is occupied.
func (g *Grid) Solid(x, y, z int) bool {
	return g.At(x, y, z).Solid()
}

// Set stores a tile. Writes outside the volume are ignored.
func (g *Grid) Set(x, y, z int, kind TileKind) {
	if !g.inBounds(x, y, z) {
		return
	}
	g.tiles[g.index(x, y, z)] = kind
}

// SetColumn fills the (x,z) column so every y < height is dirt and the rest is empty.
// height is clamped to [0, Y].
func (g *Grid) SetColumn(x, z, height int) {
	if x < 0 || x >= g.dims.X || z < 0 || z >= g.dims.Z {
		return
	}
	height = max(0, min(height, g.dims.Y))
	for y := 0; y < g.dims.Y; y++ {
		kind := TileEmpty
		if y < height {
			kind = TileDirt
		}
		g.tiles[g.index(x, y, z)] = kind
	}
}

// ColumnHeight returns one past the highest solid cell of a column, or 0 when the column is empty.
func (g *Grid) ColumnHeight(x, z int) int {
	for y := g.dims.Y - 1; y >= 0; y-- {
		if g.Solid(x, y, z) {
			return y + 1
		}
	}
	return 0
}

// Count returns the number of solid cells.
func (g *Grid) Count() int {
	n := 0
	for _, t := range g.tiles {
		if t.Solid() {
			n++
		}
	}
	return n
}
