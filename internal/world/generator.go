package world

// Generator turns a seed into heightmap terrain. Every query is a pure function
// of the seed and world coordinates, so chunks can be generated in any order and
// on any goroutine and still agree at their borders.
type Generator struct {
	seed          int64
	dims          Dims
	terrainHeight int
	sandLevel     int
	field         *Field
}

// GeneratorOption tweaks a Generator at construction.
type GeneratorOption func(*Generator)

// WithSandLevel sets the column height at or below which surfaces are sand.
// A negative level disables sand.
func WithSandLevel(level int) GeneratorOption {
	return func(g *Generator) {
		g.sandLevel = level
	}
}

// NewGenerator creates a generator. terrainHeight is the tallest possible column in
// world voxels; values <= 0 fall back to the chunk height.
func NewGenerator(seed int64, dims Dims, terrainHeight int, s NoiseSettings, opts ...GeneratorOption) *Generator {
	if terrainHeight <= 0 {
		terrainHeight = dims.Y
	}
	g := &Generator{
		seed:          seed,
		dims:          dims,
		terrainHeight: terrainHeight,
		sandLevel:     terrainHeight * 3 / 8,
		field:         NewField(seed, s),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Seed returns the world seed.
func (g *Generator) Seed() int64 { return g.seed }

// Dims returns the chunk dimensions.
func (g *Generator) Dims() Dims { return g.dims }

// TerrainHeight returns the maximum column height.
func (g *Generator) TerrainHeight() int { return g.terrainHeight }

// HeightAt returns the surface height of world column (worldX, worldZ): every
// voxel with world y below it is solid.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	return g.field.Height(worldX, worldZ, g.terrainHeight)
}

// SolidAt reports whether the world voxel is solid.
func (g *Generator) SolidAt(worldX, worldY, worldZ int) bool {
	return worldY < g.HeightAt(worldX, worldZ)
}

// TileAt returns the tile kind of a world voxel.
func (g *Generator) TileAt(worldX, worldY, worldZ int) TileKind {
	return g.paint(g.HeightAt(worldX, worldZ), worldY)
}

func (g *Generator) paint(height, worldY int) TileKind {
	if worldY >= height {
		return TileEmpty
	}
	depth := height - 1 - worldY
	switch {
	case height <= g.sandLevel && depth < 3:
		return TileSand
	case depth == 0:
		return TileGrass
	case depth <= 3:
		return TileDirt
	default:
		return TileStone
	}
}

// Populate builds the voxel grid of one chunk.
func (g *Generator) Populate(coord ChunkCoord) *Grid {
	grid := NewGrid(g.dims)
	baseX, baseY, baseZ := coord.Origin(g.dims)
	for z, nz := 0, g.dims.Z; z < nz; z++ {
		for x, nx := 0, g.dims.X; x < nx; x++ {
			height := g.HeightAt(baseX+x, baseZ+z)
			grid.SetColumn(x, z, height-baseY)
			for y, ny := 0, grid.ColumnHeight(x, z); y < ny; y++ {
				grid.Set(x, y, z, g.paint(height, baseY+y))
			}
		}
	}
	return grid
}

// Neighbors returns a solidity query for cells just outside a chunk, in that
// chunk's local coordinates.
func (g *Generator) Neighbors(coord ChunkCoord) func(x, y, z int) bool {
	baseX, baseY, baseZ := coord.Origin(g.dims)
	return func(x, y, z int) bool {
		return g.SolidAt(baseX+x, baseY+y, baseZ+z)
	}
}

// ChunkOfVoxel returns the chunk containing a world voxel and its local coordinates.
func (g *Generator) ChunkOfVoxel(worldX, worldY, worldZ int) (ChunkCoord, int, int, int) {
	c := ChunkCoord{
		X: floorDiv(worldX, g.dims.X),
		Y: floorDiv(worldY, g.dims.Y),
		Z: floorDiv(worldZ, g.dims.Z),
	}
	return c, mod(worldX, g.dims.X), mod(worldY, g.dims.Y), mod(worldZ, g.dims.Z)
}
