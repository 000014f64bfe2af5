package world

// TileKind identifies what occupies a voxel cell. The zero value is empty.
type TileKind uint8

const (
	TileEmpty TileKind = iota
	TileDirt
	TileGrass
	TileSand
	TileStone

	tileKindCount
)

var tileNames = [tileKindCount]string{
	TileEmpty: "empty",
	TileDirt:  "dirt",
	TileGrass: "grass",
	TileSand:  "sand",
	TileStone: "stone",
}

// Solid reports whether the tile occludes its neighbours.
func (k TileKind) Solid() bool {
	return k != TileEmpty
}

func (k TileKind) String() string {
	if k < tileKindCount {
		return tileNames[k]
	}
	return "unknown"
}

// TileKinds returns every non-empty tile kind in declaration order.
func TileKinds() []TileKind {
	kinds := make([]TileKind, 0, tileKindCount-1)
	for k := TileEmpty + 1; k < tileKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
