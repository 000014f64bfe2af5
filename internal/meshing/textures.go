package meshing

import (
	"voxview/internal/atlas"
	"voxview/internal/world"
)

// TextureTable maps tile kinds and faces to atlas texture ids. A face-specific id
// wins over the kind's id, which wins over the fallback; the first one present in
// the atlas is used, so a world with only one texture loaded still renders.
type TextureTable struct {
	faces    map[world.TileKind]map[Face]atlas.TextureID
	kinds    map[world.TileKind]atlas.TextureID
	fallback atlas.TextureID
}

// NewTextureTable creates an empty table.
func NewTextureTable(fallback atlas.TextureID) *TextureTable {
	return &TextureTable{
		faces:    make(map[world.TileKind]map[Face]atlas.TextureID),
		kinds:    make(map[world.TileKind]atlas.TextureID),
		fallback: fallback,
	}
}

// DefaultTextureTable returns the table for the stock tile set.
func DefaultTextureTable() *TextureTable {
	return NewTextureTable("dirt").
		SetKind(world.TileDirt, "dirt").
		SetKind(world.TileSand, "sand").
		SetKind(world.TileStone, "stone").
		SetKind(world.TileGrass, "grass_side").
		SetFace(world.TileGrass, FaceTop, "grass_top").
		SetFace(world.TileGrass, FaceBottom, "dirt")
}

// SetKind assigns the texture used on every face of kind.
func (t *TextureTable) SetKind(kind world.TileKind, id atlas.TextureID) *TextureTable {
	t.kinds[kind] = id
	return t
}

// SetFace assigns the texture used on one face of kind.
func (t *TextureTable) SetFace(kind world.TileKind, face Face, id atlas.TextureID) *TextureTable {
	if t.faces[kind] == nil {
		t.faces[kind] = make(map[Face]atlas.TextureID)
	}
	t.faces[kind][face] = id
	return t
}

// SetFallback replaces the fallback id.
func (t *TextureTable) SetFallback(id atlas.TextureID) *TextureTable {
	t.fallback = id
	return t
}

// Resolve picks the id for (kind, face) among those for which has returns true.
func (t *TextureTable) Resolve(kind world.TileKind, face Face, has func(atlas.TextureID) bool) (atlas.TextureID, bool) {
	if id, ok := t.faces[kind][face]; ok && has(id) {
		return id, true
	}
	if id, ok := t.kinds[kind]; ok && has(id) {
		return id, true
	}
	if t.fallback != "" && has(t.fallback) {
		return t.fallback, true
	}
	return "", false
}

// Lookup binds the table to an atlas. The result only reads from both and is
// safe to share between generation workers.
func (t *TextureTable) Lookup(a *atlas.Atlas) AtlasLookup {
	has := func(id atlas.TextureID) bool {
		_, ok := a.Get(id)
		return ok
	}
	return func(kind world.TileKind, face Face) (atlas.Entry, bool) {
		id, ok := t.Resolve(kind, face, has)
		if !ok {
			return atlas.Entry{}, false
		}
		return a.Get(id)
	}
}
