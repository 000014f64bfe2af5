package atlas

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// TextureID names a texture inside the atlas.
type TextureID string

// Entry locates one texture inside the atlas bitmap.
//
// UVs are normalized to the atlas size. V grows with image rows (row 0 is V 0),
// which is how an RGBA buffer uploaded row-first lands in GL, so the visual
// bottom of a tile is its larger V.
type Entry struct {
	ID    TextureID
	Start mgl32.Vec2
	End   mgl32.Vec2
	// Bin is the pixel rectangle the tile was copied into.
	Bin image.Rectangle
}

// BottomLeft returns the UV of the tile's lower-left corner.
func (e Entry) BottomLeft() mgl32.Vec2 { return mgl32.Vec2{e.Start.X(), e.End.Y()} }

// BottomRight returns the UV of the tile's lower-right corner.
func (e Entry) BottomRight() mgl32.Vec2 { return e.End }

// TopLeft returns the UV of the tile's upper-left corner.
func (e Entry) TopLeft() mgl32.Vec2 { return e.Start }

// TopRight returns the UV of the tile's upper-right corner.
func (e Entry) TopRight() mgl32.Vec2 { return mgl32.Vec2{e.End.X(), e.Start.Y()} }

// Atlas is an immutable packed bitmap plus the location of every texture in it.
// It is shared by pointer between all chunks for the lifetime of the world.
type Atlas struct {
	img     *image.RGBA
	entries map[TextureID]Entry
	order   []TextureID
}

// Get returns the entry for id.
func (a *Atlas) Get(id TextureID) (Entry, bool) {
	e, ok := a.entries[id]
	return e, ok
}

// Image returns the packed bitmap. Callers must not modify it.
func (a *Atlas) Image() *image.RGBA {
	return a.img
}

// Size returns the bitmap side length in pixels.
func (a *Atlas) Size() int {
	return a.img.Bounds().Dx()
}

// Len returns the number of textures.
func (a *Atlas) Len() int {
	return len(a.entries)
}

// Entries returns all entries in the order they were added.
func (a *Atlas) Entries() []Entry {
	out := make([]Entry, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.entries[id])
	}
	return out
}
