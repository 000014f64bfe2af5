package meshing

import (
	"errors"
	"fmt"

	"voxview/internal/atlas"
	"voxview/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// VerticesPerFace is two triangles with no shared vertices.
	VerticesPerFace = 6
	// FloatsPerVertex is pos.xyz + uv.st + normal.xyz
	FloatsPerVertex = 8
)

// Vertex is one corner of an emitted triangle. The layout is flat float32s so a
// []Vertex can be handed to the GPU as an interleaved buffer.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Normal   mgl32.Vec3
}

// AtlasLookup resolves the texture drawn on one face of a tile kind.
type AtlasLookup func(kind world.TileKind, face Face) (atlas.Entry, bool)

var ErrMissingTexture = errors.New("meshing: no atlas entry")

type options struct {
	neighbors func(x, y, z int) bool
}

// Option configures Generate.
type Option func(*options)

// WithNeighbors reports solidity of cells beyond the chunk's horizontal borders,
// in chunk-local coordinates. Without it those borders are treated as open and
// their faces are always emitted. Cells above or below the chunk are always empty.
func WithNeighbors(solid func(x, y, z int) bool) Option {
	return func(o *options) {
		o.neighbors = solid
	}
}

// Generate walks every cell of grid (z, then y, then x) and emits the faces of
// solid cells whose neighbour across that face is empty. Positions are in chunk
// space with each unit cube centred on its integer cell index.
func Generate(grid *world.Grid, lookup AtlasLookup, opts ...Option) ([]Vertex, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d := grid.Dims()
	vertices := make([]Vertex, 0, 1024)
	entries := make(map[entryKey]atlas.Entry)

	for z := 0; z < d.Z; z++ {
		for y := 0; y < d.Y; y++ {
			for x := 0; x < d.X; x++ {
				kind := grid.At(x, y, z)
				if !kind.Solid() {
					continue
				}
				for _, face := range Faces {
					if occluded(grid, d, &o, face, x, y, z) {
						continue
					}
					key := entryKey{kind, face}
					entry, ok := entries[key]
					if !ok {
						entry, ok = lookup(kind, face)
						if !ok {
							return nil, fmt.Errorf("%w for %s %s face", ErrMissingTexture, kind, face)
						}
						entries[key] = entry
					}
					vertices = appendFace(vertices, face, entry, x, y, z)
				}
			}
		}
	}
	return vertices, nil
}

type entryKey struct {
	kind world.TileKind
	face Face
}

func occluded(grid *world.Grid, d world.Dims, o *options, face Face, x, y, z int) bool {
	fd := &faceTable[face]
	nx, ny, nz := x+fd.offset[0], y+fd.offset[1], z+fd.offset[2]
	if nx >= 0 && nx < d.X && ny >= 0 && ny < d.Y && nz >= 0 && nz < d.Z {
		return grid.Solid(nx, ny, nz)
	}
	if fd.vertical || o.neighbors == nil {
		return false
	}
	return o.neighbors(nx, ny, nz)
}

func appendFace(dst []Vertex, face Face, e atlas.Entry, x, y, z int) []Vertex {
	fd := &faceTable[face]
	uvs := [4]mgl32.Vec2{
		cornerBL: e.BottomLeft(),
		cornerBR: e.BottomRight(),
		cornerTR: e.TopRight(),
		cornerTL: e.TopLeft(),
	}
	center := mgl32.Vec3{float32(x), float32(y), float32(z)}
	for _, c := range quadOrder {
		dst = append(dst, Vertex{
			Position: center.Add(fd.corners[c]),
			UV:       uvs[c],
			Normal:   fd.normal,
		})
	}
	return dst
}

// FaceCount returns how many faces a vertex list holds.
func FaceCount(vertices []Vertex) int {
	return len(vertices) / VerticesPerFace
}

// Flatten copies vertices into an interleaved float32 slice.
func Flatten(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*FloatsPerVertex)
	for _, v := range vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.UV[0], v.UV[1],
			v.Normal[0], v.Normal[1], v.Normal[2],
		)
	}
	return out
}
