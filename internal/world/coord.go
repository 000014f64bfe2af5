package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Dims is the size of a chunk volume in voxels. All chunks of a world share it.
type Dims struct {
	X, Y, Z int
}

// Volume returns the number of cells in the volume.
func (d Dims) Volume() int {
	return d.X * d.Y * d.Z
}

// Valid reports whether every axis is positive.
func (d Dims) Valid() bool {
	return d.X > 0 && d.Y > 0 && d.Z > 0
}

// ChunkCoord is a chunk position in chunk-grid units.
type ChunkCoord struct {
	X, Y, Z int
}

// Origin returns the world-space voxel coordinate of the chunk's local (0,0,0).
func (c ChunkCoord) Origin(d Dims) (x, y, z int) {
	return c.X * d.X, c.Y * d.Y, c.Z * d.Z
}

// Translation returns the chunk origin as a render translation (coord * dims).
func (c ChunkCoord) Translation(d Dims) mgl32.Vec3 {
	x, y, z := c.Origin(d)
	return mgl32.Vec3{float32(x), float32(y), float32(z)}
}

// Add offsets the coordinate.
func (c ChunkCoord) Add(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// ChunkOf returns the chunk containing the world-space position p.
func ChunkOf(p mgl32.Vec3, d Dims) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(float64(p.X()) / float64(d.X))),
		Y: int(math.Floor(float64(p.Y()) / float64(d.Y))),
		Z: int(math.Floor(float64(p.Z()) / float64(d.Z))),
	}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod returns a non-negative remainder for positive b.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
