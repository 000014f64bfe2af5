package chunks

import (
	"sync/atomic"

	"voxview/internal/meshing"
	"voxview/internal/world"
)

// State is a chunk's position in its lifecycle.
type State uint32

const (
	StatePending   State = iota // queued for generation
	StateGenerated              // vertices ready, not yet uploaded
	StateResident               // uploaded and drawable
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGenerated:
		return "generated"
	case StateResident:
		return "resident"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Chunk is one cell of the chunk grid.
//
// grid and vertices are written by the generation worker and read by Flush
// after the batch has been joined; mesh is only touched by Flush, Render and Close.
type Chunk struct {
	coord world.ChunkCoord
	dims  world.Dims
	seed  int64

	state atomic.Uint32

	grid        *world.Grid
	vertices    []meshing.Vertex
	vertexCount int
	solid       int
	mesh        Mesh
}

func newChunk(coord world.ChunkCoord, dims world.Dims, seed int64) *Chunk {
	return &Chunk{coord: coord, dims: dims, seed: seed}
}

// Coord returns the chunk's grid coordinate.
func (c *Chunk) Coord() world.ChunkCoord { return c.coord }

// Dims returns the chunk size in voxels.
func (c *Chunk) Dims() world.Dims { return c.dims }

// Seed returns the world seed the chunk was generated from.
func (c *Chunk) Seed() int64 { return c.seed }

// State returns the current lifecycle state.
func (c *Chunk) State() State {
	return State(c.state.Load())
}

func (c *Chunk) setState(s State) {
	c.state.Store(uint32(s))
}

// VertexCount returns the number of vertices generated for the chunk.
// Valid once the chunk is resident.
func (c *Chunk) VertexCount() int {
	if c.State() != StateResident {
		return 0
	}
	return c.vertexCount
}

// SolidCount returns the number of solid voxels. Valid once the chunk is resident.
func (c *Chunk) SolidCount() int {
	if c.State() != StateResident {
		return 0
	}
	return c.solid
}

// freeCPU drops the data that only the upload needed.
func (c *Chunk) freeCPU() {
	c.grid = nil
	c.vertices = nil
}
