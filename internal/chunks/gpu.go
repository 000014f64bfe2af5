package chunks

import (
	"voxview/internal/meshing"
	"voxview/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is a chunk's vertex data resident on the GPU.
type Mesh interface {
	Draw()
	Release()
}

// Uploader turns generated vertices into a Mesh. It is only called from Flush,
// one chunk at a time, so implementations may touch the graphics context.
type Uploader interface {
	Upload(coord world.ChunkCoord, vertices []meshing.Vertex) (Mesh, error)
}

// Uniforms receives per-chunk shader parameters during Render.
type Uniforms interface {
	SetMatrix4(name string, m mgl32.Mat4)
}

// AtlasBinder binds the shared atlas texture to a texture unit.
type AtlasBinder interface {
	Bind(unit uint32)
}

// Culler decides whether a world-space box can be visible.
type Culler interface {
	IntersectsAABB(lo, hi mgl32.Vec3) bool
}
