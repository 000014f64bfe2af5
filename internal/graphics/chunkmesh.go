package graphics

import (
	"fmt"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v4.1-core/gl"

	"voxview/internal/chunks"
	"voxview/internal/meshing"
	"voxview/internal/world"
)

// ChunkMesh is an interleaved vertex buffer holding one chunk.
// Layout: location 0 position vec3, 1 uv vec2, 2 normal vec3.
type ChunkMesh struct {
	vao, vbo uint32
	count    int32
}

// Draw issues the draw call. It must run on the main thread, inside the frame.
func (m *ChunkMesh) Draw() {
	if m.count == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, m.count)
}

// Release frees the GPU buffers.
func (m *ChunkMesh) Release() {
	if m.vao == 0 {
		return
	}
	mainthread.Call(func() {
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteVertexArrays(1, &m.vao)
	})
	m.vao, m.vbo, m.count = 0, 0, 0
}

// ChunkUploader creates ChunkMeshes on the main thread. Call it from any
// goroutine except the main thread itself.
type ChunkUploader struct{}

func (ChunkUploader) Upload(_ world.ChunkCoord, vertices []meshing.Vertex) (chunks.Mesh, error) {
	m := &ChunkMesh{count: int32(len(vertices))}
	if len(vertices) == 0 {
		return m, nil
	}
	data := meshing.Flatten(vertices)

	var err error
	mainthread.Call(func() {
		gl.GenVertexArrays(1, &m.vao)
		gl.GenBuffers(1, &m.vbo)
		gl.BindVertexArray(m.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

		stride := int32(meshing.FloatsPerVertex * 4)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 3*4)
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(2, 3, gl.FLOAT, false, stride, 5*4)
		gl.EnableVertexAttribArray(2)

		gl.BindVertexArray(0)
		if code := gl.GetError(); code != gl.NO_ERROR {
			gl.DeleteBuffers(1, &m.vbo)
			gl.DeleteVertexArrays(1, &m.vao)
			err = fmt.Errorf("upload %d vertices: gl error 0x%x", len(vertices), code)
		}
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
