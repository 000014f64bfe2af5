package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// unit cube, 36 vertices, seen from inside
var skyboxVertices = []float32{
	-1, 1, -1, -1, -1, -1, 1, -1, -1,
	1, -1, -1, 1, 1, -1, -1, 1, -1,

	-1, -1, 1, -1, -1, -1, -1, 1, -1,
	-1, 1, -1, -1, 1, 1, -1, -1, 1,

	1, -1, -1, 1, -1, 1, 1, 1, 1,
	1, 1, 1, 1, 1, -1, 1, -1, -1,

	-1, -1, 1, -1, 1, 1, 1, 1, 1,
	1, 1, 1, 1, -1, 1, -1, -1, 1,

	-1, 1, -1, 1, 1, -1, 1, 1, 1,
	1, 1, 1, -1, 1, 1, -1, 1, -1,

	-1, -1, -1, -1, -1, 1, 1, -1, -1,
	1, -1, -1, -1, -1, 1, 1, -1, 1,
}

// Skybox draws a cube map behind everything else.
type Skybox struct {
	shader   *Shader
	cubemap  Texture
	vao, vbo uint32
}

// NewSkybox creates the cube geometry and takes ownership of shader. cubemap is
// a texture from UploadCubemap.
func NewSkybox(shader *Shader, cubemap uint32) *Skybox {
	s := &Skybox{
		shader:  shader,
		cubemap: Texture{ID: cubemap, Target: gl.TEXTURE_CUBE_MAP},
	}
	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(skyboxVertices)*4, gl.Ptr(skyboxVertices), gl.STATIC_DRAW)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	s.shader.Use()
	s.shader.SetInt("skybox", 0)
	return s
}

// Render draws the sky. view should have its translation removed.
func (s *Skybox) Render(projection, view mgl32.Mat4) {
	gl.DepthMask(false)
	gl.DepthFunc(gl.LEQUAL)
	gl.Disable(gl.CULL_FACE)

	s.shader.Use()
	s.shader.SetMatrix4("projection", projection)
	s.shader.SetMatrix4("view", view)
	s.cubemap.Bind(0)
	gl.BindVertexArray(s.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(skyboxVertices)/3))
	gl.BindVertexArray(0)

	gl.Enable(gl.CULL_FACE)
	gl.DepthFunc(gl.LESS)
	gl.DepthMask(true)
}

// Delete frees the geometry and the shader. The cube map belongs to whoever
// uploaded it.
func (s *Skybox) Delete() {
	s.shader.Delete()
	gl.DeleteBuffers(1, &s.vbo)
	gl.DeleteVertexArrays(1, &s.vao)
}
