package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"voxview/internal/atlas"
	"voxview/internal/camera"
	"voxview/internal/chunks"
	"voxview/internal/config"
	"voxview/internal/export"
	"voxview/internal/graphics"
	"voxview/internal/input"
	"voxview/internal/meshing"
	"voxview/internal/profiling"
	"voxview/internal/texture"
	"voxview/internal/world"
)

func init() { runtime.LockOSThread() }

// Viewer holds everything the frame loop touches.
type Viewer struct {
	cfg    config.Config
	window *glfw.Window
	input  *input.InputManager
	camera *camera.Camera

	gen    *world.Generator
	lookup meshing.AtlasLookup
	store  *chunks.Store

	textures    *texture.Registry
	atlasTex    *texture.Handle
	skyTex      *texture.Handle
	chunkShader *graphics.Shader
	sky         *graphics.Skybox

	centre       world.ChunkCoord
	streamed     bool
	wireframe    bool
	profiling    bool
	cursorLocked bool

	fbWidth, fbHeight int
	frames            int
	lastFPSCheck      time.Time
}

func run(cfg config.Config) error {
	v := &Viewer{cfg: cfg, input: input.NewInputManager(), cursorLocked: true}
	defer v.teardown()

	if err := mainthread.CallErr(func() error {
		w, err := setupWindow(cfg.Window)
		if err != nil {
			return err
		}
		v.window = w
		v.input.SetCallbacks(w)
		return nil
	}); err != nil {
		return err
	}

	if err := v.load(); err != nil {
		return err
	}

	ctx := context.Background()
	v.lastFPSCheck = time.Now()
	for !quit.Load() {
		if !v.tick(ctx) {
			break
		}
	}
	return nil
}

func (v *Viewer) load() error {
	timer := profiling.Start("startup.atlas")
	a, err := buildAtlas(v.cfg.Atlas)
	if err != nil {
		return fmt.Errorf("atlas: %w", err)
	}
	timer.LogEnd(fmt.Sprintf("Atlas packed (%d textures)", a.Len()))

	v.textures = texture.NewRegistry(func(id uint32) {
		mainthread.Call(func() { graphics.DeleteTexture(id) })
	})
	if v.atlasTex, err = acquireAtlas(v.textures, a); err != nil {
		return err
	}

	if v.chunkShader, err = loadSkyAndShaders(v); err != nil {
		return err
	}

	table := meshing.DefaultTextureTable()
	if v.cfg.Atlas.Fallback != "" {
		table.SetFallback(atlas.TextureID(v.cfg.Atlas.Fallback))
	}
	v.lookup = table.Lookup(a)
	v.gen = v.cfg.NewGenerator()

	pool := meshing.NewPool(v.cfg.Workers)
	log.Printf("Chunk generation on %d workers", pool.Workers())
	v.store, err = chunks.NewStore(chunks.Options{
		Generator:   v.gen,
		Lookup:      v.lookup,
		Pool:        pool,
		Uploader:    graphics.ChunkUploader{},
		Atlas:       graphics.Texture{ID: v.atlasTex.ID(), Target: gl.TEXTURE_2D},
		CullBorders: v.cfg.World.CullChunkBorders,
		Verbose:     *verbose,
	})
	if err != nil {
		return err
	}

	c := v.cfg.Camera
	v.camera = camera.New(mgl32.Vec3{c.Position[0], c.Position[1], c.Position[2]}, c.Yaw, c.Pitch)
	v.camera.Speed = c.Speed
	v.camera.Sensitivity = c.Sensitivity
	v.camera.FOV = c.FOV
	v.camera.Near, v.camera.Far = c.Near, c.Far

	config.SetStreamRadius(v.cfg.World.StreamRadius, v.cfg.World.StreamVertical)
	return nil
}

func loadSkyAndShaders(v *Viewer) (*graphics.Shader, error) {
	chunkShader, skyShader, err := loadShaders(v.cfg)
	if err != nil {
		return nil, fmt.Errorf("shaders: %w", err)
	}
	mainthread.Call(func() {
		chunkShader.Use()
		chunkShader.SetInt("atlas", 0)
		chunkShader.SetVector3("lightDir", mgl32.Vec3{-0.4, -1, -0.3}.Normalize())
	})
	if skyShader == nil {
		return chunkShader, nil
	}

	v.skyTex, err = acquireSky(v.textures, v.cfg.Sky.Image)
	if err != nil {
		// The world is still viewable without a sky.
		log.Printf("sky disabled: %v", err)
		mainthread.Call(skyShader.Delete)
		return chunkShader, nil
	}
	mainthread.Call(func() {
		v.sky = graphics.NewSkybox(skyShader, v.skyTex.ID())
	})
	return chunkShader, nil
}

// tick runs one frame and reports whether the loop should continue.
func (v *Viewer) tick(ctx context.Context) bool {
	profiling.ResetFrame()

	var closing bool
	mainthread.Call(func() {
		defer profiling.Track("glfw.PollEvents")()
		glfw.PollEvents()
		closing = v.window.ShouldClose()
	})
	if closing || v.input.JustPressed(input.ActionQuit) {
		return false
	}

	v.handleActions()
	if v.cursorLocked {
		dx, dy := v.input.CursorDelta()
		v.camera.Look(dx, dy)
	}
	v.camera.Move(camera.Movement{
		Forward:  v.input.IsActive(input.ActionMoveForward),
		Backward: v.input.IsActive(input.ActionMoveBackward),
		Left:     v.input.IsActive(input.ActionMoveLeft),
		Right:    v.input.IsActive(input.ActionMoveRight),
		Up:       v.input.IsActive(input.ActionMoveUp),
		Down:     v.input.IsActive(input.ActionMoveDown),
	})

	if err := v.stream(ctx); err != nil {
		log.Printf("stream: %v", err)
	}

	mainthread.Call(v.render)
	v.input.PostUpdate()
	v.reportStats()
	return true
}

func (v *Viewer) handleActions() {
	if v.input.JustPressed(input.ActionToggleWireframe) {
		v.wireframe = !v.wireframe
	}
	if v.input.JustPressed(input.ActionToggleProfiling) {
		v.profiling = !v.profiling
	}
	if v.input.JustPressed(input.ActionToggleCursor) {
		v.cursorLocked = !v.cursorLocked
		mode := glfw.CursorNormal
		if v.cursorLocked {
			mode = glfw.CursorDisabled
		}
		mainthread.Call(func() { v.window.SetInputMode(glfw.CursorMode, mode) })
		v.input.ResetCursor()
	}
	if v.input.JustPressed(input.ActionRadiusUp) || v.input.JustPressed(input.ActionRadiusDown) {
		r, vert := config.GetStreamRadius()
		if v.input.JustPressed(input.ActionRadiusUp) {
			r++
		} else {
			r--
		}
		config.SetStreamRadius(r, vert)
		r, _ = config.GetStreamRadius()
		log.Printf("stream radius %d", r)
		v.streamed = false
	}
	if v.input.JustPressed(input.ActionExportChunk) {
		if path, err := v.exportCurrentChunk(); err != nil {
			log.Printf("export: %v", err)
		} else {
			log.Printf("exported %s", path)
		}
	}
}

// stream makes sure the chunks around the camera exist and are uploaded. It
// only does work when the camera enters a new chunk or the radius changes.
func (v *Viewer) stream(ctx context.Context) error {
	centre := world.ChunkOf(v.camera.Position, v.gen.Dims())
	if v.streamed && centre == v.centre {
		return nil
	}
	v.centre, v.streamed = centre, true

	timer := profiling.Start("world.stream")
	r, vert := config.GetStreamRadius()
	created := v.store.EnsureAround(centre, r, vert)
	if created == 0 {
		return nil
	}
	err := v.store.Flush(ctx)
	timer.LogEnd(fmt.Sprintf("World updated: %d new chunks, %d resident", created, v.store.Resident()))
	return err
}

// render runs on the main thread.
func (v *Viewer) render() {
	defer profiling.Track("render")()

	w, h := v.window.GetFramebufferSize()
	if w != v.fbWidth || h != v.fbHeight {
		v.fbWidth, v.fbHeight = w, h
		gl.Viewport(0, 0, int32(w), int32(h))
		v.camera.SetViewport(w, h)
	}

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	projection := v.camera.Projection()

	if v.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	}
	v.chunkShader.Use()
	v.chunkShader.SetMatrix4("projection", projection)
	v.chunkShader.SetMatrix4("view", v.camera.View())
	v.store.RenderCulled(v.chunkShader, v.camera.Frustum())
	if v.wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	if v.sky != nil {
		v.sky.Render(projection, v.camera.SkyView())
	}

	func() { defer profiling.Track("glfw.SwapBuffers")(); v.window.SwapBuffers() }()
}

func (v *Viewer) reportStats() {
	v.frames++
	if time.Since(v.lastFPSCheck) < time.Second {
		return
	}
	title := fmt.Sprintf("%s | %d fps | %d chunks | %d vertices", v.cfg.Window.Title, v.frames, v.store.Resident(), v.store.Vertices())
	mainthread.CallNonBlock(func() { v.window.SetTitle(title) })
	if v.profiling {
		log.Printf("frame: %s", profiling.TopN(5))
	}
	v.frames = 0
	v.lastFPSCheck = time.Now()
}

// exportCurrentChunk regenerates the chunk under the camera on the CPU and
// writes it as a compressed OBJ. Resident chunks no longer keep their vertices.
func (v *Viewer) exportCurrentChunk() (string, error) {
	coord := world.ChunkOf(v.camera.Position, v.gen.Dims())
	var opts []meshing.Option
	if v.cfg.World.CullChunkBorders {
		opts = append(opts, meshing.WithNeighbors(v.gen.Neighbors(coord)))
	}
	vertices, err := meshing.Generate(v.gen.Populate(coord), v.lookup, opts...)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("exports/chunk_%d_%d_%d.obj.zst", coord.X, coord.Y, coord.Z)
	return path, export.WriteFile(path, export.OBJ{
		Name:     fmt.Sprintf("chunk_%d_%d_%d", coord.X, coord.Y, coord.Z),
		Vertices: vertices,
		Offset:   coord.Translation(v.gen.Dims()),
	})
}

// teardown releases GPU resources in reverse order of creation.
func (v *Viewer) teardown() {
	if v.store != nil {
		v.store.Close()
	}
	if v.atlasTex != nil {
		v.atlasTex.Release()
	}
	if v.skyTex != nil {
		v.skyTex.Release()
	}
	if v.textures != nil {
		v.textures.Close()
	}
	mainthread.Call(func() {
		if v.sky != nil {
			v.sky.Delete()
		}
		if v.chunkShader != nil {
			v.chunkShader.Delete()
		}
		if v.window != nil {
			v.window.Destroy()
		}
		glfw.Terminate()
	})
}
