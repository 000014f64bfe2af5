package main

import (
	"fmt"
	"log"

	"github.com/faiface/mainthread"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"voxview/internal/atlas"
	"voxview/internal/config"
	"voxview/internal/graphics"
	"voxview/internal/texture"
)

// setupWindow must run on the main thread.
func setupWindow(cfg config.Window) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Samples, cfg.Samples)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl: %w", err)
	}
	log.Printf("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		window.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	if cfg.Samples > 0 {
		gl.Enable(gl.MULTISAMPLE)
	}
	gl.ClearColor(0.53, 0.71, 0.92, 1)

	return window, nil
}

// buildAtlas packs the configured textures on the CPU.
func buildAtlas(cfg config.Atlas) (*atlas.Atlas, error) {
	b := atlas.NewBuilder(cfg.Size, cfg.TileSize)
	for _, t := range cfg.Textures {
		b.Add(atlas.TextureID(t.ID), t.Path)
	}
	return b.Build()
}

// acquireAtlas uploads the atlas bitmap through the registry.
func acquireAtlas(reg *texture.Registry, a *atlas.Atlas) (*texture.Handle, error) {
	return reg.Acquire("atlas", func() (uint32, error) {
		var id uint32
		mainthread.Call(func() {
			id = graphics.UploadAtlas(a.Image())
		})
		return id, nil
	})
}

// acquireSky loads the cross-layout sky image and uploads it as a cube map.
func acquireSky(reg *texture.Registry, path string) (*texture.Handle, error) {
	return reg.Acquire("sky:"+path, func() (uint32, error) {
		img, err := atlas.LoadImage(path)
		if err != nil {
			return 0, err
		}
		faces, err := texture.SplitCross(img)
		if err != nil {
			return 0, err
		}
		var id uint32
		mainthread.Call(func() {
			id = graphics.UploadCubemap(faces)
		})
		return id, nil
	})
}

func loadShaders(cfg config.Config) (chunk, sky *graphics.Shader, err error) {
	err = mainthread.CallErr(func() error {
		var err error
		chunk, err = graphics.NewShader(cfg.Shaders.ChunkVertex, cfg.Shaders.ChunkFragment)
		if err != nil {
			return err
		}
		if !cfg.Sky.Enabled {
			return nil
		}
		sky, err = graphics.NewShader(cfg.Shaders.SkyboxVertex, cfg.Shaders.SkyboxFragment)
		return err
	})
	return chunk, sky, err
}
