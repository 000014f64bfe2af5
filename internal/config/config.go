package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the viewer configuration as read from YAML.
type Config struct {
	Window  Window  `yaml:"window"`
	World   World   `yaml:"world"`
	Noise   Noise   `yaml:"noise"`
	Atlas   Atlas   `yaml:"atlas"`
	Camera  Camera  `yaml:"camera"`
	Shaders Shaders `yaml:"shaders"`
	Sky     Sky     `yaml:"sky"`
	Workers int     `yaml:"workers"` // 0 means one per CPU
}

type Window struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Title   string `yaml:"title"`
	VSync   bool   `yaml:"vsync"`
	Samples int    `yaml:"samples"`
}

type World struct {
	Seed          int64 `yaml:"seed"`
	ChunkSize     []int `yaml:"chunk_size"` // x, y, z
	TerrainHeight int   `yaml:"terrain_height"`
	SandLevel     int   `yaml:"sand_level"` // 0 picks a level from terrain_height
	// StreamRadius chunks are kept around the camera on X and Z, StreamVertical on Y.
	StreamRadius     int  `yaml:"stream_radius"`
	StreamVertical   int  `yaml:"stream_vertical"`
	CullChunkBorders bool `yaml:"cull_chunk_borders"`
}

type Noise struct {
	Frequency  float64 `yaml:"frequency"`
	Octaves    int     `yaml:"octaves"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
}

type Atlas struct {
	Size     int       `yaml:"size"`
	TileSize int       `yaml:"tile_size"`
	Fallback string    `yaml:"fallback"`
	Textures []Texture `yaml:"textures"`
}

// Texture is one image packed into the atlas.
type Texture struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
}

type Camera struct {
	Position    []float32 `yaml:"position"`
	Yaw         float32   `yaml:"yaw"`
	Pitch       float32   `yaml:"pitch"`
	FOV         float32   `yaml:"fov"`
	Near        float32   `yaml:"near"`
	Far         float32   `yaml:"far"`
	Speed       float32   `yaml:"speed"`
	Sensitivity float32   `yaml:"sensitivity"`
}

type Shaders struct {
	ChunkVertex    string `yaml:"chunk_vertex"`
	ChunkFragment  string `yaml:"chunk_fragment"`
	SkyboxVertex   string `yaml:"skybox_vertex"`
	SkyboxFragment string `yaml:"skybox_fragment"`
}

type Sky struct {
	Enabled bool   `yaml:"enabled"`
	Image   string `yaml:"image"`
}

// Default returns the built-in configuration, which matches assets/config.yaml.
func Default() Config {
	return Config{
		Window: Window{Width: 1024, Height: 768, Title: "voxview", VSync: true, Samples: 8},
		World: World{
			Seed:           0,
			ChunkSize:      []int{64, 64, 64},
			TerrainHeight:  64,
			StreamRadius:   5,
			StreamVertical: 1,
		},
		Noise: Noise{Frequency: 0.010, Octaves: 3, Lacunarity: 2.0, Gain: 0.5},
		Atlas: Atlas{
			Size:     4096,
			TileSize: 16,
			Fallback: "dirt",
			Textures: []Texture{
				{ID: "dirt", Path: "assets/textures/dirt.png"},
				{ID: "grass_top", Path: "assets/textures/grass_top.png"},
				{ID: "grass_side", Path: "assets/textures/grass_side.png"},
				{ID: "sand", Path: "assets/textures/sand.png"},
				{ID: "stone", Path: "assets/textures/stone.png"},
			},
		},
		Camera: Camera{
			Position:    []float32{0, 50, 100},
			Yaw:         -90,
			FOV:         45,
			Near:        0.1,
			Far:         1000,
			Speed:       0.2,
			Sensitivity: 0.1,
		},
		Shaders: Shaders{
			ChunkVertex:    "assets/shaders/chunk.vert",
			ChunkFragment:  "assets/shaders/chunk.frag",
			SkyboxVertex:   "assets/shaders/skybox.vert",
			SkyboxFragment: "assets/shaders/skybox.frag",
		},
		Sky: Sky{Enabled: true, Image: "assets/textures/sky.png"},
	}
}

// Load reads path and applies it over Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		bad("window: size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.Samples < 0 {
		bad("window.samples: %d is negative", c.Window.Samples)
	}

	if len(c.World.ChunkSize) != 3 {
		bad("world.chunk_size: want 3 values, got %d", len(c.World.ChunkSize))
	} else if !c.World.Dims().Valid() {
		bad("world.chunk_size: %v must be positive", c.World.ChunkSize)
	}
	if c.World.TerrainHeight <= 0 {
		bad("world.terrain_height: %d must be positive", c.World.TerrainHeight)
	}
	if c.World.SandLevel < 0 {
		bad("world.sand_level: %d is negative", c.World.SandLevel)
	}
	if c.World.StreamRadius < 0 || c.World.StreamVertical < 0 {
		bad("world: stream radius %d/%d is negative", c.World.StreamRadius, c.World.StreamVertical)
	}

	if c.Noise.Frequency <= 0 {
		bad("noise.frequency: %v must be positive", c.Noise.Frequency)
	}
	if c.Noise.Octaves < 1 {
		bad("noise.octaves: %d must be at least 1", c.Noise.Octaves)
	}

	if c.Atlas.Size <= 0 || c.Atlas.Size&(c.Atlas.Size-1) != 0 {
		bad("atlas.size: %d is not a power of two", c.Atlas.Size)
	}
	if c.Atlas.TileSize <= 2 || c.Atlas.TileSize > c.Atlas.Size {
		bad("atlas.tile_size: %d must be in (2, %d]", c.Atlas.TileSize, c.Atlas.Size)
	}
	if len(c.Atlas.Textures) == 0 {
		bad("atlas.textures: empty")
	}
	seen := make(map[string]bool, len(c.Atlas.Textures))
	for i, t := range c.Atlas.Textures {
		if t.ID == "" || t.Path == "" {
			bad("atlas.textures[%d]: id and path are required", i)
		}
		if seen[t.ID] {
			bad("atlas.textures[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
	}
	if c.Atlas.Fallback != "" && !seen[c.Atlas.Fallback] {
		bad("atlas.fallback: %q is not a listed texture", c.Atlas.Fallback)
	}

	if len(c.Camera.Position) != 3 {
		bad("camera.position: want 3 values, got %d", len(c.Camera.Position))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		bad("camera.fov: %v out of range", c.Camera.FOV)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		bad("camera: near %v / far %v", c.Camera.Near, c.Camera.Far)
	}

	if c.Shaders.ChunkVertex == "" || c.Shaders.ChunkFragment == "" {
		bad("shaders: chunk shader paths are required")
	}
	if c.Sky.Enabled && (c.Sky.Image == "" || c.Shaders.SkyboxVertex == "" || c.Shaders.SkyboxFragment == "") {
		bad("sky: enabled without image or shaders")
	}
	return errors.Join(errs...)
}
