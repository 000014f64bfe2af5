package config

import (
	"sync"

	"voxview/internal/world"
)

// Dims returns chunk_size as world dimensions. Call after Validate.
func (w World) Dims() world.Dims {
	if len(w.ChunkSize) != 3 {
		return world.Dims{}
	}
	return world.Dims{X: w.ChunkSize[0], Y: w.ChunkSize[1], Z: w.ChunkSize[2]}
}

// Settings converts the noise section.
func (n Noise) Settings() world.NoiseSettings {
	return world.NoiseSettings{
		Frequency:  n.Frequency,
		Octaves:    n.Octaves,
		Lacunarity: n.Lacunarity,
		Gain:       n.Gain,
	}
}

// NewGenerator builds the terrain generator described by the world and noise sections.
func (c Config) NewGenerator() *world.Generator {
	var opts []world.GeneratorOption
	if c.World.SandLevel > 0 {
		opts = append(opts, world.WithSandLevel(c.World.SandLevel))
	}
	return world.NewGenerator(c.World.Seed, c.World.Dims(), c.World.TerrainHeight, c.Noise.Settings(), opts...)
}

// StreamSettings holds the chunk streaming radius, which can change while running.
type StreamSettings struct {
	mu       sync.RWMutex
	radius   int
	vertical int
}

const maxStreamRadius = 16

var globalStream = &StreamSettings{radius: 5, vertical: 1}

// GetStreamRadius returns the horizontal and vertical streaming radius in chunks.
func GetStreamRadius() (radius, vertical int) {
	globalStream.mu.RLock()
	defer globalStream.mu.RUnlock()
	return globalStream.radius, globalStream.vertical
}

// SetStreamRadius sets the streaming radius, clamped to [0, 16].
func SetStreamRadius(radius, vertical int) {
	globalStream.mu.Lock()
	defer globalStream.mu.Unlock()
	globalStream.radius = clampRadius(radius)
	globalStream.vertical = clampRadius(vertical)
}

func clampRadius(r int) int {
	if r < 0 {
		return 0
	}
	if r > maxStreamRadius {
		return maxStreamRadius
	}
	return r
}
