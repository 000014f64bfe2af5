package world

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// NoiseSettings shapes the fractal noise behind the heightmap.
type NoiseSettings struct {
	Frequency  float64
	Octaves    int
	Lacunarity float64
	Gain       float64
}

// DefaultNoiseSettings matches the terrain the viewer has always produced:
// low frequency, three octaves of fBm.
func DefaultNoiseSettings() NoiseSettings {
	return NoiseSettings{
		Frequency:  0.010,
		Octaves:    3,
		Lacunarity: 2.0,
		Gain:       0.5,
	}
}

// Field is a seeded, coherent 2D scalar field. It holds no mutable state after
// construction, so one Field may be sampled from many goroutines.
type Field struct {
	seed     int64
	settings NoiseSettings
	noise    opensimplex.Noise
	// normalizes the fBm sum back into [-1,1]
	amplitudeSum float64
}

// NewField builds a field for the seed. Octaves below 1 are treated as 1.
func NewField(seed int64, s NoiseSettings) *Field {
	if s.Octaves < 1 {
		s.Octaves = 1
	}
	sum, amp := 0.0, 1.0
	for i := 0; i < s.Octaves; i++ {
		sum += amp
		amp *= s.Gain
	}
	if sum == 0 {
		sum = 1
	}
	return &Field{
		seed:         seed,
		settings:     s,
		noise:        opensimplex.New(seed),
		amplitudeSum: sum,
	}
}

// Seed returns the seed the field was built with.
func (f *Field) Seed() int64 {
	return f.seed
}

// Sample evaluates fractal Brownian motion at world (x, z). The result is in [-1,1].
func (f *Field) Sample(x, z float64) float64 {
	freq := f.settings.Frequency
	amp := 1.0
	sum := 0.0
	for i, n := 0, f.settings.Octaves; i < n; i++ {
		sum += f.noise.Eval2(x*freq, z*freq) * amp
		freq *= f.settings.Lacunarity
		amp *= f.settings.Gain
	}
	v := sum / f.amplitudeSum
	return math.Max(-1, math.Min(1, v))
}

// Height maps the field at world column (worldX, worldZ) to an integer in [0, maxHeight].
// Callers must pass world coordinates, never chunk-local ones, or borders will not line up.
func (f *Field) Height(worldX, worldZ, maxHeight int) int {
	if maxHeight <= 0 {
		return 0
	}
	v := (f.Sample(float64(worldX), float64(worldZ)) + 1) / 2
	v = math.Max(0, math.Min(1, v))
	h := int(math.Floor(v * float64(maxHeight)))
	return min(h, maxHeight)
}
