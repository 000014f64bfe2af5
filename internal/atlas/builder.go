package atlas

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Inset is the margin, in atlas texels, trimmed from every side of a packed
// tile so filtering and mip levels never sample the neighbouring tile.
const Inset = 1

var (
	ErrNoTextures       = errors.New("atlas: no textures added")
	ErrAtlasFull        = errors.New("atlas: tiles exceed atlas area")
	ErrDuplicateTexture = errors.New("atlas: duplicate texture id")
	ErrInvalidLayout    = errors.New("atlas: invalid layout")
)

type source struct {
	id   TextureID
	path string
	img  image.Image
}

// Builder collects textures and packs them into one square bitmap.
type Builder struct {
	size     int
	tileSize int
	sources  []source
}

// NewBuilder creates a builder for a size×size atlas of tileSize×tileSize tiles.
// size must be a power of two.
func NewBuilder(size, tileSize int) *Builder {
	return &Builder{size: size, tileSize: tileSize}
}

// Add queues the image file at path under id. The file is read by Build.
func (b *Builder) Add(id TextureID, path string) {
	b.sources = append(b.sources, source{id: id, path: path})
}

// AddImage queues an already decoded image under id.
func (b *Builder) AddImage(id TextureID, img image.Image) {
	b.sources = append(b.sources, source{id: id, img: img})
}

// Len returns the number of queued textures.
func (b *Builder) Len() int {
	return len(b.sources)
}

// Build decodes every queued texture and packs them. It never returns a partial
// atlas: any failure yields a nil atlas and an error.
func (b *Builder) Build() (*Atlas, error) {
	if len(b.sources) == 0 {
		return nil, ErrNoTextures
	}
	if err := validateLayout(b.size, b.tileSize); err != nil {
		return nil, err
	}

	seen := make(map[TextureID]struct{}, len(b.sources))
	images := make([]image.Image, len(b.sources))
	for i, src := range b.sources {
		if _, dup := seen[src.id]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTexture, src.id)
		}
		seen[src.id] = struct{}{}

		img := src.img
		if img == nil {
			var err error
			img, err = LoadImage(src.path)
			if err != nil {
				log.Printf("Failed to load texture %s: %v", src.path, err)
				return nil, err
			}
		}
		images[i] = img
	}

	if len(images) == 1 {
		return b.buildSingle(images[0]), nil
	}

	bins, err := Layout(len(images), b.size, b.tileSize)
	if err != nil {
		return nil, err
	}

	a := &Atlas{
		img:     image.NewRGBA(image.Rect(0, 0, b.size, b.size)),
		entries: make(map[TextureID]Entry, len(images)),
		order:   make([]TextureID, 0, len(images)),
	}
	size := float32(b.size)
	for i, img := range images {
		bin := image.Rectangle{Min: bins[i], Max: bins[i].Add(image.Pt(b.tileSize, b.tileSize))}
		blit(a.img, bin, img)

		id := b.sources[i].id
		a.entries[id] = Entry{
			ID:    id,
			Start: mgl32.Vec2{float32(bin.Min.X+Inset) / size, float32(bin.Min.Y+Inset) / size},
			End:   mgl32.Vec2{float32(bin.Max.X-Inset) / size, float32(bin.Max.Y-Inset) / size},
			Bin:   bin,
		}
		a.order = append(a.order, id)
	}

	log.Printf("Packed %d textures into %dx%d atlas (tile %d)", len(images), b.size, b.size, b.tileSize)
	return a, nil
}

// buildSingle skips packing: the bitmap is the texture itself and its entry spans
// the whole [0,1] range with no inset.
func (b *Builder) buildSingle(img image.Image) *Atlas {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	id := b.sources[0].id
	return &Atlas{
		img: rgba,
		entries: map[TextureID]Entry{
			id: {ID: id, Start: mgl32.Vec2{0, 0}, End: mgl32.Vec2{1, 1}, Bin: rgba.Bounds()},
		},
		order: []TextureID{id},
	}
}

// blit copies img into bin, resampling with nearest neighbour when its size differs.
func blit(dst *image.RGBA, bin image.Rectangle, img image.Image) {
	src := img.Bounds()
	if src.Dx() == bin.Dx() && src.Dy() == bin.Dy() {
		draw.Draw(dst, bin, img, src.Min, draw.Src)
		return
	}
	draw.NearestNeighbor.Scale(dst, bin, img, src, draw.Src, nil)
}

// Layout places n tiles row-major, left to right, wrapping to the next row when
// a tile would cross the right edge. It returns the top-left pixel of each bin.
func Layout(n, size, tileSize int) ([]image.Point, error) {
	if err := validateLayout(size, tileSize); err != nil {
		return nil, err
	}
	perRow := size / tileSize
	if capacity := perRow * perRow; n > capacity {
		return nil, fmt.Errorf("%w: %d tiles of %dpx do not fit %dpx (capacity %d)", ErrAtlasFull, n, tileSize, size, capacity)
	}

	bins := make([]image.Point, 0, n)
	x, y := 0, 0
	for i := 0; i < n; i++ {
		bins = append(bins, image.Pt(x, y))
		x += tileSize
		if x+tileSize > size {
			x = 0
			y += tileSize
		}
	}
	return bins, nil
}

func validateLayout(size, tileSize int) error {
	if size <= 0 || size&(size-1) != 0 {
		return fmt.Errorf("%w: atlas size %d is not a power of two", ErrInvalidLayout, size)
	}
	if tileSize <= 2*Inset {
		return fmt.Errorf("%w: tile size %d leaves nothing after the %d texel inset", ErrInvalidLayout, tileSize, Inset)
	}
	if tileSize > size {
		return fmt.Errorf("%w: tile size %d exceeds atlas size %d", ErrInvalidLayout, tileSize, size)
	}
	return nil
}

// LoadImage opens and decodes an image file in any registered format.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	return img, nil
}
