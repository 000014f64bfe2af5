package atlas

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solidImage(size int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// TestTwoTilesRowMajor covers the basic placement scenario: tile 0 at (0,0), tile 1 at (16,0)
func TestTwoTilesRowMajor(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(4096, 16)
	b.Add("dirt", writePNG(t, dir, "dirt.png", solidImage(16, color.RGBA{120, 80, 40, 255})))
	b.Add("sand", writePNG(t, dir, "sand.png", solidImage(16, color.RGBA{220, 200, 140, 255})))

	a, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dirt, ok := a.Get("dirt")
	if !ok {
		t.Fatalf("dirt missing")
	}
	sand, ok := a.Get("sand")
	if !ok {
		t.Fatalf("sand missing")
	}
	if dirt.Bin.Min != image.Pt(0, 0) {
		t.Errorf("dirt bin at %v, want (0,0)", dirt.Bin.Min)
	}
	if sand.Bin.Min != image.Pt(16, 0) {
		t.Errorf("sand bin at %v, want (16,0)", sand.Bin.Min)
	}
	if a.Size() != 4096 || a.Len() != 2 {
		t.Fatalf("atlas size %d len %d", a.Size(), a.Len())
	}

	// Pixels were copied into the bins.
	if got := a.Image().RGBAAt(20, 5); got != (color.RGBA{220, 200, 140, 255}) {
		t.Errorf("pixel in sand bin = %v", got)
	}
	if got := a.Image().RGBAAt(3, 3); got != (color.RGBA{120, 80, 40, 255}) {
		t.Errorf("pixel in dirt bin = %v", got)
	}

	// One texel inset on each side.
	want := float32(1) / 4096
	if dirt.Start.X() != want || dirt.Start.Y() != want {
		t.Errorf("dirt start = %v, want (%v,%v)", dirt.Start, want, want)
	}
	if dirt.End.X() != float32(15)/4096 || dirt.End.Y() != float32(15)/4096 {
		t.Errorf("dirt end = %v", dirt.End)
	}
	if sand.Start.X() != float32(17)/4096 {
		t.Errorf("sand start x = %v, want 17/4096", sand.Start.X())
	}
}

// TestRoundTripEntries checks every entry is inside [0,1]², non-degenerate and non-overlapping
func TestRoundTripEntries(t *testing.T) {
	b := NewBuilder(64, 16)
	ids := []TextureID{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	for i, id := range ids {
		b.AddImage(id, solidImage(16, color.RGBA{uint8(i * 20), 0, 0, 255}))
	}
	a, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, id := range ids {
		e, ok := a.Get(id)
		if !ok {
			t.Fatalf("%s missing after Build", id)
		}
		for _, v := range []float32{e.Start.X(), e.Start.Y(), e.End.X(), e.End.Y()} {
			if v < 0 || v > 1 {
				t.Fatalf("%s: UV %v outside [0,1]", id, v)
			}
		}
		if !(e.End.X() > e.Start.X() && e.End.Y() > e.Start.Y()) {
			t.Fatalf("%s: degenerate rect %v..%v", id, e.Start, e.End)
		}
	}
	entries := a.Entries()
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			p, q := entries[i], entries[j]
			overlapX := p.Start.X() < q.End.X() && q.Start.X() < p.End.X()
			overlapY := p.Start.Y() < q.End.Y() && q.Start.Y() < p.End.Y()
			if overlapX && overlapY {
				t.Fatalf("%s and %s overlap", p.ID, q.ID)
			}
			if p.Bin.Overlaps(q.Bin) {
				t.Fatalf("%s and %s share pixels", p.ID, q.ID)
			}
		}
	}
	// A 64px atlas holds four tiles per row, so the fifth wraps.
	if e, _ := a.Get("e"); e.Bin.Min != image.Pt(0, 16) {
		t.Errorf("fifth tile at %v, want (0,16)", e.Bin.Min)
	}
}

func TestSingleTileSpansWholeRange(t *testing.T) {
	b := NewBuilder(4096, 16)
	b.AddImage("dirt", solidImage(16, color.RGBA{1, 2, 3, 255}))
	a, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	e, _ := a.Get("dirt")
	if e.Start.X() != 0 || e.Start.Y() != 0 || e.End.X() != 1 || e.End.Y() != 1 {
		t.Fatalf("single tile UV = %v..%v, want 0..1", e.Start, e.End)
	}
	if a.Size() != 16 {
		t.Fatalf("single tile bitmap is %dpx, want 16", a.Size())
	}
}

func TestBuildFailures(t *testing.T) {
	if _, err := NewBuilder(4096, 16).Build(); !errors.Is(err, ErrNoTextures) {
		t.Errorf("empty builder: err = %v, want ErrNoTextures", err)
	}

	b := NewBuilder(4096, 16)
	b.AddImage("dirt", solidImage(16, color.RGBA{}))
	b.Add("missing", filepath.Join(t.TempDir(), "nope.png"))
	if a, err := b.Build(); err == nil || a != nil {
		t.Errorf("missing file: atlas=%v err=%v, want nil atlas and error", a, err)
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	b = NewBuilder(4096, 16)
	b.AddImage("dirt", solidImage(16, color.RGBA{}))
	b.Add("bad", bad)
	if a, err := b.Build(); err == nil || a != nil {
		t.Errorf("corrupt file: atlas=%v err=%v, want nil atlas and error", a, err)
	}

	b = NewBuilder(4096, 16)
	b.AddImage("dirt", solidImage(16, color.RGBA{}))
	b.AddImage("dirt", solidImage(16, color.RGBA{}))
	if _, err := b.Build(); !errors.Is(err, ErrDuplicateTexture) {
		t.Errorf("duplicate id: err = %v, want ErrDuplicateTexture", err)
	}

	b = NewBuilder(32, 16)
	for _, id := range []TextureID{"a", "b", "c", "d", "e"} {
		b.AddImage(id, solidImage(16, color.RGBA{}))
	}
	if _, err := b.Build(); !errors.Is(err, ErrAtlasFull) {
		t.Errorf("overflow: err = %v, want ErrAtlasFull", err)
	}

	b = NewBuilder(1000, 16)
	b.AddImage("a", solidImage(16, color.RGBA{}))
	b.AddImage("b", solidImage(16, color.RGBA{}))
	if _, err := b.Build(); !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("non power of two: err = %v, want ErrInvalidLayout", err)
	}
}

func TestMismatchedTileIsResampled(t *testing.T) {
	b := NewBuilder(64, 16)
	b.AddImage("small", solidImage(8, color.RGBA{9, 9, 9, 255}))
	b.AddImage("big", solidImage(32, color.RGBA{200, 0, 0, 255}))
	a, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := a.Image().RGBAAt(15, 15); got != (color.RGBA{9, 9, 9, 255}) {
		t.Errorf("upscaled tile corner = %v", got)
	}
	if got := a.Image().RGBAAt(31, 15); got != (color.RGBA{200, 0, 0, 255}) {
		t.Errorf("downscaled tile corner = %v", got)
	}
	if got := a.Image().RGBAAt(32, 0); got != (color.RGBA{}) {
		t.Errorf("pixel past the last bin = %v, want untouched", got)
	}
}

func TestLayoutFillsRowBeforeWrapping(t *testing.T) {
	bins, err := Layout(5, 64, 16)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	want := []image.Point{{0, 0}, {16, 0}, {32, 0}, {48, 0}, {0, 16}}
	for i := range want {
		if bins[i] != want[i] {
			t.Fatalf("bin %d = %v, want %v", i, bins[i], want[i])
		}
	}
	if _, err := Layout(17, 64, 16); !errors.Is(err, ErrAtlasFull) {
		t.Fatalf("Layout(17) err = %v, want ErrAtlasFull", err)
	}
}

func TestEntryCorners(t *testing.T) {
	e := Entry{}
	e.Start[0], e.Start[1] = 0.25, 0.5
	e.End[0], e.End[1] = 0.75, 1
	if bl := e.BottomLeft(); bl.X() != 0.25 || bl.Y() != 1 {
		t.Errorf("BottomLeft = %v", bl)
	}
	if tr := e.TopRight(); tr.X() != 0.75 || tr.Y() != 0.5 {
		t.Errorf("TopRight = %v", tr)
	}
	if e.TopLeft() != e.Start || e.BottomRight() != e.End {
		t.Errorf("TopLeft/BottomRight = %v/%v", e.TopLeft(), e.BottomRight())
	}
}
