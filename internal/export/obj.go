package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"

	"voxview/internal/meshing"
)

// OBJ describes one mesh to export.
type OBJ struct {
	Name     string
	Vertices []meshing.Vertex
	// Offset is added to every position, e.g. the chunk's world translation.
	Offset mgl32.Vec3
	// MaterialLib and Material are written as mtllib/usemtl when set.
	MaterialLib string
	Material    string
}

// WriteOBJ writes m as Wavefront OBJ text. Each triangle gets its own v/vt/vn
// triple per corner; texture V is flipped because OBJ puts the origin at the
// bottom of the image.
func WriteOBJ(w io.Writer, m OBJ) error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("export: %d vertices is not a triangle list", len(m.Vertices))
	}
	bw := bufio.NewWriterSize(w, 256*1024)

	fmt.Fprintf(bw, "# %d vertices, %d faces\n", len(m.Vertices), meshing.FaceCount(m.Vertices))
	if m.MaterialLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", m.MaterialLib)
	}
	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}
	for _, v := range m.Vertices {
		p := v.Position.Add(m.Offset)
		fmt.Fprintf(bw, "v %g %g %g\n", p.X(), p.Y(), p.Z())
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vt %g %g\n", v.UV.X(), 1-v.UV.Y())
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal.X(), v.Normal.Y(), v.Normal.Z())
	}
	if m.Material != "" {
		fmt.Fprintf(bw, "usemtl %s\n", m.Material)
	}
	for i := 1; i <= len(m.Vertices); i += 3 {
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", i, i, i, i+1, i+1, i+1, i+2, i+2, i+2)
	}
	return bw.Flush()
}

// WriteMTL writes a material library with one textured material.
func WriteMTL(w io.Writer, material, texture string) error {
	_, err := fmt.Fprintf(w, "newmtl %s\nKa 1 1 1\nKd 1 1 1\nKs 0 0 0\nillum 1\nmap_Kd %s\n", material, texture)
	return err
}

// Compressed reports whether path names a zstd stream.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// WriteFile writes m to path, zstd-compressed when the name ends in ".zst".
func WriteFile(path string, m OBJ) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, path, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(w io.Writer, path string, m OBJ) error {
	if !Compressed(path) {
		return WriteOBJ(w, m)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := WriteOBJ(enc, m); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	return nil
}

// Open opens an exported file, decompressing it when needed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !Compressed(path) {
		return f, nil
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &zstdFile{Decoder: dec, f: f}, nil
}

type zstdFile struct {
	*zstd.Decoder
	f *os.File
}

func (z *zstdFile) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}
