package export

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxview/internal/meshing"
)

func quad() []meshing.Vertex {
	n := mgl32.Vec3{0, 1, 0}
	return []meshing.Vertex{
		{Position: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 1}, Normal: n},
		{Position: mgl32.Vec3{1, 0, 1}, UV: mgl32.Vec2{1, 1}, Normal: n},
		{Position: mgl32.Vec3{1, 0, 0}, UV: mgl32.Vec2{1, 0}, Normal: n},
		{Position: mgl32.Vec3{1, 0, 0}, UV: mgl32.Vec2{1, 0}, Normal: n},
		{Position: mgl32.Vec3{0, 0, 0}, UV: mgl32.Vec2{0, 0}, Normal: n},
		{Position: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 1}, Normal: n},
	}
}

func countPrefixes(t *testing.T, r io.Reader) map[string]int {
	t.Helper()
	counts := make(map[string]int)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 {
			counts[fields[0]]++
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	return counts
}

func TestWriteOBJ(t *testing.T) {
	var buf bytes.Buffer
	err := WriteOBJ(&buf, OBJ{
		Name:        "chunk_0_0_0",
		Vertices:    quad(),
		Offset:      mgl32.Vec3{64, 0, 0},
		MaterialLib: "chunk.mtl",
		Material:    "atlas",
	})
	if err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}
	text := buf.String()
	counts := countPrefixes(t, strings.NewReader(text))
	if counts["v"] != 6 || counts["vt"] != 6 || counts["vn"] != 6 || counts["f"] != 2 {
		t.Fatalf("counts = %v", counts)
	}
	for _, want := range []string{"o chunk_0_0_0\n", "mtllib chunk.mtl\n", "usemtl atlas\n", "v 64 0 1\n", "vt 0 0\n", "f 4/4/4 5/5/5 6/6/6\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q", want)
		}
	}
}

func TestWriteOBJRejectsPartialTriangle(t *testing.T) {
	if err := WriteOBJ(io.Discard, OBJ{Vertices: quad()[:4]}); err == nil {
		t.Fatalf("accepted 4 vertices")
	}
}

func TestWriteFileCompressed(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "chunk.obj")
	packed := filepath.Join(dir, "out", "chunk.obj.zst")
	m := OBJ{Name: "c", Vertices: quad()}

	if err := WriteFile(plain, m); err != nil {
		t.Fatalf("WriteFile plain: %v", err)
	}
	if err := WriteFile(packed, m); err != nil {
		t.Fatalf("WriteFile zst: %v", err)
	}

	want, err := os.ReadFile(plain)
	if err != nil {
		t.Fatalf("read plain: %v", err)
	}
	raw, err := os.ReadFile(packed)
	if err != nil {
		t.Fatalf("read zst: %v", err)
	}
	if bytes.Equal(raw, want) {
		t.Fatalf("zst file is not compressed")
	}

	r, err := Open(packed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("decompressed output differs from plain export")
	}
}

func TestWriteFileErrorPaths(t *testing.T) {
	dir := t.TempDir()
	bad := OBJ{Name: "c", Vertices: quad()[:2]}
	for _, name := range []string{"bad.obj", "bad.obj.zst"} {
		if err := WriteFile(filepath.Join(dir, name), bad); err == nil {
			t.Errorf("WriteFile(%s) accepted a partial triangle", name)
		}
	}

	// A failed export must not leave the file open: overwriting it works.
	path := filepath.Join(dir, "bad.obj")
	if err := WriteFile(path, OBJ{Name: "c", Vertices: quad()}); err != nil {
		t.Fatalf("WriteFile after failure: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "f ") {
		t.Fatalf("rewritten export has no faces")
	}
}

func TestWriteMTL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMTL(&buf, "atlas", "atlas.png"); err != nil {
		t.Fatalf("WriteMTL: %v", err)
	}
	if !strings.Contains(buf.String(), "newmtl atlas\n") || !strings.Contains(buf.String(), "map_Kd atlas.png\n") {
		t.Fatalf("mtl = %q", buf.String())
	}
}
