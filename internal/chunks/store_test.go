package chunks

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"voxview/internal/atlas"
	"voxview/internal/meshing"
	"voxview/internal/profiling"
	"voxview/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

var testDims = world.Dims{X: 8, Y: 8, Z: 8}

type countingGenerator struct {
	*world.Generator
	calls atomic.Int64
}

func (g *countingGenerator) Populate(coord world.ChunkCoord) *world.Grid {
	g.calls.Add(1)
	return g.Generator.Populate(coord)
}

type fakeMesh struct {
	coord    world.ChunkCoord
	draws    *[]world.ChunkCoord
	released *int
}

func (m *fakeMesh) Draw()    { *m.draws = append(*m.draws, m.coord) }
func (m *fakeMesh) Release() { *m.released++ }

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []world.ChunkCoord
	draws    []world.ChunkCoord
	released int
	fail     map[world.ChunkCoord]bool
}

func (u *fakeUploader) Upload(coord world.ChunkCoord, vertices []meshing.Vertex) (Mesh, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail[coord] {
		return nil, errors.New("out of memory")
	}
	u.uploads = append(u.uploads, coord)
	return &fakeMesh{coord: coord, draws: &u.draws, released: &u.released}, nil
}

type fakeUniforms struct {
	models []mgl32.Mat4
}

func (f *fakeUniforms) SetMatrix4(name string, m mgl32.Mat4) {
	if name == "model" {
		f.models = append(f.models, m)
	}
}

type fakeBinder struct{ units []uint32 }

func (b *fakeBinder) Bind(unit uint32) { b.units = append(b.units, unit) }

func testLookup(t *testing.T) meshing.AtlasLookup {
	t.Helper()
	b := atlas.NewBuilder(16, 16)
	b.AddImage("dirt", image.NewRGBA(image.Rect(0, 0, 16, 16)))
	a, err := b.Build()
	if err != nil {
		t.Fatalf("build atlas: %v", err)
	}
	return meshing.DefaultTextureTable().Lookup(a)
}

func newTestStore(t *testing.T, opts Options) (*Store, *countingGenerator, *fakeUploader) {
	t.Helper()
	gen := &countingGenerator{Generator: world.NewGenerator(3, testDims, 12, world.DefaultNoiseSettings())}
	up := &fakeUploader{}
	if opts.Lookup == nil {
		opts.Lookup = testLookup(t)
	}
	opts.Generator = gen
	opts.Uploader = up
	opts.Pool = meshing.NewPool(4)
	s, err := NewStore(opts)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s, gen, up
}

func TestEnsureIdempotent(t *testing.T) {
	s, gen, up := newTestStore(t, Options{})
	c := world.ChunkCoord{X: 1, Y: 0, Z: -2}

	if !s.Ensure(c) {
		t.Fatalf("first Ensure returned false")
	}
	if s.Ensure(c) {
		t.Fatalf("second Ensure returned true")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s.Ensure(c) {
		t.Fatalf("Ensure after flush returned true")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("generated %d times, want 1", n)
	}
	if len(up.uploads) != 1 || s.Len() != 1 || s.Resident() != 1 {
		t.Fatalf("uploads %d len %d resident %d", len(up.uploads), s.Len(), s.Resident())
	}
}

func TestFlushUploadsAndFrees(t *testing.T) {
	s, _, up := newTestStore(t, Options{})
	created := s.EnsureAround(world.ChunkCoord{}, 2, 1)
	if created != 4*2*4 {
		t.Fatalf("EnsureAround created %d, want 32", created)
	}
	if s.Resident() != 0 {
		t.Fatalf("chunks resident before flush")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(up.uploads) != created || s.Resident() != created {
		t.Fatalf("uploaded %d resident %d, want %d", len(up.uploads), s.Resident(), created)
	}

	c, ok := s.Chunk(world.ChunkCoord{X: -2, Y: -1, Z: 1})
	if !ok {
		t.Fatalf("chunk (-2,-1,1) missing")
	}
	if c.State() != StateResident || c.grid != nil || c.vertices != nil {
		t.Fatalf("chunk state %s, grid freed %v, vertices freed %v", c.State(), c.grid == nil, c.vertices == nil)
	}
	if _, ok := s.Chunk(world.ChunkCoord{X: 2}); ok {
		t.Fatalf("EnsureAround reached the exclusive upper bound")
	}

	// Y=-1 chunks sit below the terrain and are solid, so something was meshed.
	if s.Vertices() == 0 {
		t.Fatalf("no vertices across %d chunks", created)
	}

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("empty Flush: %v", err)
	}
}

func TestRenderTranslations(t *testing.T) {
	binder := &fakeBinder{}
	s, _, up := newTestStore(t, Options{Atlas: binder})
	// Below ground, so every chunk has geometry and gets drawn.
	coords := []world.ChunkCoord{{Y: -1}, {X: 1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: 2}}
	for _, c := range coords {
		s.Ensure(c)
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	u := &fakeUniforms{}
	s.Render(u)
	if len(binder.units) != 1 || binder.units[0] != 0 {
		t.Fatalf("atlas bound to %v, want unit 0 once", binder.units)
	}
	if len(u.models) != len(coords) || len(up.draws) != len(coords) {
		t.Fatalf("set %d models, drew %d chunks", len(u.models), len(up.draws))
	}
	for i, c := range coords {
		if up.draws[i] != c {
			t.Errorf("draw %d = %v, want %v", i, up.draws[i], c)
		}
		want := mgl32.Translate3D(float32(c.X*testDims.X), float32(c.Y*testDims.Y), float32(c.Z*testDims.Z))
		if u.models[i] != want {
			t.Errorf("model %d = %v, want %v", i, u.models[i], want)
		}
	}
}

func TestFailedGenerationDropsChunk(t *testing.T) {
	base := testLookup(t)
	lookup := func(kind world.TileKind, face meshing.Face) (atlas.Entry, bool) {
		if kind == world.TileStone {
			return atlas.Entry{}, false
		}
		return base(kind, face)
	}
	s, _, _ := newTestStore(t, Options{Lookup: lookup})

	// Deep underground: only stone, so the lookup fails.
	deep := world.ChunkCoord{Y: -4}
	sky := world.ChunkCoord{Y: 4}
	s.Ensure(deep)
	s.Ensure(sky)

	err := s.Flush(context.Background())
	if !errors.Is(err, meshing.ErrMissingTexture) {
		t.Fatalf("Flush = %v, want ErrMissingTexture", err)
	}
	if _, ok := s.Chunk(deep); ok {
		t.Fatalf("failed chunk still stored")
	}
	if c, ok := s.Chunk(sky); !ok || c.State() != StateResident {
		t.Fatalf("healthy chunk not resident")
	}
	if !s.Ensure(deep) {
		t.Fatalf("failed chunk cannot be retried")
	}
}

func TestFailedUpload(t *testing.T) {
	s, _, up := newTestStore(t, Options{})
	bad := world.ChunkCoord{X: 5}
	up.fail = map[world.ChunkCoord]bool{bad: true}
	s.Ensure(bad)
	s.Ensure(world.ChunkCoord{X: 6})

	if err := s.Flush(context.Background()); err == nil {
		t.Fatalf("Flush succeeded with a failing upload")
	}
	if s.Len() != 1 || s.Resident() != 1 {
		t.Fatalf("len %d resident %d, want 1/1", s.Len(), s.Resident())
	}
}

func TestCullBordersReducesFaces(t *testing.T) {
	open, _, _ := newTestStore(t, Options{})
	closed, _, _ := newTestStore(t, Options{CullBorders: true})
	c := world.ChunkCoord{Y: -1}
	for _, s := range []*Store{open, closed} {
		s.Ensure(c)
		if err := s.Flush(context.Background()); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if closed.Vertices() >= open.Vertices() {
		t.Fatalf("culled %d vertices, open %d", closed.Vertices(), open.Vertices())
	}
}

func TestCloseReleasesMeshes(t *testing.T) {
	s, _, up := newTestStore(t, Options{})
	s.EnsureAround(world.ChunkCoord{}, 1, 1)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	n := s.Resident()
	s.Close()
	if up.released != n {
		t.Fatalf("released %d meshes, want %d", up.released, n)
	}
	if s.Len() != 0 {
		t.Fatalf("store not empty after Close")
	}
	if s.Ensure(world.ChunkCoord{X: 9}) {
		t.Fatalf("Ensure succeeded after Close")
	}
	s.Close()
}

// blockingGenerator holds every Populate call until release is closed.
type blockingGenerator struct {
	*world.Generator
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Populate(coord world.ChunkCoord) *world.Grid {
	g.calls.Add(1)
	g.started <- struct{}{}
	<-g.release
	return g.Generator.Populate(coord)
}

func TestCloseCancelsQueuedGeneration(t *testing.T) {
	const workers, total = 2, 20
	gen := &blockingGenerator{
		Generator: world.NewGenerator(3, testDims, 12, world.DefaultNoiseSettings()),
		started:   make(chan struct{}, total),
		release:   make(chan struct{}),
	}
	up := &fakeUploader{}
	s, err := NewStore(Options{
		Generator: gen,
		Lookup:    testLookup(t),
		Pool:      meshing.NewPool(workers),
		Uploader:  up,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	for i := 0; i < total; i++ {
		if !s.Ensure(world.ChunkCoord{X: i}) {
			t.Fatalf("Ensure(%d) returned false", i)
		}
	}
	for i := 0; i < workers; i++ {
		<-gen.started
	}
	profiling.ResetFrame()

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	// Ensure reports false once Close has cancelled the pool.
	for i := 0; s.Ensure(world.ChunkCoord{Y: 100 + i}); i++ {
		time.Sleep(time.Millisecond)
	}
	close(gen.release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Close did not return")
	}
	if n := gen.calls.Load(); n != workers {
		t.Fatalf("Populate ran %d times, want %d", n, workers)
	}
	// Cancelled generation is still timed.
	var timed int
	for _, sample := range profiling.Snapshot() {
		if sample.Name == "chunks.generate" {
			timed = sample.Calls
		}
	}
	if timed != workers {
		t.Fatalf("chunks.generate recorded %d calls, want %d", timed, workers)
	}
	if s.Ensure(world.ChunkCoord{X: total}) {
		t.Fatalf("Ensure succeeded after Close")
	}
	if s.Len() != 0 || len(up.uploads) != 0 {
		t.Fatalf("store holds %d chunks and uploaded %d after Close", s.Len(), len(up.uploads))
	}
}

func TestFlushCancelledContext(t *testing.T) {
	s, _, up := newTestStore(t, Options{})
	coords := []world.ChunkCoord{{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 2, Y: -1}}
	for _, c := range coords {
		s.Ensure(c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Flush(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Flush = %v, want context.Canceled", err)
	}
	if s.Len() != 0 || len(up.uploads) != 0 {
		t.Fatalf("store holds %d chunks and uploaded %d after a cancelled flush", s.Len(), len(up.uploads))
	}

	for _, c := range coords {
		if !s.Ensure(c) {
			t.Fatalf("Ensure(%v) after a cancelled flush returned false", c)
		}
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s.Resident() != len(coords) {
		t.Fatalf("resident = %d, want %d", s.Resident(), len(coords))
	}
}

func TestNewStoreValidates(t *testing.T) {
	if _, err := NewStore(Options{}); !errors.Is(err, ErrNoGenerator) {
		t.Fatalf("err = %v", err)
	}
}

type halfSpace struct{}

// IntersectsAABB keeps boxes that reach x >= 0.
func (halfSpace) IntersectsAABB(_, hi mgl32.Vec3) bool { return hi.X() >= 0 }

func TestRenderCulled(t *testing.T) {
	s, _, up := newTestStore(t, Options{})
	// Below-ground chunks, so every one has vertices to draw.
	s.Ensure(world.ChunkCoord{X: -2, Y: -1})
	s.Ensure(world.ChunkCoord{X: 1, Y: -1})
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	s.RenderCulled(&fakeUniforms{}, halfSpace{})
	if len(up.draws) != 1 || up.draws[0] != (world.ChunkCoord{X: 1, Y: -1}) {
		t.Fatalf("drew %v", up.draws)
	}
}
