package chunks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"voxview/internal/meshing"
	"voxview/internal/profiling"
	"voxview/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Generator produces voxel content for chunk coordinates. *world.Generator
// implements it.
type Generator interface {
	Seed() int64
	Dims() world.Dims
	Populate(coord world.ChunkCoord) *world.Grid
	SolidAt(worldX, worldY, worldZ int) bool
}

// Options configures a Store.
type Options struct {
	Generator Generator
	Lookup    meshing.AtlasLookup
	// Pool runs generation. The store owns it and shuts it down on Close.
	// nil creates a pool with one worker per CPU.
	Pool     *meshing.Pool
	Uploader Uploader
	// Atlas is bound to texture unit 0 before drawing. May be nil.
	Atlas AtlasBinder
	// CullBorders hides faces against solid voxels of neighbouring chunks.
	CullBorders bool
	// Verbose logs per-chunk generation times.
	Verbose bool
}

var (
	ErrNoGenerator = errors.New("chunks: generator is required")
	ErrNoLookup    = errors.New("chunks: atlas lookup is required")
	ErrNoUploader  = errors.New("chunks: uploader is required")
)

// Store owns every chunk of the world, keyed by coordinate.
//
// Ensure queues generation on the pool; Flush joins the queued work and uploads
// the results. Flush and Render must run on the goroutine that owns the
// graphics context when the Uploader requires it. Chunks are never evicted.
type Store struct {
	opts Options
	dims world.Dims
	seed int64

	mu      sync.RWMutex
	chunks  map[world.ChunkCoord]*Chunk
	order   []*Chunk // insertion order, used for drawing
	batch   *meshing.Batch
	pending []*Chunk
	closed  bool
}

// NewStore creates an empty store.
func NewStore(opts Options) (*Store, error) {
	switch {
	case opts.Generator == nil:
		return nil, ErrNoGenerator
	case opts.Lookup == nil:
		return nil, ErrNoLookup
	case opts.Uploader == nil:
		return nil, ErrNoUploader
	}
	if opts.Pool == nil {
		opts.Pool = meshing.NewPool(0)
	}
	return &Store{
		opts:   opts,
		dims:   opts.Generator.Dims(),
		seed:   opts.Generator.Seed(),
		chunks: make(map[world.ChunkCoord]*Chunk),
	}, nil
}

// Dims returns the chunk size shared by every chunk.
func (s *Store) Dims() world.Dims {
	return s.dims
}

// Ensure creates the chunk at coord and queues its generation. It returns
// false when the chunk already exists or the store is closed.
func (s *Store) Ensure(coord world.ChunkCoord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.chunks[coord]; ok {
		return false
	}

	c := newChunk(coord, s.dims, s.seed)
	s.chunks[coord] = c
	s.order = append(s.order, c)
	s.pending = append(s.pending, c)
	if s.batch == nil {
		s.batch = s.opts.Pool.Batch()
	}
	s.batch.Go(func(ctx context.Context) error {
		return s.generate(ctx, c)
	})
	return true
}

// EnsureAround ensures every chunk in [-radius, radius) on X and Z and
// [-vertical, vertical) on Y around center. It returns how many were created.
func (s *Store) EnsureAround(center world.ChunkCoord, radius, vertical int) int {
	created := 0
	for x := -radius; x < radius; x++ {
		for y := -vertical; y < vertical; y++ {
			for z := -radius; z < radius; z++ {
				if s.Ensure(center.Add(x, y, z)) {
					created++
				}
			}
		}
	}
	return created
}

func (s *Store) generate(ctx context.Context, c *Chunk) (err error) {
	timer := profiling.Start("chunks.generate")
	defer func() {
		if err == nil && s.opts.Verbose {
			timer.LogEnd(fmt.Sprintf("Chunk %d,%d,%d generated", c.coord.X, c.coord.Y, c.coord.Z))
			return
		}
		timer.Stop()
	}()

	grid := s.opts.Generator.Populate(c.coord)
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.setState(StateFailed)
		return ctxErr
	}

	var opts []meshing.Option
	if s.opts.CullBorders {
		ox, oy, oz := c.coord.Origin(s.dims)
		gen := s.opts.Generator
		opts = append(opts, meshing.WithNeighbors(func(x, y, z int) bool {
			return gen.SolidAt(ox+x, oy+y, oz+z)
		}))
	}

	vertices, genErr := meshing.Generate(grid, s.opts.Lookup, opts...)
	if genErr != nil {
		c.setState(StateFailed)
		return fmt.Errorf("generate chunk %v: %w", c.coord, genErr)
	}

	c.grid = grid
	c.vertices = vertices
	c.vertexCount = len(vertices)
	c.solid = grid.Count()
	c.setState(StateGenerated)
	return nil
}

// Flush waits for all queued generation, then uploads the generated chunks one
// at a time. Chunks that failed to generate or upload are removed so a later
// Ensure retries them; their errors are returned joined.
func (s *Store) Flush(ctx context.Context) error {
	defer profiling.Track("chunks.Flush")()

	s.mu.Lock()
	batch, pending := s.batch, s.pending
	s.batch, s.pending = nil, nil
	s.mu.Unlock()

	if batch == nil {
		return nil
	}
	genErr := batch.Wait()

	var errs []error
	if genErr != nil {
		errs = append(errs, genErr)
	}
	var failed []*Chunk
	for _, c := range pending {
		if c.State() != StateGenerated {
			failed = append(failed, c)
			continue
		}
		if err := ctx.Err(); err != nil {
			c.setState(StateFailed)
			c.freeCPU()
			failed = append(failed, c)
			continue
		}
		mesh, err := s.opts.Uploader.Upload(c.coord, c.vertices)
		if err != nil {
			c.setState(StateFailed)
			c.freeCPU()
			failed = append(failed, c)
			errs = append(errs, fmt.Errorf("upload chunk %v: %w", c.coord, err))
			continue
		}
		c.mesh = mesh
		c.freeCPU()
		c.setState(StateResident)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	if len(failed) > 0 {
		s.remove(failed)
		log.Printf("chunks: %d of %d chunks failed", len(failed), len(pending))
	}
	return errors.Join(errs...)
}

func (s *Store) remove(list []*Chunk) {
	drop := make(map[*Chunk]struct{}, len(list))
	for _, c := range list {
		drop[c] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range drop {
		if s.chunks[c.coord] == c {
			delete(s.chunks, c.coord)
		}
	}
	kept := s.order[:0]
	for _, c := range s.order {
		if _, ok := drop[c]; !ok {
			kept = append(kept, c)
		}
	}
	clear(s.order[len(kept):])
	s.order = kept
}

// Render draws every resident chunk in insertion order, setting the "model"
// matrix to the chunk's world translation.
func (s *Store) Render(u Uniforms) {
	s.RenderCulled(u, nil)
}

// RenderCulled is Render that skips chunks whose bounds miss the culler.
// A nil culler draws everything.
func (s *Store) RenderCulled(u Uniforms, culler Culler) {
	defer profiling.Track("chunks.Render")()

	if s.opts.Atlas != nil {
		s.opts.Atlas.Bind(0)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	size := mgl32.Vec3{float32(s.dims.X), float32(s.dims.Y), float32(s.dims.Z)}
	for _, c := range s.order {
		if c.State() != StateResident || c.vertexCount == 0 {
			continue
		}
		t := c.coord.Translation(s.dims)
		if culler != nil {
			// voxel centres sit on integer coordinates
			lo := t.Sub(mgl32.Vec3{0.5, 0.5, 0.5})
			if !culler.IntersectsAABB(lo, lo.Add(size)) {
				continue
			}
		}
		u.SetMatrix4("model", mgl32.Translate3D(t.X(), t.Y(), t.Z()))
		c.mesh.Draw()
	}
}

// Len returns the number of chunks in any state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Resident returns the number of drawable chunks.
func (s *Store) Resident() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.order {
		if c.State() == StateResident {
			n++
		}
	}
	return n
}

// Vertices returns the total vertex count of resident chunks.
func (s *Store) Vertices() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.order {
		n += c.VertexCount()
	}
	return n
}

// Chunk returns the chunk at coord.
func (s *Store) Chunk(coord world.ChunkCoord) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[coord]
	return c, ok
}

// Close cancels queued generation, waits for running work, and releases every
// uploaded mesh. The store is empty afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.opts.Pool.Cancel()
	batch := s.batch
	s.batch, s.pending = nil, nil
	s.mu.Unlock()

	s.opts.Pool.Shutdown()
	if batch != nil {
		_ = batch.Wait()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.order {
		if c.State() == StateResident && c.mesh != nil {
			c.mesh.Release()
		}
		c.mesh = nil
		c.freeCPU()
	}
	s.chunks = make(map[world.ChunkCoord]*Chunk)
	s.order = nil
}
