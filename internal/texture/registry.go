package texture

import (
	"errors"
	"fmt"
	"sync"
)

// Loader creates the GPU texture for a key.
type Loader func() (uint32, error)

// Deleter frees a GPU texture.
type Deleter func(id uint32)

var ErrClosed = errors.New("texture: registry closed")

// Registry shares GPU textures by key. Each Acquire returns its own Handle and
// the texture is deleted when the last handle is released or the registry is
// closed. A Registry lives as long as the world that uses it.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	del     Deleter
	closed  bool
}

type entry struct {
	id   uint32
	refs int
}

// NewRegistry creates a registry that frees textures with del.
func NewRegistry(del Deleter) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		del:     del,
	}
}

// Acquire returns a handle for key, calling load only if the texture is not
// already resident.
func (r *Registry) Acquire(key string, load Loader) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if e, ok := r.entries[key]; ok {
		e.refs++
		return &Handle{r: r, key: key, id: e.id}, nil
	}

	id, err := load()
	if err != nil {
		return nil, fmt.Errorf("load texture %q: %w", key, err)
	}
	r.entries[key] = &entry{id: id, refs: 1}
	return &Handle{r: r, key: key, id: id}, nil
}

// Len returns the number of resident textures.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close deletes every texture regardless of outstanding handles.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for key, e := range r.entries {
		r.del(e.id)
		delete(r.entries, key)
	}
}

func (r *Registry) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		r.del(e.id)
		delete(r.entries, key)
	}
}

// Handle is one reference to a registry texture.
type Handle struct {
	r    *Registry
	key  string
	id   uint32
	once sync.Once
}

// ID returns the GPU texture name.
func (h *Handle) ID() uint32 {
	return h.id
}

// Release drops this reference. Calling it more than once is a no-op.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.r.release(h.key)
	})
}
