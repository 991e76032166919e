package mesh

import "sync"

// Handle identifies an uploaded mesh. The zero handle is never issued.
type Handle uint32

// Renderable is what a scene node keeps of an uploaded mesh: an opaque
// handle plus the index count a draw call needs.
type Renderable struct {
	Handle     Handle
	IndexCount int
}

// Registry owns uploaded meshes and hands out handles for them
type Registry struct {
	mu     sync.RWMutex
	meshes []Mesh
}

// NewRegistry creates an empty mesh registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Upload stores the mesh and returns its renderable reference
func (r *Registry) Upload(m Mesh) Renderable {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.meshes = append(r.meshes, m)
	return Renderable{
		Handle:     Handle(len(r.meshes)),
		IndexCount: len(m.Indices),
	}
}

// Get returns the mesh for a handle
func (r *Registry) Get(h Handle) (*Mesh, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h == 0 || int(h) > len(r.meshes) {
		return nil, false
	}
	return &r.meshes[h-1], true
}

// Len returns the number of uploaded meshes
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meshes)
}
