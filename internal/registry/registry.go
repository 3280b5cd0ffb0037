// Package registry implements the image registry: an append-only
// (backend, image-family-identity) -> Image store. An image is
// constructed at most once per pair; the CPU image is built in-process,
// a GPU image is resolved by loading a family-named shared object
// through the dynamic loader.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/orneryd/xpu-go/internal/dynload"
	"github.com/orneryd/xpu-go/internal/xpucore"
)

type key struct {
	backend xpucore.Backend
	family  reflect.Type
}

// CPUImageFactory builds the in-process CPU image for a family. Family
// packages register one of these at init time (see internal/images/...).
type CPUImageFactory func() xpucore.Image

// Registry caches one Image per (backend, family) pair.
type Registry struct {
	mu      sync.Mutex
	entries map[key]xpucore.Image
	cpu     map[reflect.Type]CPUImageFactory
	loaded  map[key]*dynload.Handle
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[key]xpucore.Image),
		cpu:     make(map[reflect.Type]CPUImageFactory),
		loaded:  make(map[key]*dynload.Handle),
	}
}

// Default is the process-wide registry the public façade dispatches
// through. Kernel family packages register their CPU image against it
// from an init() function; see internal/images/vectorops.
var Default = New()

// RegisterCPUImage associates a family type with the factory that builds
// its in-process CPU image. Intended to be called from an init() in the
// package that defines the family, keyed on a zero value of the family.
func (r *Registry) RegisterCPUImage(family xpucore.Family, factory CPUImageFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cpu[reflect.TypeOf(family)] = factory
}

// GetOrLoad returns the cached image for (backend, family), building one
// on first reference. For the CPU backend it calls the registered
// in-process factory; for any other backend it loads
// "lib<family.FileName()>_<backend>" through the dynamic loader and
// asks the resulting object to self-identify as an Image via a type
// assertion on the loaded driver-like object.
func (r *Registry) GetOrLoad(backend xpucore.Backend, family xpucore.Family) (xpucore.Image, error) {
	ft := reflect.TypeOf(family)
	k := key{backend: backend, family: ft}

	r.mu.Lock()
	if img, ok := r.entries[k]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	var img xpucore.Image

	if backend == xpucore.CPU {
		r.mu.Lock()
		factory, ok := r.cpu[ft]
		r.mu.Unlock()
		if !ok {
			return nil, &xpucore.Error{Kind: xpucore.KindNoSuchKernel, Message: fmt.Sprintf("no CPU image registered for family %s", ft)}
		}
		img = factory()
	} else {
		handle, loadErr := dynload.Open(imageFileName(family, backend))
		if loadErr != nil {
			return nil, loadErr
		}
		asImage, ok := handle.Object.(xpucore.Image)
		if !ok {
			handle.Close()
			return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("%s does not implement xpucore.Image", imageFileName(family, backend))}
		}
		img = asImage
		r.mu.Lock()
		r.loaded[k] = handle
		r.mu.Unlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[k]; ok {
		// Lost a race with another caller; keep the first winner so the
		// "created at most once per pair" invariant holds.
		return existing, nil
	}
	r.entries[k] = img
	return img, nil
}

// Close releases every dynamically-loaded image handle. Map iteration
// order is not acquisition order; handles are closed in whatever order
// the map yields them.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, h := range r.loaded {
		h.Close()
		delete(r.loaded, k)
	}
}

func imageFileName(family xpucore.Family, backend xpucore.Backend) string {
	return fmt.Sprintf("lib%s_%s", family.FileName(), backend.String())
}
