package xpucore

import (
	"reflect"
	"sync"
)

// Family is a zero-sized type representing a bundle of kernels compiled
// together. FileName names the shared object a GPU backend loads to
// obtain this family's compiled image (see internal/registry).
type Family interface {
	FileName() string
}

// Kernel is a zero-sized type uniquely naming one entry point inside an
// image family. Name is the human-readable, stable identifier the image
// uses to look up its launcher.
type Kernel interface {
	Family() Family
	Name() string
}

// Constant is a zero-sized type naming a backend-resident constant-memory
// symbol. ID is stable and unique within Family; V is the symbol's value
// type.
type Constant[V any] interface {
	Family() Family
	ID() string
}

// identity assigns a dense, non-negative integer id to each distinct
// kernel type within a family, in first-reference order, confined to
// that family.
type identity struct {
	mu       sync.Mutex
	families map[reflect.Type]*familyIDs
}

type familyIDs struct {
	next int
	ids  map[reflect.Type]int
}

var kernelIdentity = &identity{families: make(map[reflect.Type]*familyIDs)}

func (r *identity) id(family reflect.Type, kernel reflect.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[family]
	if !ok {
		f = &familyIDs{ids: make(map[reflect.Type]int)}
		r.families[family] = f
	}
	if id, ok := f.ids[kernel]; ok {
		return id
	}
	id := f.next
	f.next++
	f.ids[kernel] = id
	return id
}

// KernelID derives the stable dense id for kernel tag K within its
// family. Used to index the timing table.
func KernelID[K Kernel]() int {
	var k K
	return kernelIdentity.id(reflect.TypeOf(k.Family()), reflect.TypeOf(k))
}

// Image is the per-(family, backend) object the registry caches. It
// knows how to launch each kernel in its family and how to upload the
// family's constant-memory symbols.
type Image interface {
	// RunKernel launches the kernel named name on grid g with the given
	// arguments. If timeoutMS is non-nil, the image measures elapsed
	// wall-clock milliseconds and writes it through the pointer.
	RunKernel(name string, timeoutMS *float64, g Grid, args ...any) error

	// SetConstant copies value into the backend's constant-memory slot
	// associated with the symbol named id.
	SetConstant(id string, value any) error
}
