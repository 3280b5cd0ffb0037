// Package dynload opens the shared objects that back GPU drivers and
// compiled kernel images at runtime, the Go equivalent of the
// library_loader/lib_obj<T> RAII pair: every library is expected to
// export a fixed, small C ABI — a Create/Destroy pair plus a handful of
// named entry points — rather than a Go type, since an interface value
// cannot cross a shared-library boundary built by a separate compilation.
//
// Every exported entry point takes and returns machine-word sized values
// only (uintptr, int64, pointers encoded as uintptr); the remoteDriver
// and remoteImage adapters in this package marshal between that flat ABI
// and the richer xpucore.Driver / xpucore.Image interfaces.
package dynload

import (
	"fmt"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

// library is the platform-specific half: open a named shared object and
// resolve symbols by name. Implemented by dynload_unix.go (dlopen/dlsym)
// and dynload_windows.go (LoadLibrary/GetProcAddress).
type library interface {
	sym(name string) (unsafe.Pointer, error)
	close() error
}

// callFn indirects the platform call primitive so tests can intercept
// the flat-ABI boundary without loading a real shared object.
var callFn = call

// Handle owns one loaded shared object. Object is the adapter built on
// top of it — an xpucore.Driver for a backend driver library, an
// xpucore.Image for a compiled kernel image library.
type Handle struct {
	lib    library
	create unsafe.Pointer
	obj    unsafe.Pointer
	Object any
}

// Close tears the loaded object down: it calls the library's exported
// Destroy entry point on the object handed back by Create, then unmaps
// the library itself.
func (h *Handle) Close() error {
	if h.obj != nil {
		if destroy, err := h.lib.sym("Destroy"); err == nil {
			callFn(destroy, argsOf(uintptr(h.obj)))
		}
	}
	return h.lib.close()
}

// Open loads the kernel image library named name (the backend-and-family
// qualified file name built by the registry) and wraps it as an
// xpucore.Image.
func Open(name string) (*Handle, error) {
	h, err := open(name)
	if err != nil {
		return nil, err
	}
	h.Object = &remoteImage{obj: h.obj, lib: h.lib}
	return h, nil
}

// OpenDriver loads the backend driver library for backend and wraps it
// as an xpucore.Driver.
func OpenDriver(name string, backend xpucore.Backend) (*Handle, error) {
	h, err := open(name)
	if err != nil {
		return nil, err
	}
	h.Object = &remoteDriver{obj: h.obj, lib: h.lib, backend: backend}
	return h, nil
}

func open(name string) (*Handle, error) {
	lib, err := openLibrary(name)
	if err != nil {
		return nil, err
	}
	create, err := lib.sym("Create")
	if err != nil {
		lib.close()
		return nil, err
	}
	obj := uintptr(callFn(create, argsOf()))
	if obj == 0 {
		lib.close()
		return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("%s: Create returned nil", name)}
	}
	return &Handle{lib: lib, create: create, obj: unsafe.Pointer(obj)}, nil
}

// argsOf packs up to 8 positional arguments for call, zero-filling the
// rest; the fixed arity mirrors the small, flat C ABI every exported
// entry point shares.
func argsOf(a ...uintptr) [8]uintptr {
	var out [8]uintptr
	copy(out[:], a)
	return out
}

func (h *Handle) sym(name string) (unsafe.Pointer, error) {
	return h.lib.sym(name)
}
