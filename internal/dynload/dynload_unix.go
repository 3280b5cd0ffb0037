//go:build linux || darwin

package dynload

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

type unixLibrary struct {
	handle unsafe.Pointer
}

// soExt is appended to the bare library name passed to Open/OpenDriver;
// every build target in this module is linux or darwin when this file
// is compiled, and both use ".so" for the c-shared libraries this
// package loads (darwin's usual ".dylib" is a libtool convention, not
// what `go build -buildmode=c-shared` emits there).
const soExt = ".so"

func openLibrary(name string) (library, error) {
	cname := C.CString(name + soExt)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	h := C.dlopen(cname, C.RTLD_NOW)
	if h == nil {
		msg := C.GoString(C.dlerror())
		return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("dlopen %s: %s", name, msg)}
	}
	return &unixLibrary{handle: h}, nil
}

func (u *unixLibrary) sym(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	sym := C.dlsym(u.handle, cname)
	if errStr := C.dlerror(); errStr != nil {
		return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("dlsym %s: %s", name, C.GoString(errStr))}
	}
	return sym, nil
}

func (u *unixLibrary) close() error {
	if C.dlclose(u.handle) != 0 {
		return &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("dlclose: %s", C.GoString(C.dlerror()))}
	}
	return nil
}
