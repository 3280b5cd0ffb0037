//go:build windows

package dynload

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

type windowsLibrary struct {
	dll *syscall.LazyDLL
}

func openLibrary(name string) (library, error) {
	dll := syscall.NewLazyDLL(name + ".dll")
	if err := dll.Load(); err != nil {
		return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("LoadLibrary %s", name), Cause: err}
	}
	return &windowsLibrary{dll: dll}, nil
}

func (w *windowsLibrary) sym(name string) (unsafe.Pointer, error) {
	proc := w.dll.NewProc(name)
	if err := proc.Find(); err != nil {
		return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("GetProcAddress %s", name), Cause: err}
	}
	return unsafe.Pointer(proc.Addr()), nil
}

func (w *windowsLibrary) close() error {
	// LazyDLL exposes no public unload; the process keeps the module
	// mapped until exit. Matches the runtime's own contract that loaded
	// images live for the rest of the process's lifetime.
	return nil
}
