//go:build windows

package dynload

import (
	"syscall"
	"unsafe"
)

// call invokes the function at fp with up to 8 positional, machine-word
// sized arguments. No cgo is needed on Windows: syscall.SyscallN takes a
// raw code pointer and a flat argument list directly.
func call(fp unsafe.Pointer, args [8]uintptr) int64 {
	r, _, _ := syscall.SyscallN(uintptr(fp), args[:]...)
	return int64(r)
}
