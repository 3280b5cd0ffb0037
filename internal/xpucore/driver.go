package xpucore

import "unsafe"

// Driver is the uniform contract implemented once per backend (CPU,
// CUDA-like, HIP-like, SYCL-like). Every GPU implementation lives behind
// a build tag in internal/backend/<name>; the CPU implementation in
// internal/backend/cpu is always linked in.
//
// Methods return a Go error rather than a raw backend status code: the
// driver is responsible for translating its native error into one of the
// Kind values in errors.go before returning.
type Driver interface {
	// Setup initialises backend state, enumerates devices, and selects a
	// default device. Must be idempotent.
	Setup() error

	MallocDevice(bytes uintptr) (unsafe.Pointer, error)
	MallocHost(bytes uintptr) (unsafe.Pointer, error)
	MallocShared(bytes uintptr) (unsafe.Pointer, error)
	Free(ptr unsafe.Pointer) error

	Memcpy(dst, src unsafe.Pointer, bytes uintptr) error
	Memset(dst unsafe.Pointer, value byte, bytes uintptr) error

	NumDevices() (int, error)
	SetDevice(index int) error
	GetDevice() (int, error)
	DeviceSynchronize() error

	GetProperties(index int) (DeviceProperties, error)
	PointerGetDevice(ptr unsafe.Pointer) (int, error)
	PointerKind(ptr unsafe.Pointer) PointerKind
	MemInfo() (free, total uint64, err error)

	ErrorToString(code int) string
	Type() Backend
}
