package xpu

import "unsafe"

func sizeOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// HostBuffer is a host-resident, typed allocation.
type HostBuffer[T any] struct {
	ptr unsafe.Pointer
	n   int
}

// HostMalloc allocates n elements of T in host memory.
func HostMalloc[T any](n int) (*HostBuffer[T], error) {
	r, err := current()
	if err != nil {
		return nil, err
	}
	ptr, err := r.driver.MallocHost(uintptr(n) * sizeOf[T]())
	if err != nil {
		return nil, err
	}
	return &HostBuffer[T]{ptr: ptr, n: n}, nil
}

func (b *HostBuffer[T]) Ptr() unsafe.Pointer { return b.ptr }
func (b *HostBuffer[T]) Len() int            { return b.n }

// Slice exposes the buffer as a Go slice. Valid on any backend: host
// memory is always addressable from the calling goroutine.
func (b *HostBuffer[T]) Slice() []T { return unsafe.Slice((*T)(b.ptr), b.n) }

func (b *HostBuffer[T]) Free() error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.Free(b.ptr)
}

// DBuffer is a device-resident, typed allocation. Its contents are not
// generally host-addressable; move data in and out with Copy or via an
// HDBuffer.
type DBuffer[T any] struct {
	ptr unsafe.Pointer
	n   int
}

// DeviceMalloc allocates n elements of T in device memory.
func DeviceMalloc[T any](n int) (*DBuffer[T], error) {
	r, err := current()
	if err != nil {
		return nil, err
	}
	ptr, err := r.driver.MallocDevice(uintptr(n) * sizeOf[T]())
	if err != nil {
		return nil, err
	}
	return &DBuffer[T]{ptr: ptr, n: n}, nil
}

func (b *DBuffer[T]) Ptr() unsafe.Pointer { return b.ptr }
func (b *DBuffer[T]) Len() int            { return b.n }

// Slice exposes the buffer as a Go slice. Only safe when the active
// backend's device memory is host-addressable (the CPU driver); on a
// real GPU backend this aliases non-host memory and must not be
// dereferenced.
func (b *DBuffer[T]) Slice() []T { return unsafe.Slice((*T)(b.ptr), b.n) }

func (b *DBuffer[T]) Free() error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.Free(b.ptr)
}

// Malloc allocates n elements of T on the given side without wrapping
// the result in a typed buffer, for call sites that only need a raw
// pointer to hand to RunKernel.
func Malloc[T any](n int, side Side) (unsafe.Pointer, error) {
	r, err := current()
	if err != nil {
		return nil, err
	}
	bytes := uintptr(n) * sizeOf[T]()
	switch side {
	case SideHost:
		return r.driver.MallocHost(bytes)
	case SideDevice:
		return r.driver.MallocDevice(bytes)
	default:
		return nil, &Error{Kind: KindInvalidArgument, Message: "unknown allocation side"}
	}
}

// Free releases a pointer obtained from Malloc, HostBuffer.Ptr, or
// DBuffer.Ptr.
func Free(ptr unsafe.Pointer) error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.Free(ptr)
}

// Copy moves n elements of T from src to dst, both on whichever sides
// the active driver can reach directly.
func Copy[T any](dst, src unsafe.Pointer, n int) error {
	r, err := current()
	if err != nil {
		return err
	}
	return r.driver.Memcpy(dst, src, uintptr(n)*sizeOf[T]())
}

// HDBuffer pairs a host and a device allocation of the same length and
// moves data between them explicitly with Copy. On a backend where host
// and device memory are the same address space (the CPU driver), the
// device half aliases the host allocation instead of duplicating it, and
// Copy becomes a no-op.
type HDBuffer[T any] struct {
	host         *HostBuffer[T]
	dev          *DBuffer[T]
	copyRequired bool
}

// NewHDBuffer allocates both halves of a host/device buffer pair.
// HDBuffer.Free releases both halves; when CopyRequired is false they're
// the same allocation and only one driver Free call actually runs.
// Freeing the host half alone through Host().Free leaves the device half
// allocated.
func NewHDBuffer[T any](n int) (*HDBuffer[T], error) {
	backend, err := ActiveBackend()
	if err != nil {
		return nil, err
	}

	h, err := HostMalloc[T](n)
	if err != nil {
		return nil, err
	}

	if backend == CPU {
		return &HDBuffer[T]{host: h, dev: &DBuffer[T]{ptr: h.ptr, n: n}, copyRequired: false}, nil
	}

	d, err := DeviceMalloc[T](n)
	if err != nil {
		h.Free()
		return nil, err
	}
	return &HDBuffer[T]{host: h, dev: d, copyRequired: true}, nil
}

func (b *HDBuffer[T]) Host() *HostBuffer[T] { return b.host }
func (b *HDBuffer[T]) Device() *DBuffer[T]  { return b.dev }
func (b *HDBuffer[T]) Len() int             { return b.host.n }

// CopyRequired reports whether Copy actually moves bytes on this backend.
// False when host and device pointers alias, as they do on the CPU
// driver.
func (b *HDBuffer[T]) CopyRequired() bool { return b.copyRequired }

// Copy moves the buffer's contents one way. Each direction performs
// exactly one Memcpy call; HostToDevice and DeviceToHost are mutually
// exclusive branches, not a fallthrough. A no-op when CopyRequired is
// false, since host and device already alias the same memory.
func (b *HDBuffer[T]) Copy(dir Direction) error {
	if !b.copyRequired {
		return nil
	}
	r, err := current()
	if err != nil {
		return err
	}
	bytes := uintptr(b.host.n) * sizeOf[T]()
	switch dir {
	case HostToDevice:
		return r.driver.Memcpy(b.dev.ptr, b.host.ptr, bytes)
	case DeviceToHost:
		return r.driver.Memcpy(b.host.ptr, b.dev.ptr, bytes)
	default:
		return &Error{Kind: KindInvalidArgument, Message: "unknown copy direction"}
	}
}

func (b *HDBuffer[T]) Free() error {
	hostErr := b.host.Free()
	if !b.copyRequired {
		return hostErr
	}
	devErr := b.dev.Free()
	if hostErr != nil {
		return hostErr
	}
	return devErr
}
