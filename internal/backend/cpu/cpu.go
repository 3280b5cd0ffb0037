// Package cpu implements the reference CPU driver. It is always linked
// into the binary — unlike the GPU backends, which are opened as shared
// objects at runtime — so a program that never finds a GPU toolchain
// still has a working backend to fall back to.
//
// "Device" pointers here are ordinary Go heap allocations. The driver
// keeps the backing slice alive in a side table keyed by its own
// address, since nothing else in the process holds a reference to it
// once MallocDevice returns a raw unsafe.Pointer — without that table
// the garbage collector would be free to reclaim it before Free runs.
package cpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

// Driver is the CPU reference implementation of xpucore.Driver. Host and
// device allocations are identical: plain Go byte slices. Only one CPU
// device ever exists, at index 0.
type Driver struct {
	mu    sync.Mutex
	live  map[uintptr][]byte
	total uint64
}

// New returns a CPU driver with a fixed, generous simulated memory
// budget used only to answer MemInfo queries.
func New() *Driver {
	return &Driver{
		live:  make(map[uintptr][]byte),
		total: 16 << 30,
	}
}

func (d *Driver) Setup() error { return nil }

func (d *Driver) alloc(bytes uintptr) (unsafe.Pointer, error) {
	if bytes == 0 {
		// Matches the zero-allocation edge case: a distinct, freeable
		// pointer rather than nil, so callers can still Free it.
		bytes = 1
	}
	buf := make([]byte, bytes)
	ptr := unsafe.Pointer(&buf[0])
	addr := uintptr(ptr)

	d.mu.Lock()
	d.live[addr] = buf
	d.mu.Unlock()

	return ptr, nil
}

func (d *Driver) MallocDevice(bytes uintptr) (unsafe.Pointer, error) { return d.alloc(bytes) }
func (d *Driver) MallocHost(bytes uintptr) (unsafe.Pointer, error)   { return d.alloc(bytes) }
func (d *Driver) MallocShared(bytes uintptr) (unsafe.Pointer, error) { return d.alloc(bytes) }

func (d *Driver) Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	addr := uintptr(ptr)
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[addr]; !ok {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: fmt.Sprintf("free: unknown pointer %#x", addr)}
	}
	delete(d.live, addr)
	return nil
}

func (d *Driver) bufAt(ptr unsafe.Pointer, bytes uintptr) ([]byte, error) {
	addr := uintptr(ptr)
	d.mu.Lock()
	buf, ok := d.live[addr]
	d.mu.Unlock()
	if !ok {
		return nil, &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: fmt.Sprintf("unknown pointer %#x", addr)}
	}
	if uintptr(len(buf)) < bytes {
		return nil, &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "copy exceeds allocation size"}
	}
	return buf, nil
}

// Memcpy moves raw bytes directly, like the single address space a real
// CPU backend has: both sides may be driver-owned allocations or
// ordinary Go memory the caller supplies (e.g. a plain slice being
// staged into a device buffer), so unlike Free this does not require
// either pointer to appear in the live-allocation table.
func (d *Driver) Memcpy(dst, src unsafe.Pointer, bytes uintptr) error {
	if bytes == 0 {
		return nil
	}
	dstBuf := unsafe.Slice((*byte)(dst), bytes)
	srcBuf := unsafe.Slice((*byte)(src), bytes)
	copy(dstBuf, srcBuf)
	return nil
}

func (d *Driver) Memset(dst unsafe.Pointer, value byte, bytes uintptr) error {
	if bytes == 0 {
		return nil
	}
	buf := unsafe.Slice((*byte)(dst), bytes)
	for i := range buf {
		buf[i] = value
	}
	return nil
}

func (d *Driver) NumDevices() (int, error) { return 1, nil }

func (d *Driver) SetDevice(index int) error {
	if index != 0 {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "cpu driver has a single device, index 0"}
	}
	return nil
}

func (d *Driver) GetDevice() (int, error) { return 0, nil }

func (d *Driver) DeviceSynchronize() error { return nil }

func (d *Driver) GetProperties(index int) (xpucore.DeviceProperties, error) {
	if index != 0 {
		return xpucore.DeviceProperties{}, &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "cpu driver has a single device, index 0"}
	}
	return xpucore.DeviceProperties{
		Name:               "CPU Reference Device",
		Arch:               "generic",
		WarpOrSubgroupSize: 1,
		SharedMemSize:      0,
		ConstMemSize:       d.total,
		MaxThreadsPerBlock: xpucore.DefaultBlockSize,
		MaxGridSize:        [3]int{1 << 30, 1 << 30, 1 << 30},
		GlobalMemAvailable: d.total,
		GlobalMemTotal:     d.total,
	}, nil
}

func (d *Driver) PointerGetDevice(ptr unsafe.Pointer) (int, error) {
	if _, err := d.bufAt(ptr, 0); err != nil {
		return -1, err
	}
	return 0, nil
}

func (d *Driver) PointerKind(ptr unsafe.Pointer) xpucore.PointerKind {
	if _, err := d.bufAt(ptr, 0); err != nil {
		return xpucore.PointerUnknown
	}
	// Host, device, and shared memory are the same allocation on the CPU
	// driver; report it as shared since neither side needs an explicit
	// copy to see the other's writes.
	return xpucore.PointerShared
}

func (d *Driver) MemInfo() (free, total uint64, err error) {
	d.mu.Lock()
	var used uint64
	for _, buf := range d.live {
		used += uint64(len(buf))
	}
	d.mu.Unlock()
	if used > d.total {
		return 0, d.total, nil
	}
	return d.total - used, d.total, nil
}

func (d *Driver) ErrorToString(code int) string {
	return fmt.Sprintf("cpu driver error %d", code)
}

func (d *Driver) Type() xpucore.Backend { return xpucore.CPU }
