// Command xpu-backend-cuda builds the CUDA driver shared object this
// module's runtime dlopens at Initialize. It is never linked into a
// normal Go binary; build it separately with a CUDA toolchain present:
//
//	go build -tags cuda -buildmode=c-shared -o libXPUBackendCUDA.so ./cmd/xpu-backend-cuda
//
// Every exported function follows the flat ABI internal/dynload expects:
// arguments and return values are machine words (uintptr, int64), with
// the driver's own object pointer always passed first. There is no
// public Go API here — the only consumers are internal/dynload (over
// dlopen) and the C ABI itself.
//go:build cuda
// +build cuda

package main

/*
#cgo linux CFLAGS: -I/usr/local/cuda/include
#cgo linux LDFLAGS: -L/usr/local/cuda/lib64 -lcudart
#cgo windows CFLAGS: -I"C:/Program Files/NVIDIA GPU Computing Toolkit/CUDA/v13.0/include"
#cgo windows LDFLAGS: -L${SRCDIR}/../../lib/cuda -lcudart

#include <cuda_runtime_api.h>
#include <string.h>
*/
import "C"

import (
	"unsafe"
)

type driverState struct {
	lastErr string
}

//export Create
func Create() unsafe.Pointer {
	return unsafe.Pointer(&driverState{})
}

//export Destroy
func Destroy(obj unsafe.Pointer) {
	// Nothing to release beyond the Go-side struct itself; cudaDeviceReset
	// is intentionally not called here so other handles in the same
	// process keep working.
}

func state(obj uintptr) *driverState {
	return (*driverState)(unsafe.Pointer(obj))
}

//export XPUDriverSetup
func XPUDriverSetup(obj uintptr) int64 {
	var count C.int
	if err := C.cudaGetDeviceCount(&count); err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	if count == 0 {
		state(obj).lastErr = "no CUDA devices found"
		return -1
	}
	return 0
}

//export XPUDriverMallocDevice
func XPUDriverMallocDevice(obj uintptr, bytes uintptr, out uintptr) int64 {
	var ptr unsafe.Pointer
	err := C.cudaMalloc(&ptr, C.size_t(bytes))
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	*(*uintptr)(unsafe.Pointer(out)) = uintptr(ptr)
	return 0
}

//export XPUDriverMallocHost
func XPUDriverMallocHost(obj uintptr, bytes uintptr, out uintptr) int64 {
	var ptr unsafe.Pointer
	err := C.cudaMallocHost(&ptr, C.size_t(bytes))
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	*(*uintptr)(unsafe.Pointer(out)) = uintptr(ptr)
	return 0
}

//export XPUDriverMallocShared
func XPUDriverMallocShared(obj uintptr, bytes uintptr, out uintptr) int64 {
	var ptr unsafe.Pointer
	err := C.cudaMallocManaged(&ptr, C.size_t(bytes), C.cudaMemAttachGlobal)
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	*(*uintptr)(unsafe.Pointer(out)) = uintptr(ptr)
	return 0
}

//export XPUDriverFree
func XPUDriverFree(obj uintptr, ptr uintptr) int64 {
	err := C.cudaFree(unsafe.Pointer(ptr))
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverMemcpy
func XPUDriverMemcpy(obj uintptr, dst, src uintptr, bytes uintptr) int64 {
	err := C.cudaMemcpy(unsafe.Pointer(dst), unsafe.Pointer(src), C.size_t(bytes), C.cudaMemcpyDefault)
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverMemset
func XPUDriverMemset(obj uintptr, dst uintptr, value uintptr, bytes uintptr) int64 {
	err := C.cudaMemset(unsafe.Pointer(dst), C.int(value), C.size_t(bytes))
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverNumDevices
func XPUDriverNumDevices(obj uintptr) int64 {
	var count C.int
	if err := C.cudaGetDeviceCount(&count); err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return 0
	}
	return int64(count)
}

//export XPUDriverSetDevice
func XPUDriverSetDevice(obj uintptr, index uintptr) int64 {
	err := C.cudaSetDevice(C.int(index))
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverGetDevice
func XPUDriverGetDevice(obj uintptr) int64 {
	var index C.int
	if err := C.cudaGetDevice(&index); err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return -1
	}
	return int64(index)
}

//export XPUDriverDeviceSynchronize
func XPUDriverDeviceSynchronize(obj uintptr) int64 {
	err := C.cudaDeviceSynchronize()
	if err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverGetProperties
func XPUDriverGetProperties(obj uintptr, index uintptr, out uintptr) int64 {
	var prop C.struct_cudaDeviceProp
	if err := C.cudaGetDeviceProperties(&prop, C.int(index)); err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 256)
	name := C.GoString(&prop.name[0])
	copy(buf[0:64], name)
	copy(buf[64:128], "sm_"+itoa(int(prop.major))+itoa(int(prop.minor)))
	putU64(buf[128:136], uint64(prop.warpSize))
	putU64(buf[136:144], uint64(prop.sharedMemPerBlock))
	putU64(buf[144:152], uint64(prop.totalConstMem))
	putU64(buf[152:160], uint64(prop.maxThreadsPerBlock))
	putU64(buf[160:168], uint64(prop.maxGridSize[0]))
	putU64(buf[168:176], uint64(prop.maxGridSize[1]))
	putU64(buf[176:184], uint64(prop.maxGridSize[2]))
	putU64(buf[184:192], 0)
	putU64(buf[192:200], uint64(prop.totalGlobalMem))
	return 0
}

//export XPUDriverPointerGetDevice
func XPUDriverPointerGetDevice(obj uintptr, ptr uintptr) int64 {
	var attrs C.struct_cudaPointerAttributes
	if err := C.cudaPointerGetAttributes(&attrs, unsafe.Pointer(ptr)); err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return -1
	}
	return int64(attrs.device)
}

//export XPUDriverPointerKind
func XPUDriverPointerKind(obj uintptr, ptr uintptr) int64 {
	var attrs C.struct_cudaPointerAttributes
	if err := C.cudaPointerGetAttributes(&attrs, unsafe.Pointer(ptr)); err != C.cudaSuccess {
		return 0 // unknown
	}
	switch attrs._type {
	case C.cudaMemoryTypeHost:
		return 1 // host
	case C.cudaMemoryTypeDevice:
		return 2 // device
	case C.cudaMemoryTypeManaged:
		return 3 // shared
	default:
		return 0
	}
}

//export XPUDriverMemInfo
func XPUDriverMemInfo(obj uintptr, out uintptr) int64 {
	var free, total C.size_t
	if err := C.cudaMemGetInfo(&free, &total); err != C.cudaSuccess {
		state(obj).lastErr = C.GoString(C.cudaGetErrorString(err))
		return int64(err)
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 16)
	putU64(buf[0:8], uint64(free))
	putU64(buf[8:16], uint64(total))
	return 0
}

//export XPUDriverErrorToString
func XPUDriverErrorToString(obj uintptr, code uintptr, out uintptr) int64 {
	msg := C.GoString(C.cudaGetErrorString(C.cudaError_t(code)))
	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 256)
	n := copy(buf, msg)
	if n < len(buf) {
		buf[n] = 0
	}
	return 0
}

func putU64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func main() {}
