// Command xpu-backend-hip builds the HIP (ROCm) driver shared object
// this module's runtime dlopens at Initialize. It is never linked into
// a normal Go binary; build it separately with a ROCm toolchain present:
//
//	go build -tags hip -buildmode=c-shared -o libXPUBackendHIP.so ./cmd/xpu-backend-hip
//
// HIP's host API mirrors CUDA's closely (hipMalloc/hipMemcpy/... in
// place of cudaMalloc/cudaMemcpy/...), so this file is the HIP twin of
// cmd/xpu-backend-cuda: same flat ABI, same per-function shape, just a
// different vendor API underneath.
//go:build hip
// +build hip

package main

/*
#cgo linux CFLAGS: -I/opt/rocm/include
#cgo linux LDFLAGS: -L/opt/rocm/lib -lamdhip64

#include <hip/hip_runtime_api.h>
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
func Destroy(obj unsafe.Pointer) {}

func state(obj uintptr) *driverState {
	return (*driverState)(unsafe.Pointer(obj))
}

//export XPUDriverSetup
func XPUDriverSetup(obj uintptr) int64 {
	var count C.int
	if err := C.hipGetDeviceCount(&count); err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	if count == 0 {
		state(obj).lastErr = "no HIP devices found"
		return -1
	}
	return 0
}

//export XPUDriverMallocDevice
func XPUDriverMallocDevice(obj uintptr, bytes uintptr, out uintptr) int64 {
	var ptr unsafe.Pointer
	err := C.hipMalloc(&ptr, C.size_t(bytes))
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	*(*uintptr)(unsafe.Pointer(out)) = uintptr(ptr)
	return 0
}

//export XPUDriverMallocHost
func XPUDriverMallocHost(obj uintptr, bytes uintptr, out uintptr) int64 {
	var ptr unsafe.Pointer
	err := C.hipHostMalloc(&ptr, C.size_t(bytes), C.hipHostMallocDefault)
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	*(*uintptr)(unsafe.Pointer(out)) = uintptr(ptr)
	return 0
}

//export XPUDriverMallocShared
func XPUDriverMallocShared(obj uintptr, bytes uintptr, out uintptr) int64 {
	var ptr unsafe.Pointer
	err := C.hipMallocManaged(&ptr, C.size_t(bytes), C.hipMemAttachGlobal)
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	*(*uintptr)(unsafe.Pointer(out)) = uintptr(ptr)
	return 0
}

//export XPUDriverFree
func XPUDriverFree(obj uintptr, ptr uintptr) int64 {
	err := C.hipFree(unsafe.Pointer(ptr))
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverMemcpy
func XPUDriverMemcpy(obj uintptr, dst, src uintptr, bytes uintptr) int64 {
	err := C.hipMemcpy(unsafe.Pointer(dst), unsafe.Pointer(src), C.size_t(bytes), C.hipMemcpyDefault)
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverMemset
func XPUDriverMemset(obj uintptr, dst uintptr, value uintptr, bytes uintptr) int64 {
	err := C.hipMemset(unsafe.Pointer(dst), C.int(value), C.size_t(bytes))
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverNumDevices
func XPUDriverNumDevices(obj uintptr) int64 {
	var count C.int
	if err := C.hipGetDeviceCount(&count); err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return 0
	}
	return int64(count)
}

//export XPUDriverSetDevice
func XPUDriverSetDevice(obj uintptr, index uintptr) int64 {
	err := C.hipSetDevice(C.int(index))
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverGetDevice
func XPUDriverGetDevice(obj uintptr) int64 {
	var index C.int
	if err := C.hipGetDevice(&index); err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return -1
	}
	return int64(index)
}

//export XPUDriverDeviceSynchronize
func XPUDriverDeviceSynchronize(obj uintptr) int64 {
	err := C.hipDeviceSynchronize()
	if err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	return 0
}

//export XPUDriverGetProperties
func XPUDriverGetProperties(obj uintptr, index uintptr, out uintptr) int64 {
	var prop C.hipDeviceProp_t
	if err := C.hipGetDeviceProperties(&prop, C.int(index)); err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 256)
	copy(buf[0:64], C.GoString(&prop.name[0]))
	copy(buf[64:128], C.GoString(&prop.gcnArchName[0]))
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
	var attrs C.hipPointerAttribute_t
	if err := C.hipPointerGetAttributes(&attrs, unsafe.Pointer(ptr)); err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return -1
	}
	return int64(attrs.device)
}

//export XPUDriverPointerKind
func XPUDriverPointerKind(obj uintptr, ptr uintptr) int64 {
	var attrs C.hipPointerAttribute_t
	if err := C.hipPointerGetAttributes(&attrs, unsafe.Pointer(ptr)); err != C.hipSuccess {
		return 0
	}
	switch attrs.memoryType {
	case C.hipMemoryTypeHost:
		return 1
	case C.hipMemoryTypeDevice:
		return 2
	case C.hipMemoryTypeManaged:
		return 3
	default:
		return 0
	}
}

//export XPUDriverMemInfo
func XPUDriverMemInfo(obj uintptr, out uintptr) int64 {
	var free, total C.size_t
	if err := C.hipMemGetInfo(&free, &total); err != C.hipSuccess {
		state(obj).lastErr = C.GoString(C.hipGetErrorString(err))
		return int64(err)
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 16)
	putU64(buf[0:8], uint64(free))
	putU64(buf[8:16], uint64(total))
	return 0
}

//export XPUDriverErrorToString
func XPUDriverErrorToString(obj uintptr, code uintptr, out uintptr) int64 {
	msg := C.GoString(C.hipGetErrorString(C.hipError_t(code)))
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

func main() {}
