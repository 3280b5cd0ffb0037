// Command xpu-backend-sycl builds the SYCL driver shared object this
// module's runtime dlopens at Initialize. It is never linked into a
// normal Go binary; build it separately with an OpenCL ICD loader
// present:
//
//	go build -tags sycl -buildmode=c-shared -o libXPUBackendSYCL.so ./cmd/xpu-backend-sycl
//
// A SYCL device queue is itself commonly implemented on top of OpenCL,
// Level Zero, or CUDA; this driver realises it over the OpenCL host API,
// which no other driver in this module uses. Device
// allocations are tracked as cl_mem objects keyed by a synthetic handle
// (an incrementing counter), since a cl_mem is an opaque driver object,
// not a raw address the way a CUDA/HIP device pointer is.
//go:build sycl
// +build sycl

package main

/*
#cgo linux CFLAGS: -I/usr/include
#cgo linux LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#cgo windows LDFLAGS: -lOpenCL

#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
#include <stdlib.h>
#include <string.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

type driverState struct {
	mu        sync.Mutex
	platform  C.cl_platform_id
	device    C.cl_device_id
	context   C.cl_context
	queue     C.cl_command_queue
	nextHdl   uintptr
	deviceMem map[uintptr]C.cl_mem
	hostMem   map[uintptr][]byte
	lastErr   string
}

//export Create
func Create() unsafe.Pointer {
	return unsafe.Pointer(&driverState{
		nextHdl:   1,
		deviceMem: make(map[uintptr]C.cl_mem),
		hostMem:   make(map[uintptr][]byte),
	})
}

//export Destroy
func Destroy(obj unsafe.Pointer) {
	s := (*driverState)(obj)
	if s.queue != nil {
		C.clReleaseCommandQueue(s.queue)
	}
	if s.context != nil {
		C.clReleaseContext(s.context)
	}
	for _, mem := range s.deviceMem {
		C.clReleaseMemObject(mem)
	}
}

func state(obj uintptr) *driverState {
	return (*driverState)(unsafe.Pointer(obj))
}

//export XPUDriverSetup
func XPUDriverSetup(obj uintptr) int64 {
	s := state(obj)

	var platform C.cl_platform_id
	if C.clGetPlatformIDs(1, &platform, nil) != C.CL_SUCCESS {
		s.lastErr = "clGetPlatformIDs failed"
		return -1
	}

	var device C.cl_device_id
	if C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_GPU, 1, &device, nil) != C.CL_SUCCESS {
		if C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_DEFAULT, 1, &device, nil) != C.CL_SUCCESS {
			s.lastErr = "clGetDeviceIDs failed"
			return -1
		}
	}

	var status C.cl_int
	context := C.clCreateContext(nil, 1, &device, nil, nil, &status)
	if status != C.CL_SUCCESS {
		s.lastErr = "clCreateContext failed"
		return int64(status)
	}

	queue := C.clCreateCommandQueue(context, device, 0, &status)
	if status != C.CL_SUCCESS {
		C.clReleaseContext(context)
		s.lastErr = "clCreateCommandQueue failed"
		return int64(status)
	}

	s.platform, s.device, s.context, s.queue = platform, device, context, queue
	return 0
}

//export XPUDriverMallocDevice
func XPUDriverMallocDevice(obj uintptr, bytes uintptr, out uintptr) int64 {
	s := state(obj)
	var status C.cl_int
	mem := C.clCreateBuffer(s.context, C.CL_MEM_READ_WRITE, C.size_t(bytes), nil, &status)
	if status != C.CL_SUCCESS {
		s.lastErr = "clCreateBuffer failed"
		return int64(status)
	}

	s.mu.Lock()
	hdl := s.nextHdl
	s.nextHdl++
	s.deviceMem[hdl] = mem
	s.mu.Unlock()

	*(*uintptr)(unsafe.Pointer(out)) = hdl
	return 0
}

//export XPUDriverMallocHost
func XPUDriverMallocHost(obj uintptr, bytes uintptr, out uintptr) int64 {
	return mallocHost(state(obj), bytes, out)
}

//export XPUDriverMallocShared
func XPUDriverMallocShared(obj uintptr, bytes uintptr, out uintptr) int64 {
	// OpenCL has no first-class unified/shared allocation in the 1.x API
	// this driver targets; host-visible memory doubles as the shared tier.
	return mallocHost(state(obj), bytes, out)
}

func mallocHost(s *driverState, bytes uintptr, out uintptr) int64 {
	buf := make([]byte, bytes)
	var addr uintptr
	if bytes > 0 {
		addr = uintptr(unsafe.Pointer(&buf[0]))
	} else {
		addr = uintptr(unsafe.Pointer(&buf))
	}

	s.mu.Lock()
	s.hostMem[addr] = buf
	s.mu.Unlock()

	*(*uintptr)(unsafe.Pointer(out)) = addr
	return 0
}

//export XPUDriverFree
func XPUDriverFree(obj uintptr, ptr uintptr) int64 {
	s := state(obj)
	s.mu.Lock()
	defer s.mu.Unlock()
	if mem, ok := s.deviceMem[ptr]; ok {
		C.clReleaseMemObject(mem)
		delete(s.deviceMem, ptr)
		return 0
	}
	if _, ok := s.hostMem[ptr]; ok {
		delete(s.hostMem, ptr)
		return 0
	}
	s.lastErr = "free: unknown pointer"
	return -1
}

//export XPUDriverMemcpy
func XPUDriverMemcpy(obj uintptr, dst, src uintptr, bytes uintptr) int64 {
	s := state(obj)
	s.mu.Lock()
	dstMem, dstIsDevice := s.deviceMem[dst]
	srcMem, srcIsDevice := s.deviceMem[src]
	dstHost, dstIsHost := s.hostMem[dst]
	srcHost, srcIsHost := s.hostMem[src]
	s.mu.Unlock()

	switch {
	case dstIsDevice && srcIsHost:
		status := C.clEnqueueWriteBuffer(s.queue, dstMem, C.CL_TRUE, 0, C.size_t(bytes), unsafe.Pointer(&srcHost[0]), 0, nil, nil)
		return int64(status)
	case dstIsHost && srcIsDevice:
		status := C.clEnqueueReadBuffer(s.queue, srcMem, C.CL_TRUE, 0, C.size_t(bytes), unsafe.Pointer(&dstHost[0]), 0, nil, nil)
		return int64(status)
	case dstIsDevice && srcIsDevice:
		status := C.clEnqueueCopyBuffer(s.queue, srcMem, dstMem, 0, 0, C.size_t(bytes), 0, nil, nil)
		if status == C.CL_SUCCESS {
			C.clFinish(s.queue)
		}
		return int64(status)
	case dstIsHost && srcIsHost:
		copy(dstHost[:bytes], srcHost[:bytes])
		return 0
	default:
		s.lastErr = "memcpy: unknown pointer"
		return -1
	}
}

//export XPUDriverMemset
func XPUDriverMemset(obj uintptr, dst uintptr, value uintptr, bytes uintptr) int64 {
	s := state(obj)
	s.mu.Lock()
	host, isHost := s.hostMem[dst]
	mem, isDevice := s.deviceMem[dst]
	s.mu.Unlock()

	if isHost {
		for i := uintptr(0); i < bytes; i++ {
			host[i] = byte(value)
		}
		return 0
	}
	if isDevice {
		pattern := [1]byte{byte(value)}
		status := C.clEnqueueFillBuffer(s.queue, mem, unsafe.Pointer(&pattern[0]), 1, 0, C.size_t(bytes), 0, nil, nil)
		return int64(status)
	}
	s.lastErr = "memset: unknown pointer"
	return -1
}

//export XPUDriverNumDevices
func XPUDriverNumDevices(obj uintptr) int64 {
	var count C.cl_uint
	if C.clGetDeviceIDs(state(obj).platform, C.CL_DEVICE_TYPE_ALL, 0, nil, &count) != C.CL_SUCCESS {
		return 0
	}
	return int64(count)
}

//export XPUDriverSetDevice
func XPUDriverSetDevice(obj uintptr, index uintptr) int64 {
	// A single context/queue is created at Setup against one device;
	// multi-device selection is out of scope for this reference driver.
	if index != 0 {
		return -1
	}
	return 0
}

//export XPUDriverGetDevice
func XPUDriverGetDevice(obj uintptr) int64 { return 0 }

//export XPUDriverDeviceSynchronize
func XPUDriverDeviceSynchronize(obj uintptr) int64 {
	return int64(C.clFinish(state(obj).queue))
}

//export XPUDriverGetProperties
func XPUDriverGetProperties(obj uintptr, index uintptr, out uintptr) int64 {
	s := state(obj)
	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 256)

	var nameLen C.size_t
	var name [64]C.char
	C.clGetDeviceInfo(s.device, C.CL_DEVICE_NAME, 64, unsafe.Pointer(&name[0]), &nameLen)
	copy(buf[0:64], C.GoStringN(&name[0], C.int(nameLen)))

	var maxWorkGroup C.size_t
	C.clGetDeviceInfo(s.device, C.CL_DEVICE_MAX_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(maxWorkGroup)), unsafe.Pointer(&maxWorkGroup), nil)
	putU64(buf[128:136], uint64(maxWorkGroup))

	var localMem C.cl_ulong
	C.clGetDeviceInfo(s.device, C.CL_DEVICE_LOCAL_MEM_SIZE, C.size_t(unsafe.Sizeof(localMem)), unsafe.Pointer(&localMem), nil)
	putU64(buf[136:144], uint64(localMem))

	var globalMem C.cl_ulong
	C.clGetDeviceInfo(s.device, C.CL_DEVICE_GLOBAL_MEM_SIZE, C.size_t(unsafe.Sizeof(globalMem)), unsafe.Pointer(&globalMem), nil)
	putU64(buf[184:192], uint64(globalMem))
	putU64(buf[192:200], uint64(globalMem))
	putU64(buf[152:160], uint64(maxWorkGroup))
	return 0
}

//export XPUDriverPointerGetDevice
func XPUDriverPointerGetDevice(obj uintptr, ptr uintptr) int64 {
	s := state(obj)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deviceMem[ptr]; ok {
		return 0
	}
	if _, ok := s.hostMem[ptr]; ok {
		return 0
	}
	return -1
}

//export XPUDriverPointerKind
func XPUDriverPointerKind(obj uintptr, ptr uintptr) int64 {
	s := state(obj)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deviceMem[ptr]; ok {
		return 2 // device
	}
	if _, ok := s.hostMem[ptr]; ok {
		return 1 // host
	}
	return 0 // unknown
}

//export XPUDriverMemInfo
func XPUDriverMemInfo(obj uintptr, out uintptr) int64 {
	s := state(obj)
	var globalMem C.cl_ulong
	C.clGetDeviceInfo(s.device, C.CL_DEVICE_GLOBAL_MEM_SIZE, C.size_t(unsafe.Sizeof(globalMem)), unsafe.Pointer(&globalMem), nil)

	buf := unsafe.Slice((*byte)(unsafe.Pointer(out)), 16)
	putU64(buf[0:8], uint64(globalMem))
	putU64(buf[8:16], uint64(globalMem))
	return 0
}

//export XPUDriverErrorToString
func XPUDriverErrorToString(obj uintptr, code uintptr, out uintptr) int64 {
	msg := state(obj).lastErr
	if msg == "" {
		msg = "opencl error"
	}
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
