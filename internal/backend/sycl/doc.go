// Package sycl loads the SYCL GPU driver for kernel families that want a
// vendor-neutral device queue.
//
// The reference implementation backing this driver's shared object is
// realised over the OpenCL host API through cgo (the CUDA and HIP
// drivers call their own vendor runtimes instead), since a SYCL runtime is itself
// usually implemented on top of OpenCL, Level Zero, or CUDA. The driver
// is dlopen'd from cmd/xpu-backend-sycl and never linked into this
// binary directly.
//
// Build tags:
//   - Build with: go build -tags sycl
//   - Without the tag: builds with the stub, reporting unavailable
package sycl
