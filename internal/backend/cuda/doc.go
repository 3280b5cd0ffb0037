// Package cuda loads the CUDA-like GPU driver for kernel families that
// target it.
//
// The driver itself is never linked into this binary: it lives in a
// shared object built separately (cmd/xpu-backend-cuda, normally with a
// real CUDA toolchain available) and is dlopen'd by name in New. A
// binary built without the cuda tag, or built for a platform other than
// linux/windows, gets the stub implementation instead and always
// reports itself unavailable.
//
// Build tags:
//   - Build with: go build -tags cuda
//   - Without the tag: builds with the stub, reporting unavailable
package cuda
