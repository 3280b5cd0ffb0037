// Package hip loads the HIP (ROCm) GPU driver for kernel families that
// target AMD GPUs.
//
// HIP's host API is deliberately CUDA-shaped (hipMalloc mirrors
// cudaMalloc, hipMemcpy mirrors cudaMemcpy, and so on), so this driver's
// shared object exports the same flat ABI as the CUDA one; only the
// library that implements it differs. As with cuda, the driver is never
// linked into this binary — it is dlopen'd from cmd/xpu-backend-hip.
//
// Build tags:
//   - Build with: go build -tags hip
//   - Without the tag: builds with the stub, reporting unavailable
package hip
