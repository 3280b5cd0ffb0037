// Package xpu provides a backend-agnostic runtime for launching the same
// compute kernel on a CPU fallback or a CUDA-like, HIP-like, or SYCL-like
// GPU backend without duplicating per-backend launch glue in user code.
//
// A host program picks a backend once with Initialize, allocates memory
// through the typed façade (HostMalloc, DeviceMalloc, HDBuffer, DBuffer),
// and dispatches kernels with RunKernel. Kernels are identified by a
// zero-sized Kernel tag type rather than a function pointer, which lets
// the runtime resolve, lazily build, and cache one Image per
// (kernel family, backend) pair.
//
// GPU backends are not linked into the binary. They are opened at
// runtime as shared libraries exporting a "Create"/"Destroy" pair
// (see internal/dynload), so a program built without any GPU toolchain
// still links and runs — with Config.FallbackToCPU set it falls back to
// the CPU driver, which is always constructed; without it, Initialize
// returns the load error.
package xpu
