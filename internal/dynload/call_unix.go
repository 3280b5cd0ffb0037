//go:build linux || darwin

package dynload

/*
#include <stdint.h>

typedef long long (*xpu_fn8)(uintptr_t, uintptr_t, uintptr_t, uintptr_t,
                              uintptr_t, uintptr_t, uintptr_t, uintptr_t);

static long long xpu_call8(void *fp, uintptr_t a0, uintptr_t a1, uintptr_t a2,
                            uintptr_t a3, uintptr_t a4, uintptr_t a5,
                            uintptr_t a6, uintptr_t a7) {
    return ((xpu_fn8)fp)(a0, a1, a2, a3, a4, a5, a6, a7);
}
*/
import "C"
import "unsafe"

// call invokes the function at fp with up to 8 positional, machine-word
// sized arguments — the flat ABI every exported backend/image entry
// point shares. Unused trailing slots are zero and ignored callee-side.
func call(fp unsafe.Pointer, args [8]uintptr) int64 {
	return int64(C.xpu_call8(fp,
		C.uintptr_t(args[0]), C.uintptr_t(args[1]), C.uintptr_t(args[2]), C.uintptr_t(args[3]),
		C.uintptr_t(args[4]), C.uintptr_t(args[5]), C.uintptr_t(args[6]), C.uintptr_t(args[7])))
}
