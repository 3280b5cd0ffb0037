package dynload

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

func TestZZDebug(t *testing.T) {
	lib := newFakeLibrary()
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: lib, backend: xpucore.CUDA}
	var sentinel byte
	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		fmt.Printf("args2=%x sentinel addr=%x\n", args[2], uintptr(unsafe.Pointer(&sentinel)))
		out := unsafe.Slice((*byte)(unsafe.Pointer(args[2])), 8)
		fmt.Printf("out before=%v\n", out)
		for i := range out { out[i] = byte(0xAA) }
		fmt.Printf("out after=%v\n", out)
		return 0
	})
	ptr, err := d.MallocDevice(64)
	fmt.Printf("ptr=%v err=%v\n", ptr, err)
}
