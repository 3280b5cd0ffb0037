package dynload

import (
	"encoding/binary"
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

// fakeLibrary satisfies the library seam without a real dlopen: sym
// hands out a distinct stable pointer per entry-point name so a stubbed
// callFn can dispatch on which entry point was invoked.
type fakeLibrary struct {
	syms    map[string]unsafe.Pointer
	names   map[unsafe.Pointer]string
	missing map[string]bool
	closed  bool
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		syms:    make(map[string]unsafe.Pointer),
		names:   make(map[unsafe.Pointer]string),
		missing: make(map[string]bool),
	}
}

func (l *fakeLibrary) sym(name string) (unsafe.Pointer, error) {
	if l.missing[name] {
		return nil, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("fake: no symbol %s", name)}
	}
	if p, ok := l.syms[name]; ok {
		return p, nil
	}
	p := unsafe.Pointer(new(byte))
	l.syms[name] = p
	l.names[p] = name
	return p, nil
}

func (l *fakeLibrary) close() error {
	l.closed = true
	return nil
}

// stubCall replaces the platform call primitive for the duration of the
// test with a handler keyed on the fake library's entry-point names.
func stubCall(t *testing.T, lib *fakeLibrary, handler func(name string, args [8]uintptr) int64) {
	t.Helper()
	orig := callFn
	callFn = func(fp unsafe.Pointer, args [8]uintptr) int64 {
		return handler(lib.names[fp], args)
	}
	t.Cleanup(func() { callFn = orig })
}

func cstrAt(p uintptr) string {
	var out []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(p + i))
		if b == 0 {
			return string(out)
		}
		out = append(out, b)
	}
}

func TestPackArgPointerPassesThrough(t *testing.T) {
	var x int64
	p := unsafe.Pointer(&x)

	word, box := packArg(p)
	assert.Equal(t, uintptr(p), word)
	assert.Nil(t, box)
}

func TestPackArgCopiesScalarToAddressableWord(t *testing.T) {
	word, box := packArg(100)
	require.NotNil(t, box)

	// The word must address the value's raw bytes, not an interface
	// header wrapping it.
	assert.Equal(t, 100, *(*int)(unsafe.Pointer(word)))
}

func TestPackArgCopiesStructBytes(t *testing.T) {
	type params struct {
		A int32
		B float32
	}
	word, box := packArg(params{A: 42, B: 3.5})
	require.NotNil(t, box)

	assert.Equal(t, params{A: 42, B: 3.5}, *(*params)(unsafe.Pointer(word)))
}

func TestRunKernelMarshalsNameGridArgsAndTiming(t *testing.T) {
	lib := newFakeLibrary()
	img := &remoteImage{obj: unsafe.Pointer(new(byte)), lib: lib}

	var devBacking int64
	devPtr := unsafe.Pointer(&devBacking)

	var gotName string
	var gotGrid [6]int64
	var gotDev uintptr
	var gotN int
	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		require.Equal(t, "XPUImageRunKernel", name)
		assert.Equal(t, uintptr(img.obj), args[0])

		gotName = cstrAt(args[1])
		gotGrid = *(*[6]int64)(unsafe.Pointer(args[2]))

		// Dereference the packed words while the call is in flight, the
		// way a real backend kernel would.
		packed := unsafe.Slice((*uintptr)(unsafe.Pointer(args[4])), 2)
		gotDev = packed[0]
		gotN = *(*int)(unsafe.Pointer(packed[1]))

		*(*float64)(unsafe.Pointer(args[3])) = 12.5
		return 0
	})

	var elapsed float64
	err := img.RunKernel("add", &elapsed, xpucore.NThreads(xpucore.Dim{X: 100}), devPtr, 100)
	require.NoError(t, err)

	assert.Equal(t, "add", gotName)
	assert.Equal(t, [6]int64{-1, 0, 0, 100, 0, 0}, gotGrid)
	assert.Equal(t, uintptr(devPtr), gotDev)
	assert.Equal(t, 100, gotN)
	assert.Equal(t, 12.5, elapsed)
}

func TestRunKernelLaunchFailure(t *testing.T) {
	lib := newFakeLibrary()
	img := &remoteImage{obj: unsafe.Pointer(new(byte)), lib: lib}

	stubCall(t, lib, func(name string, args [8]uintptr) int64 { return 9 })

	err := img.RunKernel("add", nil, xpucore.NThreads(xpucore.Dim{X: 1}))
	require.ErrorIs(t, err, xpucore.ErrLaunchFailure)
	assert.Contains(t, err.Error(), "add")
}

func TestSetConstantPassesValueAddress(t *testing.T) {
	type params struct {
		A int32
		B float32
	}
	lib := newFakeLibrary()
	img := &remoteImage{obj: unsafe.Pointer(new(byte)), lib: lib}

	var gotID string
	var gotValue params
	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		require.Equal(t, "XPUImageSetConstant", name)
		gotID = cstrAt(args[1])
		gotValue = *(*params)(unsafe.Pointer(args[2]))
		return 0
	})

	require.NoError(t, img.SetConstant("params", params{A: 42, B: 3.5}))
	assert.Equal(t, "params", gotID)
	assert.Equal(t, params{A: 42, B: 3.5}, gotValue)
}

func TestSetConstantRejectedCode(t *testing.T) {
	lib := newFakeLibrary()
	img := &remoteImage{obj: unsafe.Pointer(new(byte)), lib: lib}

	stubCall(t, lib, func(name string, args [8]uintptr) int64 { return 1 })

	err := img.SetConstant("missing", 7)
	require.ErrorIs(t, err, xpucore.ErrNoSuchConstant)
}

func TestDriverSetupFailureUsesBackendErrorString(t *testing.T) {
	lib := newFakeLibrary()
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: lib, backend: xpucore.CUDA}

	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		switch name {
		case "XPUDriverSetup":
			return 7
		case "XPUDriverErrorToString":
			buf := unsafe.Slice((*byte)(unsafe.Pointer(args[2])), 256)
			copy(buf, "boom")
			return 0
		default:
			t.Fatalf("unexpected entry point %s", name)
			return -1
		}
	})

	err := d.Setup()
	require.ErrorIs(t, err, xpucore.ErrSetupFailure)
	assert.Contains(t, err.Error(), "boom")
}

func TestDriverMallocDeviceWritesOutPointer(t *testing.T) {
	lib := newFakeLibrary()
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: lib, backend: xpucore.CUDA}

	var sentinel byte
	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		require.Equal(t, "XPUDriverMallocDevice", name)
		assert.Equal(t, uintptr(64), args[1])
		out := unsafe.Slice((*byte)(unsafe.Pointer(args[2])), 8)
		binary.LittleEndian.PutUint64(out, uint64(uintptr(unsafe.Pointer(&sentinel))))
		return 0
	})

	ptr, err := d.MallocDevice(64)
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&sentinel), ptr)
}

func TestDriverMemcpyFailureKind(t *testing.T) {
	lib := newFakeLibrary()
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: lib, backend: xpucore.HIP}

	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		if name == "XPUDriverErrorToString" {
			return 0
		}
		return 3
	})

	var a, b byte
	err := d.Memcpy(unsafe.Pointer(&a), unsafe.Pointer(&b), 1)
	require.ErrorIs(t, err, xpucore.ErrCopyFailure)
}

func TestDriverMemInfoDecodes(t *testing.T) {
	lib := newFakeLibrary()
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: lib, backend: xpucore.SYCL}

	stubCall(t, lib, func(name string, args [8]uintptr) int64 {
		require.Equal(t, "XPUDriverMemInfo", name)
		out := unsafe.Slice((*byte)(unsafe.Pointer(args[1])), 16)
		binary.LittleEndian.PutUint64(out[0:8], 4<<30)
		binary.LittleEndian.PutUint64(out[8:16], 8<<30)
		return 0
	})

	free, total, err := d.MemInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(4<<30), free)
	assert.Equal(t, uint64(8<<30), total)
}

func TestDriverMissingSymbolIsLoadFailure(t *testing.T) {
	lib := newFakeLibrary()
	lib.missing["XPUDriverSetup"] = true
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: lib, backend: xpucore.CUDA}

	err := d.Setup()
	require.ErrorIs(t, err, xpucore.ErrLoadFailure)
}

func TestDriverTypeReportsBackend(t *testing.T) {
	d := &remoteDriver{obj: unsafe.Pointer(new(byte)), lib: newFakeLibrary(), backend: xpucore.HIP}
	assert.Equal(t, xpucore.HIP, d.Type())
}
