package dynload

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"runtime"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

// remoteDriver adapts a dlopen'd backend driver library to xpucore.Driver.
// Every method resolves its fixed entry-point name through the library
// on each call; no symbol is cached, so the lookup cost is paid per call.
type remoteDriver struct {
	obj     unsafe.Pointer
	lib     library
	backend xpucore.Backend
}

func (d *remoteDriver) invoke(name string, a ...uintptr) (int64, error) {
	fn, err := d.lib.sym(name)
	if err != nil {
		return 0, &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: fmt.Sprintf("driver missing %s", name), Cause: err}
	}
	all := append([]uintptr{uintptr(d.obj)}, a...)
	return callFn(fn, argsOf(all...)), nil
}

func (d *remoteDriver) Setup() error {
	rc, err := d.invoke("XPUDriverSetup")
	if err != nil {
		return err
	}
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindSetupFailure, Message: d.ErrorToString(int(rc))}
	}
	return nil
}

func (d *remoteDriver) mallocVia(name string, bytes uintptr) (unsafe.Pointer, error) {
	out := make([]byte, 8)
	rc, err := d.invoke(name, bytes, uintptr(unsafe.Pointer(&out[0])))
	if err != nil {
		return nil, err
	}
	if rc != 0 {
		return nil, &xpucore.Error{Kind: xpucore.KindAllocationFailure, Message: d.ErrorToString(int(rc))}
	}
	return unsafe.Pointer(uintptr(binary.LittleEndian.Uint64(out))), nil
}

func (d *remoteDriver) MallocDevice(bytes uintptr) (unsafe.Pointer, error) {
	return d.mallocVia("XPUDriverMallocDevice", bytes)
}

func (d *remoteDriver) MallocHost(bytes uintptr) (unsafe.Pointer, error) {
	return d.mallocVia("XPUDriverMallocHost", bytes)
}

func (d *remoteDriver) MallocShared(bytes uintptr) (unsafe.Pointer, error) {
	return d.mallocVia("XPUDriverMallocShared", bytes)
}

func (d *remoteDriver) Free(ptr unsafe.Pointer) error {
	rc, err := d.invoke("XPUDriverFree", uintptr(ptr))
	if err != nil {
		return err
	}
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindAllocationFailure, Message: d.ErrorToString(int(rc))}
	}
	return nil
}

func (d *remoteDriver) Memcpy(dst, src unsafe.Pointer, bytes uintptr) error {
	rc, err := d.invoke("XPUDriverMemcpy", uintptr(dst), uintptr(src), bytes)
	if err != nil {
		return err
	}
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindCopyFailure, Message: d.ErrorToString(int(rc))}
	}
	return nil
}

func (d *remoteDriver) Memset(dst unsafe.Pointer, value byte, bytes uintptr) error {
	rc, err := d.invoke("XPUDriverMemset", uintptr(dst), uintptr(value), bytes)
	if err != nil {
		return err
	}
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindCopyFailure, Message: d.ErrorToString(int(rc))}
	}
	return nil
}

func (d *remoteDriver) NumDevices() (int, error) {
	rc, err := d.invoke("XPUDriverNumDevices")
	return int(rc), err
}

func (d *remoteDriver) SetDevice(index int) error {
	rc, err := d.invoke("XPUDriverSetDevice", uintptr(index))
	if err != nil {
		return err
	}
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindSetupFailure, Message: d.ErrorToString(int(rc))}
	}
	return nil
}

func (d *remoteDriver) GetDevice() (int, error) {
	rc, err := d.invoke("XPUDriverGetDevice")
	return int(rc), err
}

func (d *remoteDriver) DeviceSynchronize() error {
	rc, err := d.invoke("XPUDriverDeviceSynchronize")
	if err != nil {
		return err
	}
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindLaunchFailure, Message: d.ErrorToString(int(rc))}
	}
	return nil
}

const propsBufSize = 256

func (d *remoteDriver) GetProperties(index int) (xpucore.DeviceProperties, error) {
	buf := make([]byte, propsBufSize)
	rc, err := d.invoke("XPUDriverGetProperties", uintptr(index), uintptr(unsafe.Pointer(&buf[0])))
	if err != nil {
		return xpucore.DeviceProperties{}, err
	}
	if rc != 0 {
		return xpucore.DeviceProperties{}, &xpucore.Error{Kind: xpucore.KindSetupFailure, Message: d.ErrorToString(int(rc))}
	}
	return decodeProperties(buf), nil
}

func decodeProperties(buf []byte) xpucore.DeviceProperties {
	cstr := func(b []byte) string {
		for i, c := range b {
			if c == 0 {
				return string(b[:i])
			}
		}
		return string(b)
	}
	u64 := binary.LittleEndian.Uint64
	return xpucore.DeviceProperties{
		Name:               cstr(buf[0:64]),
		Arch:               cstr(buf[64:128]),
		WarpOrSubgroupSize: int(u64(buf[128:136])),
		SharedMemSize:      u64(buf[136:144]),
		ConstMemSize:       u64(buf[144:152]),
		MaxThreadsPerBlock: int(u64(buf[152:160])),
		MaxGridSize:        [3]int{int(u64(buf[160:168])), int(u64(buf[168:176])), int(u64(buf[176:184]))},
		GlobalMemAvailable: u64(buf[184:192]),
		GlobalMemTotal:     u64(buf[192:200]),
	}
}

func (d *remoteDriver) PointerGetDevice(ptr unsafe.Pointer) (int, error) {
	rc, err := d.invoke("XPUDriverPointerGetDevice", uintptr(ptr))
	return int(rc), err
}

func (d *remoteDriver) PointerKind(ptr unsafe.Pointer) xpucore.PointerKind {
	rc, err := d.invoke("XPUDriverPointerKind", uintptr(ptr))
	if err != nil {
		return xpucore.PointerUnknown
	}
	return xpucore.PointerKind(rc)
}

func (d *remoteDriver) MemInfo() (free, total uint64, err error) {
	out := make([]byte, 16)
	rc, invErr := d.invoke("XPUDriverMemInfo", uintptr(unsafe.Pointer(&out[0])))
	if invErr != nil {
		return 0, 0, invErr
	}
	if rc != 0 {
		return 0, 0, &xpucore.Error{Kind: xpucore.KindAllocationFailure, Message: d.ErrorToString(int(rc))}
	}
	return binary.LittleEndian.Uint64(out[0:8]), binary.LittleEndian.Uint64(out[8:16]), nil
}

func (d *remoteDriver) ErrorToString(code int) string {
	fn, err := d.lib.sym("XPUDriverErrorToString")
	if err != nil {
		return fmt.Sprintf("backend error %d", code)
	}
	buf := make([]byte, 256)
	callFn(fn, argsOf(uintptr(d.obj), uintptr(code), uintptr(unsafe.Pointer(&buf[0]))))
	for i, c := range buf {
		if c == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func (d *remoteDriver) Type() xpucore.Backend { return d.backend }

// remoteImage adapts a dlopen'd compiled-kernel image library to
// xpucore.Image. RunKernel's variadic arguments must each be either an
// unsafe.Pointer-shaped device address or a value whose address is
// itself being passed (the same convention the original template launch
// macro used: every kernel argument is conceptually a machine word).
type remoteImage struct {
	obj unsafe.Pointer
	lib library
}

func (img *remoteImage) RunKernel(name string, timeoutMS *float64, g xpucore.Grid, args ...any) error {
	fn, err := img.lib.sym("XPUImageRunKernel")
	if err != nil {
		return &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: "image missing XPUImageRunKernel", Cause: err}
	}

	cname := []byte(name + "\x00")
	grid := [6]int64{int64(g.Blocks.X), int64(g.Blocks.Y), int64(g.Blocks.Z), int64(g.Threads.X), int64(g.Threads.Y), int64(g.Threads.Z)}

	packed := make([]uintptr, len(args))
	boxes := make([]any, 0, len(args))
	for i, a := range args {
		word, box := packArg(a)
		packed[i] = word
		if box != nil {
			boxes = append(boxes, box)
		}
	}
	var argsPtr uintptr
	if len(packed) > 0 {
		argsPtr = uintptr(unsafe.Pointer(&packed[0]))
	}

	var timeoutPtr uintptr
	if timeoutMS != nil {
		timeoutPtr = uintptr(unsafe.Pointer(timeoutMS))
	}

	rc := callFn(fn, argsOf(
		uintptr(img.obj),
		uintptr(unsafe.Pointer(&cname[0])),
		uintptr(unsafe.Pointer(&grid[0])),
		timeoutPtr,
		argsPtr,
	))
	runtime.KeepAlive(boxes)
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindLaunchFailure, Message: fmt.Sprintf("kernel %q failed with code %d", name, rc)}
	}
	return nil
}

func (img *remoteImage) SetConstant(id string, value any) error {
	fn, err := img.lib.sym("XPUImageSetConstant")
	if err != nil {
		return &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: "image missing XPUImageSetConstant", Cause: err}
	}
	cid := []byte(id + "\x00")
	word, box := packArg(value)
	rc := callFn(fn, argsOf(uintptr(img.obj), uintptr(unsafe.Pointer(&cid[0])), word))
	runtime.KeepAlive(box)
	if rc != 0 {
		return &xpucore.Error{Kind: xpucore.KindNoSuchConstant, Message: fmt.Sprintf("constant %q rejected with code %d", id, rc)}
	}
	return nil
}

// packArg reduces a kernel argument to one machine word: a pointer
// argument (device/host buffer) passes through as-is, anything else is
// copied into a freshly allocated value of its own concrete type so the
// callee receives the address of the value's raw bytes. Copying into a
// bare `any` would not do: that hands over the address of the interface
// header (type word first), not the argument. The returned box must be
// kept alive until the foreign call completes, since the word carries no
// reference the collector can see.
func packArg(a any) (word uintptr, box any) {
	if p, ok := a.(unsafe.Pointer); ok {
		return uintptr(p), nil
	}
	v := reflect.New(reflect.TypeOf(a))
	v.Elem().Set(reflect.ValueOf(a))
	return v.Pointer(), v.Interface()
}
