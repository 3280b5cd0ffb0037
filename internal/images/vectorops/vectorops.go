// Package vectorops provides the CPU reference image for the
// introductory kernel family this runtime ships with: an elementwise
// c[i] = a[i] + b[i] kernel over float32 buffers, a constant-memory
// symbol exercised by a kernel that broadcasts the uploaded value into a
// device buffer, and a block-wide sort over uint32 keys.
//
// It is registered for the CPU backend only. A GPU build resolves the
// same family, kernel, and constant names against a compiled shared
// object instead (see internal/registry), so this package's CPU image
// exists purely as a reference implementation and test fixture, not a
// public API.
package vectorops

import (
	"fmt"
	"slices"
	"time"
	"unsafe"

	"github.com/orneryd/xpu-go/internal/registry"
	"github.com/orneryd/xpu-go/internal/xpucore"
)

// Family bundles the kernels compiled together into one image.
type Family struct{}

func (Family) FileName() string { return "vectorops" }

// Add is the elementwise addition kernel tag.
type Add struct{}

func (Add) Family() xpucore.Family { return Family{} }
func (Add) Name() string           { return "add" }

// Params is the value type of the image's constant-memory symbol.
type Params struct {
	A int32
	B float32
}

// ParamsConst tags the image's one constant-memory symbol. Upload a
// value with xpu.SetConstant before launching any kernel that reads it.
type ParamsConst struct{}

func (ParamsConst) Family() xpucore.Family { return Family{} }
func (ParamsConst) ID() string             { return "params" }

// WriteParams is the kernel tag for the constant round-trip kernel: each
// thread copies the uploaded Params value into its slot of the output
// buffer.
type WriteParams struct{}

func (WriteParams) Family() xpucore.Family { return Family{} }
func (WriteParams) Name() string           { return "write_params" }

// BlockSort is the kernel tag for the block-wide sort reference: each
// block sorts its own block-sized segment of a uint32 key buffer, the
// CPU stand-in for the per-backend block-level sort primitive.
type BlockSort struct{}

func (BlockSort) Family() xpucore.Family { return Family{} }
func (BlockSort) Name() string           { return "block_sort" }

func init() {
	registry.Default.RegisterCPUImage(Family{}, func() xpucore.Image { return &cpuImage{} })
}

// cpuImage holds the family's backend-resident state: on the CPU
// backend, constant memory is just a field on the image object.
type cpuImage struct {
	params Params
}

func (img *cpuImage) RunKernel(name string, timeoutMS *float64, g xpucore.Grid, args ...any) error {
	start := time.Now()

	var err error
	switch name {
	case "add":
		err = runAdd(g, args...)
	case "write_params":
		err = img.runWriteParams(g, args...)
	case "block_sort":
		err = runBlockSort(g, args...)
	default:
		return &xpucore.Error{Kind: xpucore.KindNoSuchKernel, Message: fmt.Sprintf("vectorops: no kernel named %q", name)}
	}
	if err != nil {
		return err
	}
	if timeoutMS != nil {
		*timeoutMS = float64(time.Since(start)) / float64(time.Millisecond)
	}
	return nil
}

func (img *cpuImage) SetConstant(id string, value any) error {
	if id != (ParamsConst{}).ID() {
		return &xpucore.Error{Kind: xpucore.KindNoSuchConstant, Message: fmt.Sprintf("vectorops: no constant named %q", id)}
	}
	p, ok := value.(Params)
	if !ok {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: fmt.Sprintf("constant %q expects a vectorops.Params value, got %T", id, value)}
	}
	img.params = p
	return nil
}

// runAdd mirrors the bounds-checked-index idiom of the original launch:
// the kernel runs for every thread the grid describes and each thread
// guards its own index against the buffer length.
func runAdd(g xpucore.Grid, args ...any) error {
	a, b, c, n, err := ptr3IntArgs("add", args)
	if err != nil {
		return err
	}

	av := unsafe.Slice((*float32)(a), n)
	bv := unsafe.Slice((*float32)(b), n)
	cv := unsafe.Slice((*float32)(c), n)

	return xpucore.ForEachThread(g, func(info xpucore.KernelInfo) {
		i := info.IBlock.X*info.NThreadsActual + info.IThread.X
		if i >= n {
			return
		}
		cv[i] = av[i] + bv[i]
	})
}

func (img *cpuImage) runWriteParams(g xpucore.Grid, args ...any) error {
	if len(args) != 2 {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "write_params expects (out unsafe.Pointer, n int)"}
	}
	out, ok1 := args[0].(unsafe.Pointer)
	n, ok2 := args[1].(int)
	if !ok1 || !ok2 {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "write_params expects (out unsafe.Pointer, n int)"}
	}

	ov := unsafe.Slice((*Params)(out), n)
	return xpucore.ForEachThread(g, func(info xpucore.KernelInfo) {
		i := info.IBlock.X*info.NThreadsActual + info.IThread.X
		if i >= n {
			return
		}
		ov[i] = img.params
	})
}

// runBlockSort sorts each block's segment of the key buffer
// independently, leaving keys in different blocks unordered relative to
// each other. Trailing blocks past the end of the buffer sort their
// truncated remainder.
func runBlockSort(g xpucore.Grid, args ...any) error {
	if len(args) != 2 {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "block_sort expects (keys unsafe.Pointer, n int)"}
	}
	keys, ok1 := args[0].(unsafe.Pointer)
	n, ok2 := args[1].(int)
	if !ok1 || !ok2 {
		return &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: "block_sort expects (keys unsafe.Pointer, n int)"}
	}

	blocks, tpb, err := xpucore.ResolveGrid(g)
	if err != nil {
		return err
	}
	kv := unsafe.Slice((*uint32)(keys), n)
	for b := 0; b < blocks; b++ {
		lo := b * tpb
		if lo >= n {
			break
		}
		hi := lo + tpb
		if hi > n {
			hi = n
		}
		seg := kv[lo:hi]
		slices.Sort(seg)
	}
	return nil
}

func ptr3IntArgs(kernel string, args []any) (a, b, c unsafe.Pointer, n int, err error) {
	bad := &xpucore.Error{Kind: xpucore.KindInvalidArgument, Message: kernel + " expects (a, b, c unsafe.Pointer, n int)"}
	if len(args) != 4 {
		return nil, nil, nil, 0, bad
	}
	a, ok1 := args[0].(unsafe.Pointer)
	b, ok2 := args[1].(unsafe.Pointer)
	c, ok3 := args[2].(unsafe.Pointer)
	n, ok4 := args[3].(int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, nil, nil, 0, bad
	}
	return a, b, c, n, nil
}
