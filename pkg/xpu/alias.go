package xpu

import "github.com/orneryd/xpu-go/internal/xpucore"

// Backend names one of the four supported compute backends.
type Backend = xpucore.Backend

const (
	CPU  = xpucore.CPU
	CUDA = xpucore.CUDA
	HIP  = xpucore.HIP
	SYCL = xpucore.SYCL
)

// Dim is an integer thread/block triple.
type Dim = xpucore.Dim

// Grid describes how many threads or blocks a single kernel launch uses.
type Grid = xpucore.Grid

// Lane tags a launch as using the standard scheduling path or a
// CPU-specific one.
type Lane = xpucore.Lane

const (
	LaneStandard = xpucore.LaneStandard
	LaneCPU      = xpucore.LaneCPU
)

// DefaultBlockSize is the per-backend default block size used when a
// grid is specified by thread count rather than block count.
const DefaultBlockSize = xpucore.DefaultBlockSize

// Side selects which allocator Malloc should use.
type Side = xpucore.Side

const (
	SideHost   = xpucore.SideHost
	SideDevice = xpucore.SideDevice
)

// Direction selects which way HDBuffer.Copy moves data.
type Direction = xpucore.Direction

const (
	HostToDevice = xpucore.HostToDevice
	DeviceToHost = xpucore.DeviceToHost
)

// NThreads builds a grid specified by thread count.
func NThreads(threads Dim, lane ...Lane) Grid { return xpucore.NThreads(threads, lane...) }

// NBlocks builds a grid specified by block count directly.
func NBlocks(blocks Dim, lane ...Lane) Grid { return xpucore.NBlocks(blocks, lane...) }

// KernelInfo is handed to a kernel body so it can locate itself within
// the launch.
type KernelInfo = xpucore.KernelInfo

// DeviceRecord identifies one device: a process-global id, the backend
// that owns it, and its index within that backend's device list.
type DeviceRecord = xpucore.DeviceRecord

// DeviceProperties mirrors the per-device info a driver reports.
type DeviceProperties = xpucore.DeviceProperties

// PointerKind is the category returned by a pointer-kind query.
type PointerKind = xpucore.PointerKind

const (
	PointerUnknown = xpucore.PointerUnknown
	PointerHost    = xpucore.PointerHost
	PointerDevice  = xpucore.PointerDevice
	PointerShared  = xpucore.PointerShared
)

// Kind classifies a runtime error without tying callers to a specific
// message string.
type Kind = xpucore.Kind

const (
	KindAlreadyInitialized = xpucore.KindAlreadyInitialized
	KindLoadFailure        = xpucore.KindLoadFailure
	KindSetupFailure       = xpucore.KindSetupFailure
	KindAllocationFailure  = xpucore.KindAllocationFailure
	KindCopyFailure        = xpucore.KindCopyFailure
	KindLaunchFailure      = xpucore.KindLaunchFailure
	KindInvalidArgument    = xpucore.KindInvalidArgument
	KindNoSuchKernel       = xpucore.KindNoSuchKernel
	KindNoSuchConstant     = xpucore.KindNoSuchConstant
)

// Error is the runtime's single user-visible failure type.
type Error = xpucore.Error

var (
	ErrAlreadyInitialized = xpucore.ErrAlreadyInitialized
	ErrLoadFailure        = xpucore.ErrLoadFailure
	ErrSetupFailure       = xpucore.ErrSetupFailure
	ErrAllocationFailure  = xpucore.ErrAllocationFailure
	ErrCopyFailure        = xpucore.ErrCopyFailure
	ErrLaunchFailure      = xpucore.ErrLaunchFailure
	ErrInvalidArgument    = xpucore.ErrInvalidArgument
	ErrNoSuchKernel       = xpucore.ErrNoSuchKernel
	ErrNoSuchConstant     = xpucore.ErrNoSuchConstant
)

// Driver is the uniform contract implemented once per backend.
type Driver = xpucore.Driver

// Family is a zero-sized type representing a bundle of kernels compiled
// together.
type Family = xpucore.Family

// Kernel is a zero-sized type uniquely naming one entry point inside an
// image family.
type Kernel = xpucore.Kernel

// Constant is a zero-sized type naming a backend-resident
// constant-memory symbol.
type Constant[V any] interface{ xpucore.Constant[V] }

// Image is the per-(family, backend) object the registry caches.
type Image = xpucore.Image

// KernelID derives the stable dense id for kernel tag K within its
// family. Used to index the timing table.
func KernelID[K Kernel]() int { return xpucore.KernelID[K]() }
