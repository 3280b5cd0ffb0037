package xpu

import (
	"sync"

	"github.com/orneryd/xpu-go/internal/backend/cpu"
	"github.com/orneryd/xpu-go/internal/backend/cuda"
	"github.com/orneryd/xpu-go/internal/backend/hip"
	"github.com/orneryd/xpu-go/internal/backend/sycl"
	"github.com/orneryd/xpu-go/internal/registry"
	"github.com/orneryd/xpu-go/internal/xpucore"
)

// Config controls which backend Initialize selects and how.
type Config struct {
	// PreferredBackend is tried first. CPU is always a valid preference
	// and never fails to load.
	PreferredBackend Backend
	// FallbackToCPU, when PreferredBackend is a GPU backend that fails
	// to load or set up, falls back to the CPU driver instead of
	// returning an error.
	FallbackToCPU bool
	// EnableTiming turns on wall-clock measurement of RunKernel calls;
	// the recorded samples are reported by GetTiming.
	EnableTiming bool
}

// DefaultConfig prefers the CPU backend, which is always available.
func DefaultConfig() Config {
	return Config{PreferredBackend: CPU, FallbackToCPU: true, EnableTiming: true}
}

type runtimeState struct {
	backend Backend
	driver  Driver
	// cpuDriver is constructed and set up during Initialize regardless of
	// the chosen backend, and serves as the fallback driver. No exported
	// function routes operations to it while a GPU backend is active.
	cpuDriver *cpu.Driver
	reg       *registry.Registry
	cfg       Config

	timingMu sync.Mutex
	timing   map[int][]float64

	deviceMu     sync.Mutex
	deviceIDs    map[deviceKey]int
	nextDeviceID int
}

type deviceKey struct {
	backend Backend
	index   int
}

var (
	rtMu sync.Mutex
	rt   *runtimeState
)

// Initialize selects and sets up a backend for the lifetime of the
// process. It must be called exactly once; a second call returns
// ErrAlreadyInitialized.
func Initialize(cfg Config) error {
	rtMu.Lock()
	defer rtMu.Unlock()
	if rt != nil {
		return ErrAlreadyInitialized
	}

	cpuDriver := cpu.New()
	if err := cpuDriver.Setup(); err != nil {
		return err
	}

	driver, backend, err := selectBackend(cfg, cpuDriver)
	if err != nil {
		return err
	}
	if err := driver.Setup(); err != nil {
		if backend == CPU || !cfg.FallbackToCPU {
			return err
		}
		Logger.Printf("backend %s setup failed (%v), falling back to cpu", backend, err)
		driver, backend = cpuDriver, CPU
	}

	Logger.Printf("initialized backend %s", backend)
	rt = &runtimeState{
		backend:   backend,
		driver:    driver,
		cpuDriver: cpuDriver,
		reg:       registry.Default,
		cfg:       cfg,
		timing:    make(map[int][]float64),
		deviceIDs: make(map[deviceKey]int),
	}
	return nil
}

// Shutdown releases every loaded GPU image and forgets the active
// backend, allowing a later Initialize call to run again. Intended for
// tests; a normal program calls Initialize once and lets process exit
// reclaim everything.
func Shutdown() {
	rtMu.Lock()
	defer rtMu.Unlock()
	if rt == nil {
		return
	}
	rt.reg.Close()
	rt = nil
}

func selectBackend(cfg Config, cpuDriver *cpu.Driver) (Driver, Backend, error) {
	if cfg.PreferredBackend == CPU {
		return cpuDriver, CPU, nil
	}

	driver, err := newGPUDriver(cfg.PreferredBackend)
	if err == nil {
		return driver, cfg.PreferredBackend, nil
	}
	if !cfg.FallbackToCPU {
		return nil, 0, err
	}
	Logger.Printf("backend %s unavailable (%v), falling back to cpu", cfg.PreferredBackend, err)
	return cpuDriver, CPU, nil
}

func newGPUDriver(backend Backend) (Driver, error) {
	switch backend {
	case CUDA:
		return cuda.New()
	case HIP:
		return hip.New()
	case SYCL:
		return sycl.New()
	default:
		return nil, &Error{Kind: KindInvalidArgument, Message: "unknown backend"}
	}
}

func current() (*runtimeState, error) {
	rtMu.Lock()
	defer rtMu.Unlock()
	if rt == nil {
		return nil, &Error{Kind: KindSetupFailure, Message: "xpu.Initialize has not been called"}
	}
	return rt, nil
}

// ActiveBackend returns the backend Initialize selected.
func ActiveBackend() (Backend, error) {
	r, err := current()
	if err != nil {
		return 0, err
	}
	return r.backend, nil
}

// NumDevices returns the device count the active backend reports.
func NumDevices() (int, error) {
	r, err := current()
	if err != nil {
		return 0, err
	}
	return r.driver.NumDevices()
}

// RunKernel resolves the image for kernel tag K on the active backend
// (building or loading it on first reference) and launches it on grid g
// with args. If timing is enabled, the elapsed wall-clock milliseconds
// are recorded and later retrievable through GetTiming.
func RunKernel[K Kernel](g Grid, args ...any) error {
	r, err := current()
	if err != nil {
		return err
	}

	var k K
	img, err := r.reg.GetOrLoad(r.backend, k.Family())
	if err != nil {
		return err
	}

	var elapsed float64
	var timeoutPtr *float64
	if r.cfg.EnableTiming {
		timeoutPtr = &elapsed
	}

	if err := img.RunKernel(k.Name(), timeoutPtr, g, args...); err != nil {
		return err
	}
	if err := r.driver.DeviceSynchronize(); err != nil {
		return &Error{Kind: KindLaunchFailure, Message: "post-launch synchronize failed for " + k.Name(), Cause: err}
	}

	if r.cfg.EnableTiming {
		id := xpucore.KernelID[K]()
		r.timingMu.Lock()
		r.timing[id] = append(r.timing[id], elapsed)
		r.timingMu.Unlock()
	}
	return nil
}

// SetConstant uploads value to the backend-resident constant-memory
// symbol tagged C.
func SetConstant[C Constant[V], V any](value V) error {
	r, err := current()
	if err != nil {
		return err
	}

	var c C
	img, err := r.reg.GetOrLoad(r.backend, c.Family())
	if err != nil {
		return err
	}
	return img.SetConstant(c.ID(), value)
}

// GetTiming returns the ordered sequence of wall-clock millisecond
// samples recorded for every successful RunKernel[K] call so far, one
// entry per launch. Empty if K has never launched successfully or
// timing is disabled. A failed launch does not append a sample.
func GetTiming[K Kernel]() []float64 {
	r, err := current()
	if err != nil {
		return nil
	}
	id := xpucore.KernelID[K]()
	r.timingMu.Lock()
	defer r.timingMu.Unlock()
	if len(r.timing[id]) == 0 {
		return nil
	}
	out := make([]float64, len(r.timing[id]))
	copy(out, r.timing[id])
	return out
}
