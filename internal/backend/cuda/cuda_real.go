//go:build cuda && (linux || windows)
// +build cuda
// +build linux windows

package cuda

import (
	"github.com/orneryd/xpu-go/internal/dynload"
	"github.com/orneryd/xpu-go/internal/xpucore"
)

// IsAvailable reports true: this binary was built with the cuda tag on
// a supported platform, so a CUDA driver library will be sought.
func IsAvailable() bool { return true }

// New loads the CUDA driver library. The caller is responsible for
// calling Setup before using the returned driver.
func New() (xpucore.Driver, error) {
	handle, err := dynload.OpenDriver(xpucore.CUDA.DriverLibraryName(), xpucore.CUDA)
	if err != nil {
		return nil, err
	}
	return handle.Object.(xpucore.Driver), nil
}
