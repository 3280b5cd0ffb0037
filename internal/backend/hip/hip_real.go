//go:build hip && (linux || windows)
// +build hip
// +build linux windows

package hip

import (
	"github.com/orneryd/xpu-go/internal/dynload"
	"github.com/orneryd/xpu-go/internal/xpucore"
)

// IsAvailable reports true: this binary was built with the hip tag on a
// supported platform, so a HIP driver library will be sought.
func IsAvailable() bool { return true }

// New loads the HIP driver library. The caller is responsible for
// calling Setup before using the returned driver.
func New() (xpucore.Driver, error) {
	handle, err := dynload.OpenDriver(xpucore.HIP.DriverLibraryName(), xpucore.HIP)
	if err != nil {
		return nil, err
	}
	return handle.Object.(xpucore.Driver), nil
}
