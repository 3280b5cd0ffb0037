//go:build sycl && (linux || windows)
// +build sycl
// +build linux windows

package sycl

import (
	"github.com/orneryd/xpu-go/internal/dynload"
	"github.com/orneryd/xpu-go/internal/xpucore"
)

// IsAvailable reports true: this binary was built with the sycl tag on
// a supported platform, so a SYCL driver library will be sought.
func IsAvailable() bool { return true }

// New loads the SYCL driver library. The caller is responsible for
// calling Setup before using the returned driver.
func New() (xpucore.Driver, error) {
	handle, err := dynload.OpenDriver(xpucore.SYCL.DriverLibraryName(), xpucore.SYCL)
	if err != nil {
		return nil, err
	}
	return handle.Object.(xpucore.Driver), nil
}
