//go:build !hip || !(linux || windows)
// +build !hip !linux,!windows

package hip

import "github.com/orneryd/xpu-go/internal/xpucore"

// ErrNotAvailable is returned by New on a build without HIP support.
var ErrNotAvailable = &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: "hip: driver library unavailable: built without the hip tag or unsupported platform"}

// IsAvailable reports false: this binary has no HIP driver to load.
func IsAvailable() bool { return false }

// New always fails on this build.
func New() (xpucore.Driver, error) {
	return nil, ErrNotAvailable
}
