//go:build !cuda || !(linux || windows)
// +build !cuda !linux,!windows

package cuda

import "github.com/orneryd/xpu-go/internal/xpucore"

// ErrNotAvailable is returned by New on a build without CUDA support.
var ErrNotAvailable = &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: "cuda: driver library unavailable: built without the cuda tag or unsupported platform"}

// IsAvailable reports false: this binary has no CUDA driver to load.
func IsAvailable() bool { return false }

// New always fails on this build.
func New() (xpucore.Driver, error) {
	return nil, ErrNotAvailable
}
