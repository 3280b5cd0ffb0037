//go:build !sycl || !(linux || windows)
// +build !sycl !linux,!windows

package sycl

import "github.com/orneryd/xpu-go/internal/xpucore"

// ErrNotAvailable is returned by New on a build without SYCL support.
var ErrNotAvailable = &xpucore.Error{Kind: xpucore.KindLoadFailure, Message: "sycl: driver library unavailable: built without the sycl tag or unsupported platform"}

// IsAvailable reports false: this binary has no SYCL driver to load.
func IsAvailable() bool { return false }

// New always fails on this build.
func New() (xpucore.Driver, error) {
	return nil, ErrNotAvailable
}
