//go:build !hip || !(linux || windows)
// +build !hip !linux,!windows

package hip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubReportsUnavailable(t *testing.T) {
	assert.False(t, IsAvailable())
}

func TestStubNewFails(t *testing.T) {
	_, err := New()
	require.ErrorIs(t, err, ErrNotAvailable)
}
