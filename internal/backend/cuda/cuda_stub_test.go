//go:build !cuda || !(linux || windows)
// +build !cuda !linux,!windows

package cuda

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
