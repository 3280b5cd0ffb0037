package xpu_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/xpu-go/pkg/xpu"
)

func TestCopyIdentityThroughDeviceBuffer(t *testing.T) {
	initCPU(t)

	const n = 64
	src := make([]float64, n)
	for i := range src {
		src[i] = float64(i) * 0.5
	}

	dev, err := xpu.DeviceMalloc[float64](n)
	require.NoError(t, err)
	defer dev.Free()

	require.NoError(t, xpu.Copy[float64](dev.Ptr(), unsafe.Pointer(&src[0]), n))

	dst := make([]float64, n)
	require.NoError(t, xpu.Copy[float64](unsafe.Pointer(&dst[0]), dev.Ptr(), n))

	assert.Equal(t, src, dst)
}

func TestMallocRawBothSides(t *testing.T) {
	initCPU(t)

	for _, side := range []xpu.Side{xpu.SideHost, xpu.SideDevice} {
		ptr, err := xpu.Malloc[int64](16, side)
		require.NoError(t, err)
		require.NotNil(t, ptr)
		require.NoError(t, xpu.Free(ptr))
	}

	_, err := xpu.Malloc[int64](16, xpu.Side(99))
	require.ErrorIs(t, err, xpu.ErrInvalidArgument)
}

func TestMemsetFillsPattern(t *testing.T) {
	initCPU(t)

	buf, err := xpu.DeviceMalloc[byte](8)
	require.NoError(t, err)
	defer buf.Free()

	require.NoError(t, xpu.Memset(buf.Ptr(), 0xAB, 8))
	for _, b := range buf.Slice() {
		assert.Equal(t, byte(0xAB), b)
	}
}

func TestHDBufferCopyIsNoOpWhenAliased(t *testing.T) {
	initCPU(t)

	const n = 4
	buf, err := xpu.NewHDBuffer[int32](n)
	require.NoError(t, err)
	defer buf.Free()

	for i := range buf.Host().Slice() {
		buf.Host().Slice()[i] = int32(i + 1)
	}

	require.NoError(t, buf.Copy(xpu.HostToDevice))

	// On the CPU backend host and device alias, so mutating the host side
	// is already visible on the device side and DeviceToHost copies
	// nothing back: the earlier values are not restored.
	for i := range buf.Host().Slice() {
		buf.Host().Slice()[i] = -1
	}
	require.NoError(t, buf.Copy(xpu.DeviceToHost))

	for _, v := range buf.Host().Slice() {
		assert.Equal(t, int32(-1), v)
	}
}

func TestHDBufferAliasesOnCPU(t *testing.T) {
	initCPU(t)

	buf, err := xpu.NewHDBuffer[int32](4)
	require.NoError(t, err)
	defer buf.Free()

	assert.False(t, buf.CopyRequired())
	assert.Equal(t, buf.Host().Ptr(), buf.Device().Ptr())

	buf.Host().Slice()[0] = 42
	assert.Equal(t, int32(42), buf.Device().Slice()[0])
}

func TestMallocZeroElements(t *testing.T) {
	initCPU(t)
	buf, err := xpu.HostMalloc[float32](0)
	require.NoError(t, err)
	require.NoError(t, buf.Free())
}

func TestFreeUnknownPointerFails(t *testing.T) {
	initCPU(t)
	var x int32
	err := xpu.Free(unsafe.Pointer(&x))
	require.Error(t, err)
}
