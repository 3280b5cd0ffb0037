package cpu

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/xpu-go/internal/xpucore"
)

func TestMallocAndFreeRoundTrip(t *testing.T) {
	d := New()
	ptr, err := d.MallocDevice(64)
	require.NoError(t, err)
	require.NotNil(t, ptr)

	require.NoError(t, d.Free(ptr))

	err = d.Free(ptr)
	require.Error(t, err)
	var xerr *xpucore.Error
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, xpucore.KindInvalidArgument, xerr.Kind)
}

func TestMemcpyRoundTrip(t *testing.T) {
	d := New()
	src, err := d.MallocHost(4)
	require.NoError(t, err)
	dst, err := d.MallocDevice(4)
	require.NoError(t, err)

	require.NoError(t, d.Memset(src, 0xAB, 4))
	require.NoError(t, d.Memcpy(dst, src, 4))

	srcBuf, err := d.bufAt(src, 4)
	require.NoError(t, err)
	dstBuf, err := d.bufAt(dst, 4)
	require.NoError(t, err)
	assert.Equal(t, srcBuf, dstBuf)
}

// TestMemcpyFromArbitraryHostMemory exercises the realistic host-to-device
// staging pattern: the source is an ordinary Go allocation the driver has
// never seen, not something obtained through MallocHost. Real drivers don't
// require arbitrary host memory to be pre-registered, only device-side
// allocations need bookkeeping, so this must succeed.
func TestMemcpyFromArbitraryHostMemory(t *testing.T) {
	d := New()
	dst, err := d.MallocDevice(4)
	require.NoError(t, err)

	src := []byte{1, 2, 3, 4}
	require.NoError(t, d.Memcpy(dst, unsafe.Pointer(&src[0]), 4))

	dstBuf, err := d.bufAt(dst, 4)
	require.NoError(t, err)
	assert.Equal(t, src, dstBuf)
}

func TestMemcpyZeroBytesTolerateNilPointers(t *testing.T) {
	d := New()
	require.NoError(t, d.Memcpy(nil, nil, 0))
	require.NoError(t, d.Memset(nil, 0xFF, 0))
}

func TestMemInfoTracksLiveAllocations(t *testing.T) {
	d := New()
	free0, total, err := d.MemInfo()
	require.NoError(t, err)

	ptr, err := d.MallocDevice(1024)
	require.NoError(t, err)

	free1, _, err := d.MemInfo()
	require.NoError(t, err)
	assert.Equal(t, free0-1024, free1)

	require.NoError(t, d.Free(ptr))
	free2, _, err := d.MemInfo()
	require.NoError(t, err)
	assert.Equal(t, free0, free2)
	assert.Equal(t, total, free0+0)
}

func TestSingleDevice(t *testing.T) {
	d := New()
	n, err := d.NumDevices()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, d.SetDevice(0))
	require.Error(t, d.SetDevice(1))

	props, err := d.GetProperties(0)
	require.NoError(t, err)
	assert.Equal(t, xpucore.DefaultBlockSize, props.MaxThreadsPerBlock)
}

func TestPointerKindShared(t *testing.T) {
	d := New()
	ptr, err := d.MallocDevice(8)
	require.NoError(t, err)
	assert.Equal(t, xpucore.PointerShared, d.PointerKind(ptr))
	assert.Equal(t, xpucore.PointerUnknown, d.PointerKind(nil))
}
