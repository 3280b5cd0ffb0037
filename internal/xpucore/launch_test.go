package xpucore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGridRoundsThreadsUpToBlockBoundary(t *testing.T) {
	blocks, tpb, err := ResolveGrid(NThreads(Dim{X: 100}))
	require.NoError(t, err)
	assert.Equal(t, 2, blocks)
	assert.Equal(t, DefaultBlockSize, tpb)
}

func TestResolveGridBlocksSpecifiedDirectly(t *testing.T) {
	blocks, tpb, err := ResolveGrid(NBlocks(Dim{X: 3}))
	require.NoError(t, err)
	assert.Equal(t, 3, blocks)
	assert.Equal(t, DefaultBlockSize, tpb)
}

func TestResolveGridZeroThreadsLaunchesNothing(t *testing.T) {
	blocks, _, err := ResolveGrid(NThreads(Dim{X: 0}))
	require.NoError(t, err)
	assert.Equal(t, 0, blocks)
}

func TestResolveGridRejectsAmbiguousGrid(t *testing.T) {
	_, _, err := ResolveGrid(Grid{Blocks: Dim{X: 1}, Threads: Dim{X: 4}})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestResolveGridRejectsEmptyGrid(t *testing.T) {
	_, _, err := ResolveGrid(Grid{Blocks: Dim{X: -1}, Threads: Dim{X: -1}})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestForEachThreadVisitsEveryThreadOnce(t *testing.T) {
	seen := make(map[[2]int]int)
	err := ForEachThread(NThreads(Dim{X: 100}), func(info KernelInfo) {
		seen[[2]int{info.IBlock.X, info.IThread.X}]++
		assert.Equal(t, DefaultBlockSize, info.NThreadsActual)
		assert.Equal(t, 2, info.NBlocks.X)
	})
	require.NoError(t, err)

	// 100 threads round up to two full blocks of DefaultBlockSize.
	assert.Len(t, seen, 2*DefaultBlockSize)
	for _, count := range seen {
		assert.Equal(t, 1, count)
	}
}

type idFamilyA struct{}

func (idFamilyA) FileName() string { return "id_family_a" }

type idFamilyB struct{}

func (idFamilyB) FileName() string { return "id_family_b" }

type kernelA1 struct{}

func (kernelA1) Family() Family { return idFamilyA{} }
func (kernelA1) Name() string   { return "a1" }

type kernelA2 struct{}

func (kernelA2) Family() Family { return idFamilyA{} }
func (kernelA2) Name() string   { return "a2" }

type kernelB1 struct{}

func (kernelB1) Family() Family { return idFamilyB{} }
func (kernelB1) Name() string   { return "b1" }

func TestKernelIDsDenseWithinFamily(t *testing.T) {
	a1 := KernelID[kernelA1]()
	a2 := KernelID[kernelA2]()
	b1 := KernelID[kernelB1]()

	assert.NotEqual(t, a1, a2)
	assert.Contains(t, []int{0, 1}, a1)
	assert.Contains(t, []int{0, 1}, a2)

	// Ids are confined to a family: a fresh family starts over at zero.
	assert.Equal(t, 0, b1)

	// Stable on repeated reference.
	assert.Equal(t, a1, KernelID[kernelA1]())
	assert.Equal(t, a2, KernelID[kernelA2]())
}
