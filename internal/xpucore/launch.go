package xpucore

// ResolveGrid turns a grid's Blocks/Threads sentinel pair into a concrete
// (block count, threads per block) launch shape. Exactly one of the two
// must be set; a grid with both non-negative is a programmer error and is
// rejected before any launch happens.
func ResolveGrid(g Grid) (blocks, threadsPerBlock int, err error) {
	blocksSet := g.Blocks.X >= 0
	threadsSet := g.Threads.X >= 0

	switch {
	case blocksSet && threadsSet:
		return 0, 0, &Error{Kind: KindInvalidArgument, Message: "grid must leave exactly one of Blocks.X/Threads.X at -1"}
	case threadsSet:
		if g.Threads.X == 0 {
			return 0, DefaultBlockSize, nil
		}
		blocks = (g.Threads.X + DefaultBlockSize - 1) / DefaultBlockSize
		return blocks, DefaultBlockSize, nil
	case blocksSet:
		return g.Blocks.X, DefaultBlockSize, nil
	default:
		return 0, 0, &Error{Kind: KindInvalidArgument, Message: "grid must set one of Blocks.X/Threads.X"}
	}
}

// ForEachThread runs body once per thread of the resolved grid in
// block-major order, handing each invocation the KernelInfo a device
// thread would observe. This is the CPU reference realisation of a
// launch: a sequential loop over blocks and threads. NThreadsActual
// carries the block size actually chosen so kernel code never has to
// assume DefaultBlockSize.
func ForEachThread(g Grid, body func(KernelInfo)) error {
	blocks, tpb, err := ResolveGrid(g)
	if err != nil {
		return err
	}
	for b := 0; b < blocks; b++ {
		for t := 0; t < tpb; t++ {
			body(KernelInfo{
				IThread:        Dim{X: t},
				NThreads:       Dim{X: tpb},
				NThreadsActual: tpb,
				IBlock:         Dim{X: b},
				NBlocks:        Dim{X: blocks},
			})
		}
	}
	return nil
}
