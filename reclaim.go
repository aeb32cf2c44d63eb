package memheap

// reclamationViolated reports whether a CPU heap's class is too empty to
// keep a superblock: u < a - K*S && u < (1-F)*a. The two conjuncts are
// kept distinct rather than simplified for K=0, so slack stays a live
// tunable.
func reclamationViolated(usedBlocks, totalBlocks int64, superblockCapacity int64, slack int, emptyFraction float64) bool {
	u := float64(usedBlocks)
	a := float64(totalBlocks)
	return usedBlocks < totalBlocks-int64(slack)*superblockCapacity && u < (1-emptyFraction)*a
}

// migrate moves sb from src to dst, restoring sorted order in both lists
// and updating aggregate statistics. Caller holds both src.mu and dst.mu,
// acquired in CPU-heap-then-global-heap order.
func migrate(sb *superblock, src, dst *sizeClass, dstHeapID int32) {
	src.remove(sb)
	src.usedBlocks -= int64(sb.usedCount)
	src.totalBlocks -= int64(sb.totalCount)

	dst.insertHead(sb)
	dst.bubbleDown(sb)
	dst.usedBlocks += int64(sb.usedCount)
	dst.totalBlocks += int64(sb.totalCount)

	// sb.heapID is guarded by sb.mu independently of the class locks
	// already held here, so a concurrent free resolving sb's owning class
	// (allocator.go's resolveOwningClass) never observes a torn value.
	sb.mu.Lock()
	sb.heapID = dstHeapID
	sb.mu.Unlock()
}
