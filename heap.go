package memheap

// heap is an array of size classes. Heap index cpuHeaps names the global
// heap; indices below that are CPU heaps.
type heap struct {
	id      int32
	classes [ClassCount]sizeClass
}

// newHeaps builds count heaps (CPU heaps plus the trailing global heap),
// each with ClassCount size classes pre-sized for their block size.
func newHeaps(count int) []heap {
	heaps := make([]heap, count)
	for i := range heaps {
		heaps[i].id = int32(i)
		for c := 0; c < ClassCount; c++ {
			heaps[i].classes[c].blockSize = 1 << uint(c)
		}
	}
	return heaps
}

// cpuHeapIndex selects a CPU heap for threadID: deterministic for a given
// identity, re-read on every call rather than pinned, so a thread
// migrating across CPUs mid-execution is tolerated.
func cpuHeapIndex(threadID uint64, cpuHeaps int) int {
	return int(hashThreadID(threadID) % uint64(cpuHeaps))
}
