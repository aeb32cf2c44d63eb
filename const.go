package memheap

// Tunables for the package-level default instance. NewAllocator's options
// override the CPU-heap count, superblock size, F and K; ClassCount and
// MinClassShift are fixed for every instance.
const (
	// DefaultCPUHeaps is the number of per-CPU heaps in the default
	// instance. The global heap is an implicit extra heap at index
	// DefaultCPUHeaps.
	DefaultCPUHeaps = 4

	// ClassCount is the number of size classes. Class c holds blocks of
	// 2^c usable bytes.
	ClassCount = 16

	// MinClassShift is the smallest enforceable class index; small
	// requests are clamped up to this class.
	MinClassShift = 3

	// DefaultSBSize is the superblock size in bytes.
	DefaultSBSize = 64 * 1024

	// EmptyFraction is F, the allowed empty fraction of a CPU heap's
	// class before reclamation fires.
	EmptyFraction = 0.4

	// SlackSuperblocks is K, slack in units of superblocks.
	SlackSuperblocks = 0
)

// largeThreshold returns half the superblock size: requests strictly
// larger bypass the size-class machinery and go straight to the page
// source.
func largeThreshold(sbSize int) int {
	return sbSize / 2
}
