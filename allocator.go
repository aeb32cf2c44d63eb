package memheap

import (
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Allocator is a thread-aware heap allocator: an array of per-CPU heaps
// plus one global heap, each sharded into size classes of fullness-sorted
// superblocks. Build one with NewAllocator, or use the package-level
// Allocate/Release/ZeroAllocate/Reallocate functions, which share one
// process-wide default instance.
type Allocator struct {
	cpuHeaps      int
	sbSize        int
	largeThresh   int
	emptyFraction float64
	slack         int

	heaps []heap // len == cpuHeaps+1; index cpuHeaps is the global heap

	pages   PageSource
	threads ThreadIdentitySource
	log     *zap.Logger

	closed atomic.Bool

	regionsMu sync.Mutex
	regions   map[unsafe.Pointer]int // base -> length, for Close(); untouched by the hot path
}

// Option configures a new Allocator.
type Option func(*Allocator)

// WithPageSource injects the page source backing every superblock and
// large allocation. The default is an OS mmap-backed implementation.
func WithPageSource(p PageSource) Option {
	return func(a *Allocator) { a.pages = p }
}

// WithThreadIdentitySource injects the thread identity source used for
// CPU-heap selection. The default derives an identity from the calling
// goroutine.
func WithThreadIdentitySource(t ThreadIdentitySource) Option {
	return func(a *Allocator) { a.threads = t }
}

// WithCPUHeaps overrides the number of per-CPU heaps.
func WithCPUHeaps(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.cpuHeaps = n
		}
	}
}

// WithSuperblockSize overrides SB_SIZE.
func WithSuperblockSize(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.sbSize = n
		}
	}
}

// WithEmptyFraction overrides F, the allowed empty fraction.
func WithEmptyFraction(f float64) Option {
	return func(a *Allocator) {
		if f > 0 && f < 1 {
			a.emptyFraction = f
		}
	}
}

// WithSlack overrides K, slack in units of superblocks.
func WithSlack(k int) Option {
	return func(a *Allocator) {
		if k >= 0 {
			a.slack = k
		}
	}
}

// NewAllocator builds an independent Allocator. Its tunables are fixed for
// the life of the value; Option only lets a caller pick different values
// before any allocation happens, it is not a runtime reconfiguration
// surface.
func NewAllocator(opts ...Option) *Allocator {
	a := &Allocator{
		cpuHeaps:      DefaultCPUHeaps,
		sbSize:        DefaultSBSize,
		emptyFraction: EmptyFraction,
		slack:         SlackSuperblocks,
		pages:         mmapPageSource{},
		threads:       goroutineIdentitySource{},
		log:           zap.NewNop(),
		regions:       make(map[unsafe.Pointer]int),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.largeThresh = largeThreshold(a.sbSize)
	a.heaps = newHeaps(a.cpuHeaps + 1)
	return a
}

var (
	defaultOnce      sync.Once
	defaultAllocator *Allocator
)

// defaultInstance returns the process-wide Allocator backing the
// package-level Allocate/Release/ZeroAllocate/Reallocate functions, built
// exactly once behind a sync.Once.
func defaultInstance() *Allocator {
	defaultOnce.Do(func() {
		defaultAllocator = NewAllocator()
	})
	return defaultAllocator
}

// Allocate is the package-level entry point mirroring libc malloc:
// standard malloc semantics, returning a nil pointer and a non-nil error
// on failure rather than crashing.
func Allocate(size int) (unsafe.Pointer, error) { return defaultInstance().Allocate(size) }

// Release is the package-level entry point mirroring libc free; releasing
// a nil pointer is a no-op.
func Release(p unsafe.Pointer) error { return defaultInstance().Release(p) }

// ZeroAllocate is the package-level entry point mirroring libc calloc.
func ZeroAllocate(count, size int) (unsafe.Pointer, error) {
	return defaultInstance().ZeroAllocate(count, size)
}

// Reallocate is the package-level entry point mirroring libc realloc.
func Reallocate(p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	return defaultInstance().Reallocate(p, size)
}

// classForSize computes the size-class index for a small allocation:
// ceil(log2(size)), clamped to at least MinClassShift.
func classForSize(size int) int8 {
	if size <= 1<<MinClassShift {
		return MinClassShift
	}
	c := bits.Len(uint(size - 1))
	if c < MinClassShift {
		c = MinClassShift
	}
	return int8(c)
}

// Allocate is the method form of the package-level Allocate.
func (a *Allocator) Allocate(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if a.closed.Load() {
		return nil, ErrClosed
	}

	if size > a.largeThresh {
		return a.allocateLarge(size)
	}

	class := classForSize(size)
	if int(class) >= ClassCount {
		return a.allocateLarge(size)
	}

	threadID := a.threads.ThreadID()
	cpuIdx := cpuHeapIndex(threadID, a.cpuHeaps)
	return a.allocateSmall(size, class, cpuIdx)
}

func (a *Allocator) allocateLarge(size int) (unsafe.Pointer, error) {
	if size > math.MaxInt-blockHeaderSize {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, ErrOverflow)
	}
	total := size + blockHeaderSize

	region, err := a.pages.Fetch(total)
	if err != nil {
		a.log.Error("page source fetch failed for large allocation", zap.Int("size", size), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	a.trackRegion(region)

	hdr := (*blockHeader)(unsafe.Pointer(&region[0]))
	hdr.size = uintptr(size)
	hdr.class = largeClass
	hdr.inUse = true
	hdr.owner = nil
	hdr.next = nil
	return payloadOf(hdr), nil
}

func (a *Allocator) allocateSmall(size int, class int8, cpuIdx int) (unsafe.Pointer, error) {
	globalIdx := a.cpuHeaps
	cpuHeap := &a.heaps[cpuIdx]
	globalHeap := &a.heaps[globalIdx]

	cc := &cpuHeap.classes[class]
	gc := &globalHeap.classes[class]

	cc.mu.Lock()

	if sb := cc.searchFreeBlock(); sb != nil {
		hdr := sb.takeBlock()
		cc.usedBlocks++
		cc.bubbleUp(sb)
		cc.mu.Unlock()
		return payloadOf(hdr), nil
	}

	// CPU class empty; consult the global heap next. Lock ordering:
	// CPU class already held, global class acquired next, never reversed.
	gc.mu.Lock()
	if sb := gc.head; sb != nil {
		hdr := sb.takeBlock()
		gc.usedBlocks++
		migrate(sb, gc, cc, cpuHeap.id)
		gc.mu.Unlock()
		cc.mu.Unlock()
		return payloadOf(hdr), nil
	}

	// Global class empty too; grow by fetching a fresh superblock. Both
	// class locks stay held across the page-source call.
	region, err := a.pages.Fetch(a.sbSize)
	if err != nil {
		gc.mu.Unlock()
		cc.mu.Unlock()
		a.log.Error("page source fetch failed for superblock", zap.Int("class", int(class)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	a.trackRegion(region)

	sb := initSuperblock(region, class, cpuHeap.id)
	hdr := sb.takeBlock()
	cc.insertTail(sb)
	cc.bubbleUp(sb)
	cc.usedBlocks++
	cc.totalBlocks += int64(sb.totalCount)

	gc.mu.Unlock()
	cc.mu.Unlock()
	return payloadOf(hdr), nil
}

// resolveOwningClass reads sb.heapID under sb.mu, releases it, and
// acquires the guessed class lock; since sb may migrate in that window,
// sb.heapID is re-checked (again under sb.mu) once the class lock is
// held, retrying on mismatch. See DESIGN.md's "Lock coupling during free"
// entry for why this validate-and-retry form is used instead of holding
// sb.mu through the class-lock acquisition.
func (a *Allocator) resolveOwningClass(sb *superblock, class int8) (*sizeClass, int32) {
	for {
		sb.mu.Lock()
		heapID := sb.heapID
		sb.mu.Unlock()

		cc := &a.heaps[heapID].classes[class]
		cc.mu.Lock()

		sb.mu.Lock()
		same := sb.heapID == heapID
		sb.mu.Unlock()

		if same {
			return cc, heapID
		}
		cc.mu.Unlock()
	}
}

// Release is the method form of the package-level Release.
func (a *Allocator) Release(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	if a.closed.Load() {
		return ErrClosed
	}

	hdr := headerOf(p)
	if hdr.class == largeClass {
		total := blockHeaderSize + int(hdr.size)
		base := unsafe.Pointer(hdr)
		a.untrackRegion(base)
		return a.pages.Release(base, total)
	}

	sb := hdr.owner
	cc, heapID := a.resolveOwningClass(sb, hdr.class)

	sb.returnBlock(hdr)
	cc.usedBlocks--
	cc.bubbleDown(sb)

	if int(heapID) != a.cpuHeaps && cc.tail != nil {
		superblockCapacity := int64(cc.tail.totalCount)
		if reclamationViolated(cc.usedBlocks, cc.totalBlocks, superblockCapacity, a.slack, a.emptyFraction) {
			tail := cc.tail
			globalClass := &a.heaps[a.cpuHeaps].classes[hdr.class]
			globalClass.mu.Lock()
			migrate(tail, cc, globalClass, int32(a.cpuHeaps))
			globalClass.mu.Unlock()
		}
	}
	cc.mu.Unlock()
	return nil
}

// ZeroAllocate is like Allocate except the allocated memory is zeroed.
// count*size is checked for overflow and reported as out-of-memory. The
// page source already returns zero-filled memory, but a block popped from
// a free list may carry stale bytes from a previous occupant, so the
// region is zeroed unconditionally.
func (a *Allocator) ZeroAllocate(count, size int) (unsafe.Pointer, error) {
	if count < 0 || size < 0 {
		return nil, ErrInvalidSize
	}
	if count != 0 && size != 0 && count > math.MaxInt/size {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, ErrOverflow)
	}
	total := count * size

	p, err := a.Allocate(total)
	if err != nil {
		return nil, err
	}
	if p != nil && total > 0 {
		b := unsafe.Slice((*byte)(p), total)
		for i := range b {
			b[i] = 0
		}
	}
	return p, nil
}

// Reallocate always allocates out-of-place, copying
// min(new_size, old_block_size) bytes into the new block.
func (a *Allocator) Reallocate(p unsafe.Pointer, size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if p == nil {
		return a.Allocate(size)
	}
	if size == 0 {
		return nil, a.Release(p)
	}

	oldHdr := headerOf(p)
	oldSize := int(oldHdr.size)

	newPtr, err := a.Allocate(size)
	if err != nil {
		return nil, err
	}

	copyLen := size
	if oldSize < copyLen {
		copyLen = oldSize
	}
	if copyLen > 0 {
		oldBytes := unsafe.Slice((*byte)(p), copyLen)
		newBytes := unsafe.Slice((*byte)(newPtr), copyLen)
		copy(newBytes, oldBytes)
	}

	if err := a.Release(p); err != nil {
		return newPtr, err
	}
	return newPtr, nil
}

// Close releases every region this Allocator obtained from its page
// source and drops its region bookkeeping; afterwards every operation on
// the Allocator, including a second Close, returns ErrClosed. It is not
// necessary to Close an
// Allocator when exiting a process; Close exists for scratch instances
// built with NewAllocator in tests and embedders that want deterministic
// teardown.
func (a *Allocator) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	a.regionsMu.Lock()
	regions := a.regions
	a.regions = nil
	a.regionsMu.Unlock()

	var err error
	for base, n := range regions {
		if releaseErr := a.pages.Release(base, n); releaseErr != nil {
			err = multierr.Append(err, releaseErr)
		}
	}
	return err
}

func (a *Allocator) trackRegion(region []byte) {
	if len(region) == 0 {
		return
	}
	base := unsafe.Pointer(&region[0])
	a.regionsMu.Lock()
	if a.regions != nil {
		a.regions[base] = len(region)
	}
	a.regionsMu.Unlock()
}

func (a *Allocator) untrackRegion(base unsafe.Pointer) {
	a.regionsMu.Lock()
	if a.regions != nil {
		delete(a.regions, base)
	}
	a.regionsMu.Unlock()
}
