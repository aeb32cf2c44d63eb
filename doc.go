// Package memheap implements a thread-aware, multi-CPU heap allocator:
// an array of per-CPU heaps plus one shared global heap, each sharded
// into power-of-two size classes of fullness-sorted superblocks. It plays
// the role of malloc/free/calloc/realloc for manually managed memory (it
// does not replace the C library's symbols), and is not a GC-backed Go
// allocator: memory returned by Allocate is not tracked by the
// garbage collector and must be explicitly released with Release.
//
// Call the package-level Allocate/Release/ZeroAllocate/Reallocate
// functions to use one process-wide default instance, or build an
// independent one with NewAllocator for embedding or testing.
package memheap
