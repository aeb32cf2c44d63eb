package memheap

import "errors"

var (
	// ErrInvalidSize is returned for a negative allocation size.
	ErrInvalidSize = errors.New("memheap: invalid size")

	// ErrOverflow is returned when a size computation (count*size for
	// ZeroAllocate, or size+header for a large block) would overflow.
	ErrOverflow = errors.New("memheap: size computation overflow")

	// ErrOutOfMemory is returned when the page source cannot satisfy a
	// request. It also wraps a genuine overflow, treated as out-of-memory
	// at the allocator boundary.
	ErrOutOfMemory = errors.New("memheap: out of memory")

	// ErrClosed is returned by operations on an Allocator after Close.
	ErrClosed = errors.New("memheap: allocator closed")
)
