package memheap

import (
	"os"
	"unsafe"
)

// osPageSize is the page alignment every platform adapter checks its
// mapped address against.
var osPageSize = os.Getpagesize()

// PageSource returns zero-filled, page-aligned regions of a requested byte
// length and releases them. The allocator core treats it purely as an
// interface, which is what makes the Unix and Windows implementations —
// and a test double — swappable in its place.
type PageSource interface {
	// Fetch returns a zero-filled region of at least n bytes, or an
	// error if the region could not be obtained.
	Fetch(n int) ([]byte, error)

	// Release gives back a region previously obtained from Fetch, at its
	// original base address and length.
	Release(base unsafe.Pointer, n int) error
}

// mmapPageSource is the default PageSource: anonymous, private,
// zero-filled virtual memory. It is stateless.
type mmapPageSource struct{}

var _ PageSource = mmapPageSource{}
