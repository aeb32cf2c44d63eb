//go:build !windows

package memheap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Fetch maps a new anonymous, private, zero-filled region of at least n
// bytes. Generalized from cznic/memory's mmap_unix.go (which calls the
// older syscall package directly) onto golang.org/x/sys/unix, the home
// every actively-maintained mmap-based allocator in the retrieval pack
// uses for this call.
func (mmapPageSource) Fetch(n int) ([]byte, error) {
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	if uintptr(unsafe.Pointer(&b[0]))&uintptr(osPageSize-1) != 0 {
		panic("memheap: mmap returned a non-page-aligned address")
	}
	return b, nil
}

// Release unmaps a region previously obtained from Fetch.
func (mmapPageSource) Release(base unsafe.Pointer, n int) error {
	b := unsafe.Slice((*byte)(base), n)
	return unix.Munmap(b)
}
