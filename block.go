package memheap

import "unsafe"

// largeClass marks a blockHeader that was obtained directly from the page
// source rather than carved out of a superblock.
const largeClass int8 = -1

// blockHeader is stamped immediately before every block's payload, small or
// large. The header sits in the same allocation as the payload it
// describes; the user only ever sees the address past the header.
type blockHeader struct {
	size  uintptr     // usable payload size: 2^class for small blocks, the requested size for large ones
	class int8        // size-class index, or largeClass
	inUse bool
	next  *blockHeader // free-list link within the owning superblock; unused for large blocks
	owner *superblock  // nil for large blocks
}

const (
	blockAlign  = 16 // at least pointer alignment
	headerBytes = unsafe.Sizeof(blockHeader{})
)

// blockHeaderSize is the header's footprint rounded up to blockAlign so the
// payload that follows starts on an aligned boundary.
var blockHeaderSize = roundup(int(headerBytes), blockAlign)

// roundup rounds n up to the next multiple of m, a power of two.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }

// payloadOf returns the address handed to the caller for a block whose
// header starts at hdr.
func payloadOf(hdr *blockHeader) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(hdr)) + uintptr(blockHeaderSize))
}

// headerOf recovers the block header preceding a payload pointer previously
// returned by payloadOf.
func headerOf(payload unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(uintptr(payload) - uintptr(blockHeaderSize)))
}

// pushFree prepends hdr to a superblock's free list and marks it free.
func pushFree(head **blockHeader, hdr *blockHeader) {
	hdr.inUse = false
	hdr.next = *head
	*head = hdr
}

// popFree removes and returns the head of a superblock's free list, or nil
// if the list is empty.
func popFree(head **blockHeader) *blockHeader {
	hdr := *head
	if hdr == nil {
		return nil
	}
	*head = hdr.next
	hdr.next = nil
	hdr.inUse = true
	return hdr
}
