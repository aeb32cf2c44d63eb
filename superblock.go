package memheap

import (
	"sync"
	"unsafe"
)

// superblock is a fixed-size region carved into blocks of one size class,
// holding a free list, a usage count, a lock, and back-pointers. Unlike
// blockHeader, it is an ordinary Go-managed value rather than stamped
// inside the raw page-sourced region, since it needs a sync.Mutex. The raw
// *superblock back-pointer that blocks carry is not seen by the garbage
// collector; the superblock stays reachable through the size-class list
// that holds it.
type superblock struct {
	mu sync.Mutex // handoff lock: guards only sb.heapID during the free-path resolution window

	usedCount  int32
	totalCount int32
	freeHead   *blockHeader

	prev, next *superblock // doubly-linked position within the owning class's list
	class      int8
	heapID     int32 // index of the heap currently listing this superblock

	region []byte // backing storage from the page source; kept alive as long as the superblock is
}

// initSuperblock carves region into equal-size blocks for class and links
// them in address order.
func initSuperblock(region []byte, class int8, heapID int32) *superblock {
	blockSize := 1 << uint(class)
	slotSize := blockHeaderSize + blockSize
	totalCount := len(region) / slotSize

	sb := &superblock{
		class:      class,
		totalCount: int32(totalCount),
		heapID:     heapID,
		region:     region,
	}

	base := uintptr(unsafe.Pointer(&region[0]))
	var prev *blockHeader
	for i := 0; i < totalCount; i++ {
		hdr := (*blockHeader)(unsafe.Pointer(base + uintptr(i*slotSize)))
		hdr.size = uintptr(blockSize)
		hdr.class = class
		hdr.inUse = false
		hdr.owner = sb
		hdr.next = nil
		if prev == nil {
			sb.freeHead = hdr
		} else {
			prev.next = hdr
		}
		prev = hdr
	}
	return sb
}

// hasFreeSlot reports whether sb has at least one free block.
func (sb *superblock) hasFreeSlot() bool { return sb.usedCount < sb.totalCount }

// takeBlock pops a free block from sb and accounts for it. Caller must hold
// the lock of the size class currently listing sb.
func (sb *superblock) takeBlock() *blockHeader {
	hdr := popFree(&sb.freeHead)
	if hdr == nil {
		return nil
	}
	sb.usedCount++
	return hdr
}

// returnBlock pushes hdr back onto sb's free list and accounts for it.
// Caller must hold the lock of the size class currently listing sb.
func (sb *superblock) returnBlock(hdr *blockHeader) {
	pushFree(&sb.freeHead, hdr)
	sb.usedCount--
}
