package memheap

import "sync"

// sizeClass is a bucket inside a heap for one power-of-two block size: a
// fullness-sorted doubly-linked list of superblocks plus the lock guarding
// it and its aggregate counters.
type sizeClass struct {
	mu sync.Mutex

	blockSize int // 2^c

	usedBlocks  int64
	totalBlocks int64

	head, tail *superblock // non-increasing order of usedCount: fullest at head
}

// insertHead links sb at the head of the list. Caller holds c.mu.
func (c *sizeClass) insertHead(sb *superblock) {
	sb.prev = nil
	sb.next = c.head
	if c.head != nil {
		c.head.prev = sb
	}
	c.head = sb
	if c.tail == nil {
		c.tail = sb
	}
}

// insertTail links sb at the tail of the list. Caller holds c.mu.
func (c *sizeClass) insertTail(sb *superblock) {
	sb.next = nil
	sb.prev = c.tail
	if c.tail != nil {
		c.tail.next = sb
	}
	c.tail = sb
	if c.head == nil {
		c.head = sb
	}
}

// remove unlinks sb from the list. Caller holds c.mu.
func (c *sizeClass) remove(sb *superblock) {
	if sb.prev != nil {
		sb.prev.next = sb.next
	} else {
		c.head = sb.next
	}
	if sb.next != nil {
		sb.next.prev = sb.prev
	} else {
		c.tail = sb.prev
	}
	sb.prev, sb.next = nil, nil
}

// swapWithSuccessor swaps sb with sb.next in the list, adjusting head/tail.
func (c *sizeClass) swapWithSuccessor(sb *superblock) {
	n := sb.next
	if n == nil {
		return
	}
	p := sb.prev
	after := n.next

	if p != nil {
		p.next = n
	} else {
		c.head = n
	}
	n.prev = p
	n.next = sb

	sb.prev = n
	sb.next = after
	if after != nil {
		after.prev = sb
	} else {
		c.tail = sb
	}
}

// bubbleUp restores sort order after sb.usedCount increased by one,
// swapping sb toward the head while its predecessor has strictly smaller
// usedCount. Caller holds c.mu.
func (c *sizeClass) bubbleUp(sb *superblock) {
	for sb.prev != nil && sb.prev.usedCount < sb.usedCount {
		c.swapWithSuccessor(sb.prev)
	}
}

// bubbleDown restores sort order after sb.usedCount decreased by one,
// swapping sb toward the tail while its successor has strictly greater
// usedCount. Caller holds c.mu.
func (c *sizeClass) bubbleDown(sb *superblock) {
	for sb.next != nil && sb.next.usedCount > sb.usedCount {
		c.swapWithSuccessor(sb)
	}
}

// searchFreeBlock returns the fullest superblock in the list that still has
// a free slot, or nil if none does. The non-increasing sort order makes the
// first superblock with room the fullest one with room; the usedBlocks ==
// totalBlocks fast path short-circuits the whole list when the class is
// provably full.
func (c *sizeClass) searchFreeBlock() *superblock {
	if c.usedBlocks == c.totalBlocks {
		return nil
	}
	for sb := c.head; sb != nil; sb = sb.next {
		if sb.hasFreeSlot() {
			return sb
		}
	}
	return nil
}
