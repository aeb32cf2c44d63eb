package memheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSuperblockCarving(t *testing.T) {
	const class = int8(5) // 32-byte blocks
	region := make([]byte, DefaultSBSize)

	sb := initSuperblock(region, class, 0)

	blockSize := 1 << uint(class)
	wantTotal := len(region) / (blockHeaderSize + blockSize)
	require.Equal(t, int32(wantTotal), sb.totalCount)
	assert.Equal(t, int32(0), sb.usedCount)
	assert.Equal(t, class, sb.class)
	assert.Equal(t, int32(0), sb.heapID)
	assert.True(t, sb.hasFreeSlot())

	seen := map[*blockHeader]bool{}
	count := 0
	for hdr := sb.freeHead; hdr != nil; hdr = hdr.next {
		assert.False(t, seen[hdr])
		seen[hdr] = true
		assert.Same(t, sb, hdr.owner)
		assert.False(t, hdr.inUse)
		assert.Equal(t, uintptr(blockSize), hdr.size)
		count++
	}
	assert.Equal(t, wantTotal, count)
}

func TestSuperblockTakeReturnBlock(t *testing.T) {
	region := make([]byte, DefaultSBSize)
	sb := initSuperblock(region, 5, 0)
	total := sb.totalCount

	hdr := sb.takeBlock()
	require.NotNil(t, hdr)
	assert.True(t, hdr.inUse)
	assert.Equal(t, int32(1), sb.usedCount)
	assert.True(t, sb.hasFreeSlot() || total == 1)

	sb.returnBlock(hdr)
	assert.Equal(t, int32(0), sb.usedCount)
	assert.False(t, hdr.inUse)
	assert.Same(t, hdr, sb.freeHead)
}

func TestSuperblockExhaustion(t *testing.T) {
	region := make([]byte, DefaultSBSize)
	sb := initSuperblock(region, 5, 0)

	for sb.hasFreeSlot() {
		require.NotNil(t, sb.takeBlock())
	}
	assert.Nil(t, sb.takeBlock())
	assert.Equal(t, sb.totalCount, sb.usedCount)
}
