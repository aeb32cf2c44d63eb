package memheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHeapsShape(t *testing.T) {
	heaps := newHeaps(3)
	require.Len(t, heaps, 3)
	for i, h := range heaps {
		assert.Equal(t, int32(i), h.id)
		for c := 0; c < ClassCount; c++ {
			assert.Equal(t, 1<<uint(c), h.classes[c].blockSize)
		}
	}
}

func TestCPUHeapIndexDeterministicAndInRange(t *testing.T) {
	const cpuHeaps = 4
	for _, id := range []uint64{0, 1, 2, 42, 1 << 40} {
		first := cpuHeapIndex(id, cpuHeaps)
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, cpuHeaps)
		assert.Equal(t, first, cpuHeapIndex(id, cpuHeaps), "must be stable across calls")
	}
}

func TestCPUHeapIndexSpreadsDistinctIdentities(t *testing.T) {
	const cpuHeaps = 4
	seen := make(map[int]bool)
	for id := uint64(0); id < 64; id++ {
		seen[cpuHeapIndex(id, cpuHeaps)] = true
	}
	assert.Greater(t, len(seen), 1, "64 distinct thread ids should not all collide onto one heap")
}
