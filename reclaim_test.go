package memheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReclamationViolatedMatchesScenario2Arithmetic(t *testing.T) {
	// CPUS=2, SB_SIZE=65536, class 5 (32-byte blocks), F=0.4, K=0,
	// total_count = 65536/(32+32) = 1024 on 64-bit platforms, used=1 after
	// the free.
	const total = 1024
	assert.True(t, reclamationViolated(1, total, total, 0, EmptyFraction))
}

func TestReclamationViolatedBothConjunctsRequired(t *testing.T) {
	const S = 100
	// First conjunct false (u >= a - K*S: 50 >= 100-1*100) blocks
	// reclamation even though the second conjunct alone (50 < 0.6*100)
	// would trigger it.
	assert.False(t, reclamationViolated(50, 100, S, 1, 0.4))
	// Second conjunct false (u >= (1-F)*a) blocks reclamation even though
	// the first conjunct alone would trigger it.
	assert.False(t, reclamationViolated(97, 100, S, 0, 0.05))
	// Both satisfied.
	assert.True(t, reclamationViolated(10, 100, S, 0, 0.4))
}

func TestReclamationSlackShiftsTheThreshold(t *testing.T) {
	const S = 100
	// u=5, a=100: first conjunct 5 < 100-0*100 is true at K=0, but false
	// once K=1 raises the bar to 5 < 0.
	assert.True(t, reclamationViolated(5, 100, S, 0, 0.9))
	assert.False(t, reclamationViolated(5, 100, S, 1, 0.9))
}

func TestMigrateMovesSuperblockAndUpdatesStats(t *testing.T) {
	var src, dst sizeClass
	sb := &superblock{usedCount: 2, totalCount: 10, heapID: 0}
	other := &superblock{usedCount: 9, totalCount: 10, heapID: 0}
	src.insertTail(other)
	src.insertTail(sb)
	src.usedBlocks, src.totalBlocks = 11, 20

	migrate(sb, &src, &dst, 7)

	require.Equal(t, []*superblock{other}, listOrder(&src))
	assert.Equal(t, int64(9), src.usedBlocks)
	assert.Equal(t, int64(10), src.totalBlocks)

	require.Equal(t, []*superblock{sb}, listOrder(&dst))
	assert.Equal(t, int64(2), dst.usedBlocks)
	assert.Equal(t, int64(10), dst.totalBlocks)
	assert.Equal(t, int32(7), sb.heapID)
}
