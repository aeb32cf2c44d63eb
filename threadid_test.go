package memheap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashThreadIDDeterministic(t *testing.T) {
	assert.Equal(t, hashThreadID(7), hashThreadID(7))
	assert.NotEqual(t, hashThreadID(7), hashThreadID(8))
}

func TestGoroutineIdentitySourceDistinctAcrossGoroutines(t *testing.T) {
	var src goroutineIdentitySource
	const n = 8

	ids := make([]uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = src.ThreadID()
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, id := range ids {
		seen[id] = true
	}
	assert.Greater(t, len(seen), 1, "goroutine ids across 8 concurrent goroutines should not all collide")
}
