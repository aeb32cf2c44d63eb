package memheap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestMmapPageSourceFetchRelease(t *testing.T) {
	var ps mmapPageSource

	region, err := ps.Fetch(DefaultSBSize)
	require.NoError(t, err)
	require.Len(t, region, DefaultSBSize)

	for _, b := range region {
		require.Zero(t, b)
	}
	region[0] = 0xAA
	region[len(region)-1] = 0xBB

	require.NoError(t, ps.Release(unsafe.Pointer(&region[0]), DefaultSBSize))
}
