package memheap

import (
	"runtime"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ThreadIdentitySource returns an opaque, stable-per-caller integer used
// solely for CPU-heap selection. It is read once per allocation call; the
// allocator never assumes the identity is stable across calls, only that
// a given call's identity hashes deterministically.
type ThreadIdentitySource interface {
	ThreadID() uint64
}

// goroutineIdentitySource is the default ThreadIdentitySource. Go exposes
// no stable OS-thread handle to user code (goroutines are scheduled M:N
// across OS threads), so this uses the per-goroutine id obtained by parsing
// runtime.Stack's header line — the same technique a number of low-level Go
// libraries use as a practical stand-in for "current execution context
// identity" when no better handle is exported. It is slower than reading a
// cached field would be, which is why ThreadIdentitySource is pluggable:
// callers with a real per-worker identity (a worker-pool slot index, for
// example) can supply a trivial, allocation-free implementation instead.
type goroutineIdentitySource struct{}

func (goroutineIdentitySource) ThreadID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Header looks like "goroutine 18 [running]:\n...".
	line := buf[:n]
	const prefix = "goroutine "
	if len(line) <= len(prefix) {
		return 0
	}
	line = line[len(prefix):]
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	id, err := strconv.ParseUint(string(line[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// hashThreadID hashes an opaque thread identity into a well-distributed
// 64-bit value before reducing it mod the CPU-heap count. xxhash is a
// non-cryptographic, allocation-free hash well suited to this kind of
// hot-path hashing.
func hashThreadID(id uint64) uint64 {
	var b [8]byte
	b[0] = byte(id)
	b[1] = byte(id >> 8)
	b[2] = byte(id >> 16)
	b[3] = byte(id >> 24)
	b[4] = byte(id >> 32)
	b[5] = byte(id >> 40)
	b[6] = byte(id >> 48)
	b[7] = byte(id >> 56)
	return xxhash.Sum64(b[:])
}
