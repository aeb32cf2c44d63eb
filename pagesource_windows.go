//go:build windows

package memheap

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// mmap on Windows is a two-step process: CreateFileMapping gets a handle,
// MapViewOfFile gets an actual pointer into memory. We keep a map from base
// address back to the handle so Release can close it later, generalized
// from cznic/memory's mmap_windows.go onto golang.org/x/sys/windows.
var (
	handleMapMu sync.Mutex
	handleMap   = map[uintptr]windows.Handle{}
)

func (mmapPageSource) Fetch(n int) ([]byte, error) {
	maxSizeHigh := uint32(uint64(n) >> 32)
	maxSizeLow := uint32(uint64(n) & 0xFFFFFFFF)

	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, maxSizeHigh, maxSizeLow, nil)
	if err != nil {
		return nil, err
	}

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_WRITE, 0, 0, uintptr(n))
	if err != nil {
		windows.CloseHandle(h)
		return nil, err
	}
	if addr&uintptr(osPageSize-1) != 0 {
		panic("memheap: mmap returned a non-page-aligned address")
	}

	handleMapMu.Lock()
	handleMap[addr] = h
	handleMapMu.Unlock()

	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n), nil
}

func (mmapPageSource) Release(base unsafe.Pointer, n int) error {
	addr := uintptr(base)
	if err := windows.UnmapViewOfFile(addr); err != nil {
		return err
	}

	handleMapMu.Lock()
	h, ok := handleMap[addr]
	delete(handleMap, addr)
	handleMapMu.Unlock()
	if !ok {
		return errUnknownBaseAddress
	}
	return windows.CloseHandle(h)
}

var errUnknownBaseAddress = &pageSourceError{"memheap: unknown base address"}

type pageSourceError struct{ s string }

func (e *pageSourceError) Error() string { return e.s }
