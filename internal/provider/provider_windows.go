//go:build windows

package provider

import (
	"golang.org/x/sys/windows"
)

// osProvider reserves and commits read-write memory via VirtualAlloc and
// releases it via VirtualFree, matching the original os_mem_alloc/os_mem_free
// Windows branch exactly.
type osProvider struct{}

func (osProvider) Acquire(size uint64) (uintptr, error) {
	if size == 0 {
		return 0, &ErrAcquireFailed{Size: size, Err: windows.ERROR_INVALID_PARAMETER}
	}

	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return 0, &ErrAcquireFailed{Size: size, Err: err}
	}

	return addr, nil
}

func (osProvider) Release(addr uintptr, _ uint64) error {
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
