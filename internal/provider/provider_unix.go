//go:build !windows

package provider

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// osProvider acquires anonymous private read-write mappings via mmap(2) and
// releases them via munmap(2), matching the original os_mem_alloc/os_mem_free
// POSIX branch exactly.
type osProvider struct{}

func (osProvider) Acquire(size uint64) (uintptr, error) {
	if size == 0 {
		return 0, &ErrAcquireFailed{Size: size, Err: unix.EINVAL}
	}

	region, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, &ErrAcquireFailed{Size: size, Err: err}
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(region))), nil
}

func (osProvider) Release(addr uintptr, size uint64) error {
	region := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)

	return unix.Munmap(region)
}
