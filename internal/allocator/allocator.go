// Package allocator provides a user-space general-purpose memory allocator:
// a Map of Pools subdivided into Blocks, each pool backed by its own
// OS-mapped region acquired through the provider package. Pools grow on
// demand when the map is configured as dynamic; placement within a pool is
// governed by one of four fit-search policies.
package allocator

import (
	"sync"
	"unsafe"

	"github.com/jasperdevir/allok-go/internal/bytesutil"
)

var (
	globalMu  sync.Mutex
	globalMap *Map
)

// Init (re)initializes the global map used by Allocate, Reallocate,
// ZeroAllocate, and Free. If the global map already holds live pools they
// are dumped first. Calling Init is optional — the first call to Allocate
// lazily initializes the global map with DefaultParams and
// DefaultPoolCount/DefaultPoolSize.
func Init(initPoolCount, initPoolSize uint64, params Params) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	return initLocked(initPoolCount, initPoolSize, params)
}

func initLocked(initPoolCount, initPoolSize uint64, params Params) error {
	if globalMap != nil && globalMap.poolHead != nil {
		_ = globalMap.Dump()
	}

	m, err := NewMap(initPoolCount, initPoolSize, params)
	if err != nil {
		return err
	}

	globalMap = m

	return nil
}

// Allocate reserves size bytes from the global map, growing a new pool from
// the OS if no existing pool has a large enough gap and the map is dynamic.
func Allocate(size uint64) (unsafe.Pointer, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil {
		if err := initLocked(DefaultPoolCount, DefaultPoolSize, DefaultParams()); err != nil {
			return nil, err
		}
	}

	return allocateLocked(globalMap, size)
}

func allocateLocked(m *Map, size uint64) (unsafe.Pointer, error) {
	var (
		pool   *Pool
		offset uint64
	)

	need := size + blockHeaderSize

	for candidate := m.poolHead; candidate != nil; candidate = candidate.next {
		if candidate.Available() < need {
			continue
		}

		if off, ok := findFit(candidate, size, m.Params.Policy); ok {
			pool = candidate
			offset = off

			break
		}
	}

	if pool != nil {
		block, err := createBlock(pool, size, offset)
		if err != nil {
			return nil, err
		}

		return block.Ptr(), nil
	}

	if !m.Params.IsDynamic {
		return nil, newErr("Allocate", InsufficientPoolMem)
	}

	poolSize := need
	if poolSize < DefaultPoolSize {
		poolSize = DefaultPoolSize
	}

	newPool, err := allocPool(m, poolSize)
	if err != nil {
		return nil, err
	}

	block, err := createBlock(newPool, size, 0)
	if err != nil {
		return nil, err
	}

	return block.Ptr(), nil
}

// Reallocate resizes the allocation at src to size bytes, preserving its
// contents. A shrink is performed in place. A grow is performed in place
// when src is the last block in its pool and the pool has room; otherwise
// the allocation is relocated: a new block is allocated, the lesser of the
// old and new sizes is copied over, and src is freed.
func Reallocate(src unsafe.Pointer, size uint64) (unsafe.Pointer, error) {
	globalMu.Lock()

	if globalMap == nil || src == nil {
		globalMu.Unlock()

		return nil, newErr("Reallocate", NullParam)
	}

	block, err := findBlock(globalMap, src)
	if err != nil {
		globalMu.Unlock()

		return nil, err
	}

	pool := block.parent
	oldSize := block.size

	if size <= oldSize {
		pool.size -= oldSize - size
		block.size = size
		globalMu.Unlock()

		return block.Ptr(), nil
	}

	grow := size - oldSize
	if pool.tail == block && pool.size+grow <= pool.allocSize {
		pool.size += grow
		block.size = size
		globalMu.Unlock()

		return block.Ptr(), nil
	}

	globalMu.Unlock()

	dst, err := Allocate(size)
	if err != nil {
		return nil, err
	}

	copySize := oldSize
	if size < copySize {
		copySize = size
	}

	bytesutil.Copy(dst, src, copySize)

	target := src
	if err := Free(&target); err != nil {
		return nil, err
	}

	return dst, nil
}

// ZeroAllocate reserves size bytes from the global map and zeroes them
// before returning.
func ZeroAllocate(size uint64) (unsafe.Pointer, error) {
	p, err := Allocate(size)
	if err != nil {
		return nil, err
	}

	bytesutil.Set(p, 0, size)

	return p, nil
}

// Free releases the allocation at *target back to its pool and nulls
// *target. Freeing the last live block in a pool returns the pool's memory
// to the OS.
func Free(target *unsafe.Pointer) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil || target == nil {
		return newErr("Free", Uninitialized)
	}

	block, err := findBlock(globalMap, *target)
	if err != nil {
		return err
	}

	freeBlock(block)
	*target = nil

	return nil
}

// TotalAllocSize returns the number of bytes currently live across every
// pool in the global map.
func TotalAllocSize() uint64 {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil {
		return 0
	}

	return globalMap.TotalAllocSize()
}

// TotalPoolCount returns the number of pools currently owned by the global
// map.
func TotalPoolCount() uint64 {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil {
		return 0
	}

	return globalMap.PoolCount()
}

// TotalBlockCount returns the number of live blocks across every pool in
// the global map.
func TotalBlockCount() uint64 {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil {
		return 0
	}

	return globalMap.TotalBlockCount()
}

// AllocMetadata returns a snapshot of the global map's lifetime counters.
func AllocMetadata() Metadata {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil {
		return Metadata{}
	}

	return globalMap.Metadata()
}

// Dump destroys the global map, invalidating every allocation made through
// it. A subsequent call to Allocate reinitializes the global map from
// scratch.
func Dump() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMap == nil {
		return
	}

	_ = globalMap.Dump()
	globalMap = nil
}
