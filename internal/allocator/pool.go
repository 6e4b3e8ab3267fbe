package allocator

import (
	"github.com/jasperdevir/allok-go/internal/provider"
)

// poolHeaderSize is the number of bytes reserved out of a pool's OS region
// for the Pool's own header, ahead of its claimable capacity. It mirrors
// sizeof(AkMemoryPool) on a 64-bit target: alloc_size, size, p_start,
// p_head, p_tail, p_next, p_prev, p_parent_map — eight pointer-width fields.
const poolHeaderSize uint64 = 64

// Pool is a single OS-backed region of memory subdivided into Blocks. Pools
// are chained together under a Map in allocation order. osAddr is the raw
// address returned by the provider; addr, poolHeaderSize bytes past it, is
// where the claimable region (and Block headers within it) begins.
type Pool struct {
	provider provider.Provider

	osAddr    uintptr
	addr      uintptr
	allocSize uint64
	size      uint64

	head *Block
	tail *Block

	next *Pool
	prev *Pool

	parentMap *Map
}

// allocPool acquires size+poolHeaderSize bytes of OS memory for a new pool —
// size bytes of claimable capacity plus the pool's own header — and, if m is
// non-nil, appends the pool to m's pool list.
func allocPool(m *Map, size uint64) (*Pool, error) {
	p := provider.Default
	if m != nil && m.provider != nil {
		p = m.provider
	}

	osAddr, err := p.Acquire(size + poolHeaderSize)
	if err != nil {
		return nil, wrapErr("Pool.Alloc", OSMemoryAllocFailed, err)
	}

	pool := &Pool{
		provider:  p,
		osAddr:    osAddr,
		addr:      osAddr + uintptr(poolHeaderSize),
		allocSize: size,
		parentMap: m,
	}

	if m != nil {
		if m.poolTail != nil {
			m.poolTail.next = pool
			pool.prev = m.poolTail
		} else {
			m.poolHead = pool
		}

		m.poolTail = pool
		m.poolCount++
		m.metadata.PoolsCreated++
	}

	return pool, nil
}

// freePool releases pool's OS memory and unlinks it from its parent map. If
// recursive is true, every pool reachable via Next is freed as well.
func freePool(pool *Pool, recursive bool) error {
	if pool == nil {
		return newErr("Pool.Free", NullParam)
	}

	if recursive && pool.next != nil {
		if err := freePool(pool.next, recursive); err != nil {
			return err
		}
	}

	prev := pool.prev
	next := pool.next
	m := pool.parentMap

	if prev != nil {
		prev.next = next
	} else if m != nil {
		m.poolHead = next
	}

	if next != nil {
		next.prev = prev
	} else if m != nil {
		m.poolTail = prev
	}

	if m != nil {
		m.poolCount--
		m.metadata.PoolsFreed++
	}

	if err := pool.provider.Release(pool.osAddr, pool.allocSize+poolHeaderSize); err != nil {
		return wrapErr("Pool.Free", OSMemoryAllocFailed, err)
	}

	return nil
}

// Available returns the number of bytes still unclaimed by any block in
// the pool.
func (p *Pool) Available() uint64 { return p.allocSize - p.size }

// Size returns the number of bytes currently claimed by live blocks.
func (p *Pool) Size() uint64 { return p.size }

// Cap returns the pool's total capacity in bytes.
func (p *Pool) Cap() uint64 { return p.allocSize }

// Next returns the pool's successor in its parent map's pool list, or nil.
func (p *Pool) Next() *Pool { return p.next }
