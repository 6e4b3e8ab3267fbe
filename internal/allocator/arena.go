package allocator

import (
	"sync"
	"unsafe"

	"github.com/jasperdevir/allok-go/internal/provider"
)

// arenaHeaderSize is the number of bytes reserved out of an arena's OS
// region for the Arena's own header, ahead of its claimable capacity. It
// mirrors sizeof(AkMemoryArena) on a 64-bit target: alloc_size, size,
// p_start, p_current, p_next, p_prev — six pointer-width fields.
const arenaHeaderSize uint64 = 48

// Arena is a bump allocator backed by a single OS-mapped region. Claim hands
// out monotonically increasing byte ranges from that region; Free only
// tracks how much of the region is still live, it does not make freed bytes
// reclaimable except at the tail or when the arena empties out entirely.
// osAddr is the raw address returned by the provider; addr, arenaHeaderSize
// bytes past it, is where the claimable region begins.
//
// Arenas can be chained into a sibling list via Link; Destroy optionally
// walks that chain.
type Arena struct {
	mu sync.Mutex

	provider provider.Provider

	osAddr    uintptr
	addr      uintptr
	allocSize uint64
	size      uint64
	cur       uint64

	next *Arena
	prev *Arena
}

// AllocArena acquires size+arenaHeaderSize bytes of OS memory — size bytes
// of claimable capacity plus the arena's own header — and returns an Arena
// ready to be claimed from.
func AllocArena(size uint64) (*Arena, error) {
	return allocArena(provider.Default, size)
}

func allocArena(p provider.Provider, size uint64) (*Arena, error) {
	osAddr, err := p.Acquire(size + arenaHeaderSize)
	if err != nil {
		return nil, wrapErr("AllocArena", OSMemoryAllocFailed, err)
	}

	return &Arena{
		provider:  p,
		osAddr:    osAddr,
		addr:      osAddr + uintptr(arenaHeaderSize),
		allocSize: size,
	}, nil
}

// Claim reserves size bytes from the arena's remaining capacity and returns
// a pointer to the start of the reservation.
func (a *Arena) Claim(size uint64) (unsafe.Pointer, error) {
	if a == nil {
		return nil, newErr("Arena.Claim", NullParam)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.allocSize < size || a.size+size > a.allocSize || a.cur+size > a.allocSize {
		return nil, newErr("Arena.Claim", InsufficientArenaMem)
	}

	p := unsafe.Pointer(a.addr + uintptr(a.cur))
	a.size += size
	a.cur += size

	return p, nil
}

// Reset returns the arena to its initial, empty state, allowing every
// previously claimed byte to be overwritten by future claims.
func (a *Arena) Reset() {
	if a == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.size = 0
	a.cur = 0
}

// Free releases size bytes claimed at *target. If *target was the most
// recent claim it is reclaimed immediately, otherwise it only reduces the
// arena's live byte count. When the arena's live size drops to zero and
// autoDestroy is set, the arena destroys itself and unlinks from its
// siblings; otherwise it resets in place. On success *target is nulled.
func (a *Arena) Free(target *unsafe.Pointer, size uint64, autoDestroy bool) error {
	if a == nil || target == nil {
		return newErr("Arena.Free", NullParam)
	}

	a.mu.Lock()

	if a.allocSize < size {
		a.mu.Unlock()

		return newErr("Arena.Free", InvalidSize)
	}

	if !a.contains(*target) {
		a.mu.Unlock()

		return newErr("Arena.Free", InvalidAddr)
	}

	freedEnd := uintptr(*target) + uintptr(size)
	if a.addr+uintptr(a.cur) == freedEnd {
		a.cur -= size
	}

	a.size -= size

	empty := a.size == 0
	a.mu.Unlock()

	*target = nil

	if empty {
		if autoDestroy {
			a.unlink()

			return a.destroySelf()
		}

		a.Reset()
	}

	return nil
}

// contains reports whether ptr falls within the claimed portion of the
// arena's region, from its start up to the cursor. Callers must hold a.mu.
func (a *Arena) contains(ptr unsafe.Pointer) bool {
	if ptr == nil {
		return false
	}

	addr := uintptr(ptr)

	return addr >= a.addr && addr < a.addr+uintptr(a.cur)
}

// Link appends next as this arena's successor, connecting the two into a
// sibling chain.
func (a *Arena) Link(next *Arena) {
	a.next = next
	next.prev = a
}

// Destroy releases the arena's OS memory. If recursive is true, every
// arena reachable via Next is destroyed as well.
func (a *Arena) Destroy(recursive bool) error {
	if a == nil {
		return nil
	}

	next := a.next
	a.unlink()

	if err := a.destroySelf(); err != nil {
		return err
	}

	if recursive && next != nil {
		return next.Destroy(recursive)
	}

	return nil
}

func (a *Arena) unlink() {
	if a.prev != nil {
		a.prev.next = a.next
	}

	if a.next != nil {
		a.next.prev = a.prev
	}

	a.prev = nil
	a.next = nil
}

func (a *Arena) destroySelf() error {
	if err := a.provider.Release(a.osAddr, a.allocSize+arenaHeaderSize); err != nil {
		return wrapErr("Arena.Destroy", OSMemoryAllocFailed, err)
	}

	return nil
}

// Next returns the arena's successor in its sibling chain, or nil.
func (a *Arena) Next() *Arena { return a.next }

// Size reports the number of bytes currently claimed from the arena.
func (a *Arena) Size() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.size
}

// Cap reports the arena's total capacity in bytes.
func (a *Arena) Cap() uint64 { return a.allocSize }
