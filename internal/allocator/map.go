package allocator

import (
	"sync"

	"github.com/jasperdevir/allok-go/internal/provider"
)

// Metadata counts lifetime pool and block creation/destruction events for a
// Map.
type Metadata struct {
	BlocksCreated int
	BlocksFreed   int
	PoolsCreated  int
	PoolsFreed    int
}

// Map owns a chain of Pools and the Params that govern how new blocks are
// placed within them and whether new pools are grown on demand.
type Map struct {
	mu sync.Mutex

	provider provider.Provider

	Params   Params
	metadata Metadata

	poolCount uint64
	poolHead  *Pool
	poolTail  *Pool
}

// NewMap allocates initPoolCount pools of initPoolSize bytes each and
// returns a Map configured with params. A Map with zero initial pools is
// valid; its first allocation grows one on demand if params.IsDynamic.
func NewMap(initPoolCount, initPoolSize uint64, params Params) (*Map, error) {
	m := &Map{
		provider: provider.Default,
		Params:   params,
	}

	for i := uint64(0); i < initPoolCount; i++ {
		if _, err := allocPool(m, initPoolSize); err != nil {
			freePool(m.poolHead, true)

			return nil, err
		}
	}

	return m, nil
}

// Metadata returns a snapshot of the map's lifetime counters.
func (m *Map) Metadata() Metadata {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.metadata
}

// PoolCount returns the number of pools currently owned by the map.
func (m *Map) PoolCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.poolCount
}

// TotalAllocSize sums the live byte count across every pool in the map.
func (m *Map) TotalAllocSize() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total uint64
	for pool := m.poolHead; pool != nil; pool = pool.next {
		total += pool.size
	}

	return total
}

// TotalBlockCount counts every live block across every pool in the map.
func (m *Map) TotalBlockCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total uint64
	for pool := m.poolHead; pool != nil; pool = pool.next {
		for block := pool.head; block != nil; block = block.next {
			total++
		}
	}

	return total
}

// Dump frees every pool owned by the map. The map must not be used again
// after Dump returns.
func (m *Map) Dump() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.poolHead == nil {
		return nil
	}

	err := freePool(m.poolHead, true)
	m.poolHead = nil
	m.poolTail = nil
	m.poolCount = 0

	return err
}
