package allocator

import (
	"testing"
	"unsafe"

	"github.com/jasperdevir/allok-go/internal/bytesutil"
)

func resetGlobal(t *testing.T, poolCount, poolSize uint64, policy Policy) {
	t.Helper()

	if err := Init(poolCount, poolSize, Params{Policy: policy, IsDynamic: true}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Cleanup(Dump)
}

func TestAllocateAndFree(t *testing.T) {
	resetGlobal(t, 1, 4096, FirstFit)

	p, err := Allocate(128)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	want := uint64(128) + blockHeaderSize
	if TotalAllocSize() != want {
		t.Fatalf("TotalAllocSize() = %d, want %d", TotalAllocSize(), want)
	}

	if err := Free(&p); err != nil {
		t.Fatalf("Free failed: %v", err)
	}

	if p != nil {
		t.Fatal("expected Free to null the caller's handle")
	}

	if TotalAllocSize() != 0 {
		t.Fatalf("TotalAllocSize() after Free = %d, want 0", TotalAllocSize())
	}
}

func TestLinearFitFillsPoolInOrder(t *testing.T) {
	// Sized to hold four header+32-byte blocks in a single pool so address
	// ordering isn't disturbed by a dynamic second pool.
	resetGlobal(t, 1, 4*(blockHeaderSize+32), LinearFit)

	var ptrs []unsafe.Pointer

	for i := 0; i < 4; i++ {
		p, err := Allocate(32)
		if err != nil {
			t.Fatalf("Allocate #%d failed: %v", i, err)
		}

		ptrs = append(ptrs, p)
	}

	for i := 1; i < len(ptrs); i++ {
		if uintptr(ptrs[i]) <= uintptr(ptrs[i-1]) {
			t.Fatalf("expected monotonically increasing addresses under linear fit, got %v then %v", ptrs[i-1], ptrs[i])
		}
	}
}

func TestBestFitSelectsSmallestAdequateGap(t *testing.T) {
	resetGlobal(t, 1, 512, BestFit)

	a, err := Allocate(32)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	b, err := Allocate(32)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	aAddr := a

	if err := Free(&a); err != nil {
		t.Fatalf("Free failed: %v", err)
	}

	_ = b

	// The freed gap left by a is exactly header+32 bytes; a second 32-byte
	// request must reuse it rather than extend past the tail.
	before := TotalAllocSize()

	c, err := Allocate(32)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	want := before + 32 + blockHeaderSize
	if TotalAllocSize() != want {
		t.Fatalf("TotalAllocSize() = %d, want %d", TotalAllocSize(), want)
	}

	if c != aAddr {
		t.Fatalf("expected best fit to reuse the gap freed by a at %v, got %v", aAddr, c)
	}
}

func TestWorstFitSelectsLargestGap(t *testing.T) {
	resetGlobal(t, 1, 1024, WorstFit)

	first, err := Allocate(16)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if _, err := Allocate(16); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	p, err := Allocate(64)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	want := 3*blockHeaderSize + 16 + 16 + 64
	if TotalAllocSize() != want {
		t.Fatalf("TotalAllocSize() = %d, want %d", TotalAllocSize(), want)
	}

	// Freeing the first block leaves a header+16-byte gap at the front of
	// the pool; worst fit must pass it over for the larger trailing gap.
	if err := Free(&first); err != nil {
		t.Fatalf("Free failed: %v", err)
	}

	q, err := Allocate(16)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if uintptr(q) <= uintptr(p) {
		t.Fatalf("expected worst fit to place the block in the trailing gap past %v, got %v", p, q)
	}
}

func TestReallocateInPlaceShrink(t *testing.T) {
	resetGlobal(t, 1, 4096, FirstFit)

	p, err := Allocate(64)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	grown, err := Reallocate(p, 32)
	if err != nil {
		t.Fatalf("Reallocate (shrink) failed: %v", err)
	}

	if grown != p {
		t.Fatal("expected a shrink to stay in place")
	}

	want := uint64(32) + blockHeaderSize
	if TotalAllocSize() != want {
		t.Fatalf("TotalAllocSize() = %d, want %d", TotalAllocSize(), want)
	}
}

func TestReallocateInPlaceTailGrowth(t *testing.T) {
	resetGlobal(t, 1, 4096, FirstFit)

	p, err := Allocate(32)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	grown, err := Reallocate(p, 256)
	if err != nil {
		t.Fatalf("Reallocate (tail growth) failed: %v", err)
	}

	if grown != p {
		t.Fatal("expected the last block in a pool to grow in place")
	}

	want := uint64(256) + blockHeaderSize
	if TotalAllocSize() != want {
		t.Fatalf("TotalAllocSize() = %d, want %d", TotalAllocSize(), want)
	}
}

func TestReallocateRelocatesAndCopies(t *testing.T) {
	resetGlobal(t, 1, 256, FirstFit)

	a, err := Allocate(32)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	bytesutil.Set(a, 0x42, 32)

	// Allocate a second block so a is no longer the pool's tail, forcing
	// a subsequent grow of a to relocate rather than extend in place.
	if _, err := Allocate(32); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	grown, err := Reallocate(a, 64)
	if err != nil {
		t.Fatalf("Reallocate (relocate) failed: %v", err)
	}

	if grown == a {
		t.Fatal("expected relocation to a new address since a was not the pool tail")
	}

	data := unsafe.Slice((*byte)(grown), 32)
	for i, b := range data {
		if b != 0x42 {
			t.Fatalf("byte %d = %#x after relocate, want 0x42 (copied from the old block)", i, b)
		}
	}
}

func TestPoolReclaimedWhenLastBlockFreed(t *testing.T) {
	resetGlobal(t, 0, 256, FirstFit)

	p, err := Allocate(32)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if TotalPoolCount() != 1 {
		t.Fatalf("TotalPoolCount() = %d, want 1", TotalPoolCount())
	}

	if err := Free(&p); err != nil {
		t.Fatalf("Free failed: %v", err)
	}

	if TotalPoolCount() != 0 {
		t.Fatalf("TotalPoolCount() after Free = %d, want 0", TotalPoolCount())
	}
}

func TestAllocateGrowsPoolWhenDynamic(t *testing.T) {
	// Sized to hold exactly one header+32-byte block.
	resetGlobal(t, 1, blockHeaderSize+32, FirstFit)

	if _, err := Allocate(32); err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	// The first pool has no room left for another 32-byte block; a
	// dynamic map must grow a new pool rather than fail.
	if _, err := Allocate(32); err != nil {
		t.Fatalf("Allocate expected to grow a new pool, got error: %v", err)
	}

	if TotalPoolCount() != 2 {
		t.Fatalf("TotalPoolCount() = %d, want 2", TotalPoolCount())
	}
}

func TestAllocateFailsWhenNotDynamicAndFull(t *testing.T) {
	// Sized to hold exactly one header+32-byte block.
	if err := Init(1, blockHeaderSize+32, Params{Policy: FirstFit, IsDynamic: false}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	t.Cleanup(Dump)

	if _, err := Allocate(32); err != nil {
		t.Fatalf("first Allocate failed: %v", err)
	}

	if _, err := Allocate(32); ResultOf(err) != InsufficientPoolMem {
		t.Fatalf("expected InsufficientPoolMem, got %v", err)
	}
}

func TestFreeUninitialized(t *testing.T) {
	globalMu.Lock()
	globalMap = nil
	globalMu.Unlock()

	var p unsafe.Pointer

	if err := Free(&p); ResultOf(err) != Uninitialized {
		t.Fatalf("expected Uninitialized, got %v", err)
	}
}
