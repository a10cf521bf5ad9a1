// Package alloc provides the allocation wrapper layer: tracked
// equivalents of malloc/free/realloc/calloc over any raw allocator, plus
// a fixed-arena first-fit heap for hosts that have no native 32-bit heap
// to trace.
package alloc

import (
	"math"

	heaptrace "github.com/embtrace/heap-trace"
)

// DefaultBase is the address of the first arena byte. Nonzero so that
// address 0 stays the null/failure sentinel.
const DefaultBase uint32 = 0x2000_0000

// alignment for block sizes and offsets.
const align uint32 = 8

// Heap is a fixed-size first-fit allocator handing out 32-bit addresses
// from a contiguous arena. It manages address space only: there is no
// backing storage, because the tracer cares about sizes, addresses and
// lifetimes, not contents. Capacity is fixed at construction and never
// grows.
//
// Heap is not safe for concurrent use; callers recording from multiple
// goroutines already need a lock for the tracer and should hold it
// around the allocator too.
type Heap struct {
	base uint32
	size uint32
	free []span            // sorted by offset, coalesced
	live map[uint32]uint32 // offset -> block size
	used uint32
}

type span struct {
	off  uint32
	size uint32
}

// NewHeap creates an arena of the given byte size at DefaultBase.
func NewHeap(size uint32) *Heap {
	return NewHeapAt(DefaultBase, size)
}

// NewHeapAt creates an arena of the given byte size at base. A zero
// base is rejected by moving to DefaultBase; the null sentinel must
// stay unambiguous.
func NewHeapAt(base, size uint32) *Heap {
	if base == 0 {
		base = DefaultBase
	}
	size &^= align - 1
	return &Heap{
		base: base,
		size: size,
		free: []span{{off: 0, size: size}},
		live: make(map[uint32]uint32),
	}
}

// Bounds reports the arena region for the tracer's Init record.
func (h *Heap) Bounds() heaptrace.HeapBounds {
	return heaptrace.HeapBounds{Base: h.base, Size: h.size, Valid: true}
}

// Malloc allocates size bytes, first fit. Returns 0 when no free span
// is large enough or the size cannot be aligned without wrapping.
func (h *Heap) Malloc(size uint32) uint32 {
	if size == 0 {
		size = align
	}
	size, ok := alignUp(size)
	if !ok {
		return 0
	}

	for i, s := range h.free {
		if s.size < size {
			continue
		}
		off := s.off
		if s.size == size {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = span{off: s.off + size, size: s.size - size}
		}
		h.live[off] = size
		h.used += size
		return h.base + off
	}
	return 0
}

// Free releases ptr. Free(0) and freeing an address the heap does not
// own are no-ops, mirroring the tolerant embedded original.
func (h *Heap) Free(ptr uint32) {
	if ptr == 0 || ptr < h.base {
		return
	}
	off := ptr - h.base
	size, ok := h.live[off]
	if !ok {
		return
	}
	delete(h.live, off)
	h.used -= size
	h.insertFree(span{off: off, size: size})
}

// Realloc resizes ptr. ptr 0 behaves like Malloc, size 0 like Free.
// On failure the original block is left intact and 0 is returned.
func (h *Heap) Realloc(ptr, size uint32) uint32 {
	if ptr == 0 {
		return h.Malloc(size)
	}
	if size == 0 {
		h.Free(ptr)
		return 0
	}
	off := ptr - h.base
	oldSize, live := h.live[off]
	if !live {
		return 0
	}
	size, ok := alignUp(size)
	if !ok {
		return 0
	}
	if size <= oldSize {
		return ptr // shrink in place; tail kept, embedded-simple
	}
	newPtr := h.Malloc(size)
	if newPtr == 0 {
		return 0
	}
	h.Free(ptr)
	return newPtr
}

// Used returns the number of allocated bytes.
func (h *Heap) Used() uint32 {
	return h.used
}

// LiveBlocks returns the number of allocated blocks.
func (h *Heap) LiveBlocks() int {
	return len(h.live)
}

// alignUp rounds size up to the allocation alignment, reporting false
// when the round-up would wrap around 32 bits.
func alignUp(size uint32) (uint32, bool) {
	if size > math.MaxUint32-(align-1) {
		return 0, false
	}
	return (size + align - 1) &^ (align - 1), true
}

// insertFree puts s back into the sorted free list, coalescing with
// adjacent spans.
func (h *Heap) insertFree(s span) {
	i := 0
	for i < len(h.free) && h.free[i].off < s.off {
		i++
	}
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	// coalesce with successor, then predecessor
	if i+1 < len(h.free) && h.free[i].off+h.free[i].size == h.free[i+1].off {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].off+h.free[i-1].size == h.free[i].off {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}
