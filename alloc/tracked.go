package alloc

import (
	"math"

	heaptrace "github.com/embtrace/heap-trace"
	"github.com/embtrace/heap-trace/tracer"
)

// Tracked wraps a raw allocator so that every operation is observed by
// the tracer. The wrapper performs the real allocation and reports the
// outcome; the tracer is a pure observer and never allocates through
// the wrapped heap, so there is no recursion.
//
// The wrapped allocator must be the raw, untracked one. Stacking
// Tracked on Tracked records every operation twice and, with a tracer
// tracing its own bookkeeping, recurses.
type Tracked struct {
	raw heaptrace.Allocator
	trc *tracer.Tracer
}

// NewTracked wraps raw so that trc observes it.
func NewTracked(raw heaptrace.Allocator, trc *tracer.Tracer) *Tracked {
	return &Tracked{raw: raw, trc: trc}
}

// Malloc allocates through the raw allocator and records the outcome,
// failures included: a 0 result is traced like any other.
func (a *Tracked) Malloc(size uint32) uint32 {
	ptr := a.raw.Malloc(size)
	a.trc.RecordMalloc(size, ptr)
	return ptr
}

// Calloc allocates n zeroed elements of elemSize bytes. It is recorded
// as a single malloc with the combined byte size, not as a distinct
// operation kind. A product overflowing 32 bits fails without touching
// the raw allocator and is recorded with the size saturated.
func (a *Tracked) Calloc(n, elemSize uint32) uint32 {
	total := uint64(n) * uint64(elemSize)
	if total > math.MaxUint32 {
		a.trc.RecordMalloc(math.MaxUint32, 0)
		return 0
	}
	ptr := a.raw.Malloc(uint32(total))
	a.trc.RecordMalloc(uint32(total), ptr)
	return ptr
}

// Free records the release, then frees. Recording first keeps the trace
// ordered ahead of any reuse of the address; a null free is a valid,
// recorded event that the raw allocator ignores.
func (a *Tracked) Free(ptr uint32) {
	a.trc.RecordFree(ptr)
	a.raw.Free(ptr)
}

// Realloc resizes through the raw allocator and records all three
// modes uniformly: ptr 0 (malloc-like), size 0 (free-like), and a true
// resize.
func (a *Tracked) Realloc(ptr, size uint32) uint32 {
	newPtr := a.raw.Realloc(ptr, size)
	a.trc.RecordRealloc(ptr, size, newPtr)
	return newPtr
}
