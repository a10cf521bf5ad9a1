package alloc

import (
	"bytes"
	"testing"

	"github.com/embtrace/heap-trace/record"
	"github.com/embtrace/heap-trace/tracer"
	"github.com/embtrace/heap-trace/transport/mock"
)

func newTrackedHeap(t *testing.T, heapSize uint32) (*Tracked, *tracer.Tracer, *mock.Transport) {
	t.Helper()
	sink := mock.New()
	h := NewHeap(heapSize)
	trc := tracer.New(tracer.Config{Transport: sink, HeapBounds: h.Bounds()})
	return NewTracked(h, trc), trc, sink
}

func flushed(t *testing.T, trc *tracer.Tracer, sink *mock.Transport) []record.Record {
	t.Helper()
	trc.Flush()
	recs, err := record.ReadAll(bytes.NewReader(sink.Bytes()))
	if err != nil {
		t.Fatalf("decode stream: %v", err)
	}
	return recs
}

func TestTracked_MallocRecordsOutcome(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 1024)

	ptr := tracked.Malloc(100)
	if ptr == 0 {
		t.Fatal("allocation failed")
	}

	recs := flushed(t, trc, sink)
	if recs[0].Op != record.OpInit {
		t.Fatal("stream must start with Init")
	}
	m := recs[1]
	if m.Op != record.OpMalloc || m.Arg1 != 100 || m.Arg2 != ptr {
		t.Errorf("malloc record = %+v, want size=100 ptr=0x%x", m, ptr)
	}
}

func TestTracked_FailedMallocRecorded(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 64)

	if ptr := tracked.Malloc(1 << 20); ptr != 0 {
		t.Fatalf("allocation should have failed, got 0x%x", ptr)
	}

	recs := flushed(t, trc, sink)
	m := recs[1]
	if m.Op != record.OpMalloc || m.Arg1 != 1<<20 || m.Arg2 != 0 {
		t.Errorf("failed malloc record = %+v, want size=%d ptr=0", m, 1<<20)
	}
}

func TestTracked_CallocCombinedSize(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 4096)

	ptr := tracked.Calloc(16, 24)
	if ptr == 0 {
		t.Fatal("calloc failed")
	}

	recs := flushed(t, trc, sink)
	m := recs[1]
	if m.Op != record.OpMalloc {
		t.Fatalf("calloc must be recorded as malloc, got %s", m.Op)
	}
	if m.Arg1 != 16*24 || m.Arg2 != ptr {
		t.Errorf("calloc record = %+v, want size=%d", m, 16*24)
	}
}

func TestTracked_CallocOverflow(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 4096)

	if ptr := tracked.Calloc(1<<20, 1<<20); ptr != 0 {
		t.Fatalf("overflowing calloc returned 0x%x, want 0", ptr)
	}

	recs := flushed(t, trc, sink)
	m := recs[1]
	if m.Op != record.OpMalloc || m.Arg2 != 0 {
		t.Errorf("overflow must be recorded as a failed malloc, got %+v", m)
	}
}

func TestTracked_FreeRecordedBeforeRelease(t *testing.T) {
	sink := mock.New()
	trc := tracer.New(tracer.Config{Transport: sink})
	probe := &orderProbe{trc: trc, t: t}
	tracked := NewTracked(probe, trc)

	trc.Init()
	tracked.Free(0x100)
	if !probe.freed {
		t.Fatal("raw free not called")
	}
}

// orderProbe asserts the free record exists before the raw allocator
// releases the address, so tracing cannot race with address reuse.
type orderProbe struct {
	trc   *tracer.Tracer
	t     *testing.T
	freed bool
}

func (p *orderProbe) Malloc(size uint32) uint32 { return 0x100 }

func (p *orderProbe) Free(ptr uint32) {
	p.freed = true
	if p.trc.BufferCount() < 2 { // Init + Free
		p.t.Error("free must be recorded before the raw allocator runs")
	}
}

func (p *orderProbe) Realloc(ptr, size uint32) uint32 { return 0x200 }

func TestTracked_NullFree(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 256)
	tracked.Free(0)

	recs := flushed(t, trc, sink)
	f := recs[1]
	if f.Op != record.OpFree || f.Arg1 != 0 {
		t.Errorf("null free record = %+v", f)
	}
}

func TestTracked_ReallocModes(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 2048)

	p := tracked.Realloc(0, 100)    // malloc-like
	p2 := tracked.Realloc(p, 800)   // resize
	_ = tracked.Realloc(p2, 0)      // free-like

	recs := flushed(t, trc, sink)[1:]
	if recs[0].Arg1 != 0 || recs[0].Arg2 != 100 || recs[0].Arg3 != p {
		t.Errorf("malloc-like = %+v", recs[0])
	}
	if recs[1].Arg1 != p || recs[1].Arg2 != 800 || recs[1].Arg3 != p2 {
		t.Errorf("resize = %+v", recs[1])
	}
	if recs[2].Arg1 != p2 || recs[2].Arg2 != 0 || recs[2].Arg3 != 0 {
		t.Errorf("free-like = %+v", recs[2])
	}
}

func TestTracked_InitRecordCarriesHeapBounds(t *testing.T) {
	tracked, trc, sink := newTrackedHeap(t, 8192)
	tracked.Malloc(1)

	init := flushed(t, trc, sink)[0]
	if init.Arg1 != DefaultBase || init.Arg2 != 8192 {
		t.Errorf("init bounds = base 0x%x size %d", init.Arg1, init.Arg2)
	}
	if init.Arg3&record.FlagHeapBoundsValid == 0 {
		t.Error("bounds flag not set")
	}
}
