// Package tracer implements the heap instrumentation core: lifecycle,
// operation recording, buffering with flush-on-full, and the text
// fallback used when the transport fails.
//
// A Tracer is an explicitly constructed instance; hosts that want
// process-wide tracing own one and pass it to their allocation wrappers.
// Nothing here installs global state, so tests run independent tracers
// side by side.
package tracer

import (
	"fmt"
	"os"
	"sync/atomic"

	heaptrace "github.com/embtrace/heap-trace"
	"github.com/embtrace/heap-trace/record"
)

// Config carries the init-time configuration surface.
type Config struct {
	// BufferBytes is the byte budget for the record buffer. Defaults to
	// record.DefaultBufferBytes (4096). Capacity in records is
	// BufferBytes/record.Size, fixed for the tracer's lifetime.
	BufferBytes int

	// Transport receives the encoded records. Optional; without one,
	// every flush takes the text fallback path.
	Transport heaptrace.Transport

	// Hooks are the platform callbacks. All slots optional.
	Hooks heaptrace.Hooks

	// HeapBounds is an explicit hint for the Init record. A degenerate
	// hint (zero size) is treated as absent.
	HeapBounds heaptrace.HeapBounds

	// DebugLog enables the per-operation one-line log entries and the
	// initialization summary through the log hook.
	DebugLog bool
}

// Tracer records heap operations into a fixed-capacity buffer and drains
// it to the registered transport.
//
// The tracer never locks on its own; it calls the registered Lock/Unlock
// hooks around every buffer mutation. Recording from multiple goroutines
// without lock hooks is undefined, a documented caller responsibility.
// The initialized latch is atomic, so lazy initialization races produce
// exactly one Init record either way.
type Tracer struct {
	buf       *record.Buffer
	scratch   []byte
	transport heaptrace.Transport
	hooks     heaptrace.Hooks
	bounds    heaptrace.HeapBounds
	debug     bool

	initialized atomic.Bool
}

// New creates a tracer. The record buffer and encode scratch are the
// only allocations the tracer ever makes; recording is allocation-free.
func New(cfg Config) *Tracer {
	if cfg.BufferBytes <= 0 {
		cfg.BufferBytes = record.DefaultBufferBytes
	}
	buf := record.NewBuffer(cfg.BufferBytes)
	t := &Tracer{
		buf:       buf,
		scratch:   make([]byte, 0, buf.Capacity()*record.Size),
		transport: cfg.Transport,
		hooks:     cfg.Hooks,
		debug:     cfg.DebugLog,
	}
	if cfg.HeapBounds.Size > 0 {
		t.bounds = cfg.HeapBounds
		t.bounds.Valid = true
	}
	return t
}

// RegisterHooks atomically replaces the whole hook set. A nil argument
// clears every slot back to the defaults: timestamp 0, log to stderr,
// lock/unlock no-op. Never fails.
func (t *Tracer) RegisterHooks(hooks *heaptrace.Hooks) {
	if hooks != nil {
		t.hooks = *hooks
	} else {
		t.hooks = heaptrace.Hooks{}
	}
}

// RegisterTransport replaces the transport, same all-or-nothing
// semantics as RegisterHooks. A nil argument leaves the tracer without a
// transport, so subsequent flushes emit the text fallback.
func (t *Tracer) RegisterTransport(transport heaptrace.Transport) {
	t.transport = transport
}

// Init initializes the tracer once; repeated calls are silent no-ops.
// The transport is initialized here, but its failure is only logged:
// it surfaces later as the first flush falling back to text. Init never
// reports an error to the instrumented program.
func (t *Tracer) Init() {
	if !t.initialized.CompareAndSwap(false, true) {
		return
	}

	if t.transport != nil {
		if err := t.transport.Init(); err != nil {
			t.logf("[HEAP_TRACKER] Transport init failed: %v\n", err)
		}
	}

	now := t.timestamp()
	t.debugf("[HEAP_TRACKER] Current timestamp_us(): %d\n", now)

	t.appendRecord(record.Init(now, t.bounds))

	t.debugf("[HEAP_TRACKER] Initialized - buffer size: %d records\n", t.buf.Capacity())
	t.debugf("[HEAP_TRACKER] Record size: %d bytes\n", record.Size)
	if t.bounds.Valid {
		t.debugf("[HEAP_TRACKER] Heap bounds: base=0x%x size=%d\n", t.bounds.Base, t.bounds.Size)
	}
}

// RecordMalloc observes a completed allocation. ptr is 0 when the
// underlying allocator failed; failed allocations are traced too.
func (t *Tracer) RecordMalloc(size, ptr uint32) {
	t.ensureInit()
	t.appendRecord(record.Malloc(t.timestamp(), size, ptr))
	if t.debug {
		t.logf("[MALLOC] Requested %d bytes, allocated at 0x%x\n", size, ptr)
	}
}

// RecordFree observes a deallocation. ptr 0 records a null free.
func (t *Tracer) RecordFree(ptr uint32) {
	t.ensureInit()
	t.appendRecord(record.Free(t.timestamp(), ptr))
	if t.debug {
		if ptr != 0 {
			t.logf("[FREE] Releasing memory at 0x%x\n", ptr)
		} else {
			t.logf("[FREE] Attempted to free NULL pointer\n")
		}
	}
}

// RecordRealloc observes a reallocation in any of its three modes:
// oldPtr 0 (malloc-like), size 0 (free-like), or a true resize.
func (t *Tracer) RecordRealloc(oldPtr, size, newPtr uint32) {
	t.ensureInit()
	t.appendRecord(record.Realloc(t.timestamp(), oldPtr, size, newPtr))
	if t.debug {
		switch {
		case oldPtr == 0:
			t.logf("[REALLOC] NULL -> %d bytes (like malloc), allocated at 0x%x\n", size, newPtr)
		case size == 0:
			t.logf("[REALLOC] 0x%x -> 0 bytes (like free)\n", oldPtr)
		default:
			t.logf("[REALLOC] 0x%x -> %d bytes, new address: 0x%x\n", oldPtr, size, newPtr)
		}
	}
}

// Flush drains buffered records to the transport, or to the text
// fallback when the transport is absent or failing. No-op while
// uninitialized or empty. Callable any number of times.
func (t *Tracer) Flush() {
	if !t.initialized.Load() {
		return
	}
	t.lock()
	defer t.unlock()
	t.flushLocked()
}

// Close flushes trailing records and releases the transport if it
// supports closing. Flush failures are absorbed as always; the close
// error is returned, since Close runs at host shutdown, not on the
// instrumented program's hot path.
func (t *Tracer) Close() error {
	t.Flush()
	if closer, ok := t.transport.(heaptrace.TransportCloser); ok {
		return closer.Close()
	}
	return nil
}

// IsInitialized reports whether Init has run.
func (t *Tracer) IsInitialized() bool {
	return t.initialized.Load()
}

// BufferCount returns the number of buffered records. Like the original
// query it reads without the lock; the value is advisory under
// concurrent recording.
func (t *Tracer) BufferCount() int {
	return t.buf.Count()
}

// BufferCapacity returns the fixed record capacity.
func (t *Tracer) BufferCapacity() int {
	return t.buf.Capacity()
}

// ResetForTesting restores the uninitialized state: buffer emptied,
// latch cleared, transport and hooks deregistered. Test support only.
func (t *Tracer) ResetForTesting() {
	t.initialized.Store(false)
	t.buf.Reset()
	t.transport = nil
	t.hooks = heaptrace.Hooks{}
}

func (t *Tracer) ensureInit() {
	if !t.initialized.Load() {
		t.Init()
	}
}

// appendRecord is the core primitive: acquire the lock, flush first if
// the buffer is full, append. The defer keeps the lock/unlock pairing on
// every path, including a flush that falls back to text.
func (t *Tracer) appendRecord(r record.Record) {
	t.lock()
	defer t.unlock()
	if t.buf.Full() {
		t.flushLocked()
	}
	t.buf.Append(r)
}

// flushLocked drains the buffer. Caller holds the lock, so appends
// cannot interleave with the encoding of this snapshot. The buffer is
// reset whether the bytes went out as binary or as text; records are
// never discarded unlogged.
func (t *Tracer) flushLocked() {
	if t.buf.Count() == 0 {
		return
	}

	want := t.buf.Count() * record.Size
	wroteAll := false

	if t.transport != nil {
		enc := t.buf.EncodeAll(t.scratch[:0])
		n, err := t.transport.Write(enc)
		wroteAll = err == nil && n == want

		if err != nil {
			t.logf("[HEAP_TRACKER] Transport write failed after %d/%d bytes: %v\n", n, want, err)
		} else if !wroteAll {
			t.logf("[HEAP_TRACKER] Transport write short (%d/%d bytes)\n", n, want)
		} else if flusher, ok := t.transport.(heaptrace.TransportFlusher); ok {
			if err := flusher.Flush(); err != nil {
				t.logf("[HEAP_TRACKER] Transport flush failed: %v\n", err)
			}
		}
	}

	if !wroteAll {
		if t.transport == nil {
			t.logf("[HEAP_TRACKER] No transport registered; emitting text trace\n")
		} else {
			t.logf("[HEAP_TRACKER] Falling back to text trace\n")
		}
		t.emitTextTrace()
	}

	t.buf.Reset()
}

func (t *Tracer) timestamp() uint64 {
	if t.hooks.TimestampUS != nil {
		return t.hooks.TimestampUS()
	}
	return 0
}

func (t *Tracer) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if t.hooks.Log != nil {
		t.hooks.Log(msg)
	} else {
		fmt.Fprint(os.Stderr, msg)
	}
}

func (t *Tracer) debugf(format string, args ...any) {
	if t.debug {
		t.logf(format, args...)
	}
}

func (t *Tracer) lock() {
	if t.hooks.Lock != nil {
		t.hooks.Lock()
	}
}

func (t *Tracer) unlock() {
	if t.hooks.Unlock != nil {
		t.hooks.Unlock()
	}
}
