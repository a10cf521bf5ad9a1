package heaptrace

// Transport is a place to send encoded trace bytes.
//
// Write is the only required capability. A transport that buffers
// internally or holds resources additionally implements TransportFlusher
// and TransportCloser; the tracer discovers both via type assertion.
type Transport interface {
	// Init prepares the transport for writing. Called once, during tracer
	// initialization. Transports that can hang (debugger channels) must
	// bound Init and report unavailability instead of blocking.
	Init() error

	// Write sends len(p) bytes. A nil error with n == len(p) is the only
	// success; anything else is treated as a failed flush by the tracer.
	Write(p []byte) (n int, err error)
}

// TransportFlusher is implemented by transports that buffer internally.
type TransportFlusher interface {
	Flush() error
}

// TransportCloser is implemented by transports that hold resources.
type TransportCloser interface {
	Close() error
}

// Hooks are the platform callbacks injected by the host. Every slot is
// optional; nil slots degrade to documented defaults (timestamp -> 0,
// log -> stderr, lock/unlock -> no-op). Context travels inside the
// closures, so there is no separate opaque pointer.
type Hooks struct {
	// TimestampUS returns a monotonic microsecond timestamp.
	TimestampUS func() uint64

	// Log receives human-readable diagnostics and the text fallback trace.
	Log func(msg string)

	// Lock and Unlock protect the record buffer. The host must supply
	// both if it records from multiple goroutines; without them,
	// concurrent use is the caller's problem, not the tracer's.
	Lock   func()
	Unlock func()
}

// HeapBounds describes the traced heap region. Addresses are 32-bit in
// the record format; Valid reports whether Base/Size are meaningful.
type HeapBounds struct {
	Base  uint32
	Size  uint32
	Valid bool
}

// Allocator is a raw heap with 32-bit addresses. Address 0 is the
// null/failure sentinel throughout.
//
// Implementations must be the real, untracked allocator; wrapping a
// tracked allocator in another tracked allocator recurses.
type Allocator interface {
	// Malloc allocates size bytes, returning 0 on failure.
	Malloc(size uint32) uint32

	// Free releases ptr. Free(0) is a no-op.
	Free(ptr uint32)

	// Realloc resizes ptr to size bytes. Realloc(0, n) behaves like
	// Malloc(n); Realloc(p, 0) behaves like Free(p) and returns 0.
	// Returns 0 on failure, leaving ptr intact.
	Realloc(ptr, size uint32) uint32
}

// Bounder is implemented by allocators that know their heap region.
// The tracer's Init record carries these bounds when available.
type Bounder interface {
	Bounds() HeapBounds
}
