// Package heaptrace provides a transport-agnostic heap-operation
// instrumentation engine for embedded and host targets.
//
// The engine intercepts malloc/free/realloc outcomes, encodes each as a
// fixed-size binary record with a timestamp, buffers records in a
// fixed-capacity buffer, and flushes them to a pluggable transport with a
// human-readable text fallback when the transport fails. The tracer never
// allocates on its hot path and never surfaces failures to the program it
// observes.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	heaptrace/          Root package with Transport, Hooks and Allocator interfaces
//	├── record/         Trace record type, 24-byte binary codec, fixed buffer
//	├── tracer/         Instrumentation core: lifecycle, recording, flush
//	├── transport/
//	│   ├── file/       Filesystem transport (binary trace file)
//	│   ├── udp/        UDP datagram transport
//	│   ├── semihost/   Debugger-channel transport
//	│   └── mock/       In-memory capture transport for tests
//	├── alloc/          Tracked allocation wrappers and a fixed-arena heap
//	├── wasmalloc/      Wazero guest allocator adapter
//	├── platform/       Ready-made host platform hooks
//	└── errors/         Structured error types
//
// # Quick Start
//
//	trc := tracer.New(tracer.Config{
//	    Transport: file.New(),
//	    Hooks:     platform.Host(logger),
//	})
//
//	heap := alloc.NewHeap(64 << 10)
//	tracked := alloc.NewTracked(heap, trc)
//
//	p := tracked.Malloc(100)
//	tracked.Free(p)
//
//	trc.Close() // flush trailing records, close the transport
//
// # Trace Stream
//
// The binary stream is a flat concatenation of fixed-size records in call
// order, independent of flush boundaries. Records use the native byte
// order of the build target; cross-target wire compatibility is not
// guaranteed. Pointers are narrowed to 32 bits, a deliberate property of
// the record format carried over from its embedded origins.
//
// # Thread Safety
//
// The tracer provides no mutual exclusion of its own. Hosts that record
// from multiple goroutines must register Lock/Unlock hooks; the tracer
// then guarantees every buffer mutation happens under the lock and the
// lock is released on every path, including flush-on-full.
package heaptrace
