// Package errors provides structured error types for the heap-trace library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). Transports and the record codec return these; the
// tracer core absorbs them and falls back to the text trace instead of
// propagating anything to the instrumented program.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseWrite, errors.KindShortWrite).
//		Transport("file").
//		Detail("wrote %d of %d bytes", n, want).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unavailable("semihost", "no debug host listening")
//	err := errors.ShortWrite("udp", n, want)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
