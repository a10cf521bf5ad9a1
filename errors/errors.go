package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseInit   Phase = "init"   // transport/tracer initialization
	PhaseWrite  Phase = "write"  // shipping encoded records
	PhaseFlush  Phase = "flush"  // forcing buffered bytes out
	PhaseClose  Phase = "close"  // releasing transport resources
	PhaseDecode Phase = "decode" // reading a record stream
	PhaseAlloc  Phase = "alloc"  // allocation wrapper operations
)

// Kind categorizes the error
type Kind string

const (
	KindUnavailable  Kind = "unavailable"   // transport cannot be reached
	KindIO           Kind = "io"            // underlying I/O failure
	KindShortWrite   Kind = "short_write"   // fewer bytes accepted than offered
	KindTruncated    Kind = "truncated"     // partial record at end of stream
	KindInvalidInput Kind = "invalid_input" // bad argument or configuration
	KindExhausted    Kind = "exhausted"     // fixed resource ran out
	KindNotFound     Kind = "not_found"     // required export/resource missing
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause     error
	Phase     Phase
	Kind      Kind
	Transport string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Transport != "" {
		b.WriteString(" (")
		b.WriteString(e.Transport)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Transport names the transport the error belongs to
func (b *Builder) Transport(name string) *Builder {
	b.err.Transport = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unavailable creates a transport-unreachable error
func Unavailable(transport, detail string) *Error {
	return &Error{
		Phase:     PhaseInit,
		Kind:      KindUnavailable,
		Transport: transport,
		Detail:    detail,
	}
}

// IO wraps an underlying I/O failure
func IO(phase Phase, transport string, cause error) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindIO,
		Transport: transport,
		Cause:     cause,
	}
}

// ShortWrite creates a short-write error
func ShortWrite(transport string, n, want int) *Error {
	return &Error{
		Phase:     PhaseWrite,
		Kind:      KindShortWrite,
		Transport: transport,
		Detail:    fmt.Sprintf("wrote %d of %d bytes", n, want),
	}
}

// Truncated creates a truncated-stream error
func Truncated(got, want int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Detail: fmt.Sprintf("partial record: %d of %d bytes", got, want),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Exhausted creates a fixed-resource-exhausted error
func Exhausted(what string, size uint32) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("%s cannot satisfy %d bytes", what, size),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}
