// Package file implements the filesystem transport: trace records are
// written to a binary file on the host.
//
// The output path comes from the HEAPINST_TRACE_FILE environment
// variable, then an explicit WithPath option, then the fixed default
// heap_trace.bin.
package file

import (
	"os"

	"github.com/embtrace/heap-trace/errors"
)

const (
	// DefaultPath is the trace filename used when nothing overrides it.
	DefaultPath = "heap_trace.bin"

	// PathEnv overrides the trace filename when set and non-empty.
	PathEnv = "HEAPINST_TRACE_FILE"
)

// Transport writes the binary trace stream to a file. The file is
// opened lazily, on Init or the first Write, so constructing the
// transport never touches the filesystem.
type Transport struct {
	path string
	f    *os.File
}

// Option configures the transport.
type Option func(*Transport)

// WithPath sets an explicit output path. The environment override still
// wins, matching the original port's precedence.
func WithPath(path string) Option {
	return func(t *Transport) {
		t.path = path
	}
}

// New creates a file transport.
func New(opts ...Option) *Transport {
	t := &Transport{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Path returns the path the transport will write to.
func (t *Transport) Path() string {
	if env := os.Getenv(PathEnv); env != "" {
		return env
	}
	if t.path != "" {
		return t.path
	}
	return DefaultPath
}

// Init opens the trace file for binary writing, truncating any previous
// trace. Failure to open is reported, distinct from success; the tracer
// logs it and defers to the text fallback.
func (t *Transport) Init() error {
	if t.f != nil {
		return nil
	}
	f, err := os.OpenFile(t.Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.IO(errors.PhaseInit, "file", err)
	}
	t.f = f
	return nil
}

// Write appends p to the trace file.
func (t *Transport) Write(p []byte) (int, error) {
	if t.f == nil {
		if err := t.Init(); err != nil {
			return 0, err
		}
	}
	n, err := t.f.Write(p)
	if err != nil {
		return n, errors.IO(errors.PhaseWrite, "file", err)
	}
	return n, nil
}

// Flush forces OS buffers out to stable storage.
func (t *Transport) Flush() error {
	if t.f == nil {
		return errors.Unavailable("file", "not initialized")
	}
	if err := t.f.Sync(); err != nil {
		return errors.IO(errors.PhaseFlush, "file", err)
	}
	return nil
}

// Close releases the file handle. Closing an unopened transport is a
// no-op.
func (t *Transport) Close() error {
	if t.f == nil {
		return nil
	}
	err := t.f.Close()
	t.f = nil
	if err != nil {
		return errors.IO(errors.PhaseClose, "file", err)
	}
	return nil
}
