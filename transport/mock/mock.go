// Package mock provides an in-memory transport that captures written
// bytes verbatim for assertions and supports fault injection.
package mock

import (
	"sync"

	"github.com/embtrace/heap-trace/errors"
)

// Transport captures every written byte into a growable buffer. A
// FailAfter budget turns it into a fault injector: writes beyond the
// budget are refused, and a write straddling the budget is accepted
// short, exercising the tracer's short-write handling.
type Transport struct {
	mu        sync.Mutex
	data      []byte
	writes    []int
	failAfter int // captured-byte budget; -1 = unlimited
	failInit  bool
	failClose bool

	initCalls  int
	flushCalls int
	closeCalls int
}

// New returns a transport that accepts everything.
func New() *Transport {
	return &Transport{failAfter: -1}
}

// FailAfter limits the transport to n captured bytes. FailAfter(0)
// makes every write fail.
func (t *Transport) FailAfter(n int) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failAfter = n
	return t
}

// FailInit makes Init report unavailability.
func (t *Transport) FailInit() *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failInit = true
	return t
}

// FailClose makes Close report an I/O failure.
func (t *Transport) FailClose() *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failClose = true
	return t
}

// Init counts the call and fails if configured to.
func (t *Transport) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.initCalls++
	if t.failInit {
		return errors.Unavailable("mock", "configured to fail init")
	}
	return nil
}

// Write captures p, honoring the FailAfter budget.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failAfter >= 0 {
		remaining := t.failAfter - len(t.data)
		if remaining <= 0 {
			return 0, errors.New(errors.PhaseWrite, errors.KindIO).
				Transport("mock").
				Detail("write budget of %d bytes exhausted", t.failAfter).
				Build()
		}
		if len(p) > remaining {
			t.data = append(t.data, p[:remaining]...)
			t.writes = append(t.writes, remaining)
			return remaining, nil // short write, no error
		}
	}

	t.data = append(t.data, p...)
	t.writes = append(t.writes, len(p))
	return len(p), nil
}

// Flush counts the call.
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.flushCalls++
	return nil
}

// Close counts the call and fails if configured to.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCalls++
	if t.failClose {
		return errors.New(errors.PhaseClose, errors.KindIO).
			Transport("mock").
			Detail("configured to fail close").
			Build()
	}
	return nil
}

// Bytes returns a copy of everything captured so far.
func (t *Transport) Bytes() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]byte, len(t.data))
	copy(out, t.data)
	return out
}

// Writes returns the byte count of each accepted Write call.
func (t *Transport) Writes() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int, len(t.writes))
	copy(out, t.writes)
	return out
}

// InitCalls returns how many times Init ran.
func (t *Transport) InitCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initCalls
}

// FlushCalls returns how many times Flush ran.
func (t *Transport) FlushCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushCalls
}

// CloseCalls returns how many times Close ran.
func (t *Transport) CloseCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCalls
}
