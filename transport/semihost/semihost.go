// Package semihost implements the debugger-channel transport.
//
// The embedded original pushed trace bytes through ARM semihosting to a
// file on the debugging host. The host-side analog is the debug server's
// semihosting TCP channel (OpenOCD and friends expose one); this
// transport connects to it with bounded timeouts. The defining contract
// survives the port: Init probes for an attached debug host and reports
// unavailability rather than hanging, and no write can block the traced
// program indefinitely.
package semihost

import (
	"net"
	"time"

	"github.com/embtrace/heap-trace/errors"
)

const (
	// DefaultAddress is the conventional local debug-server channel.
	DefaultAddress = "127.0.0.1:4444"

	// DefaultDialTimeout bounds the availability probe in Init.
	DefaultDialTimeout = 2 * time.Second

	// DefaultWriteTimeout bounds each write so a wedged debug host
	// cannot stall the tracer.
	DefaultWriteTimeout = 5 * time.Second
)

// Transport ships trace bytes to a debug host over its channel socket.
type Transport struct {
	addr         string
	dialTimeout  time.Duration
	writeTimeout time.Duration
	conn         net.Conn
}

// Option configures the transport.
type Option func(*Transport)

// WithDialTimeout bounds the Init availability probe.
func WithDialTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.dialTimeout = d
	}
}

// WithWriteTimeout bounds each write.
func WithWriteTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.writeTimeout = d
	}
}

// New creates a debugger-channel transport targeting addr; an empty
// addr uses DefaultAddress.
func New(addr string, opts ...Option) *Transport {
	if addr == "" {
		addr = DefaultAddress
	}
	t := &Transport{
		addr:         addr,
		dialTimeout:  DefaultDialTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init probes for an attached debug host. No listener within the dial
// timeout means no debugger: the error is reported and the tracer falls
// back to text instead of blocking.
func (t *Transport) Init() error {
	if t.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", t.addr, t.dialTimeout)
	if err != nil {
		return errors.New(errors.PhaseInit, errors.KindUnavailable).
			Transport("semihost").
			Detail("no debug host at %s", t.addr).
			Cause(err).
			Build()
	}
	t.conn = conn
	return nil
}

// Write sends p over the debug channel under the write deadline.
func (t *Transport) Write(p []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.Unavailable("semihost", "not initialized")
	}
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return 0, errors.IO(errors.PhaseWrite, "semihost", err)
	}
	n, err := t.conn.Write(p)
	if err != nil {
		return n, errors.IO(errors.PhaseWrite, "semihost", err)
	}
	return n, nil
}

// Close releases the channel connection.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return errors.IO(errors.PhaseClose, "semihost", err)
	}
	return nil
}
