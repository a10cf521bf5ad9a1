// Package udp implements the UDP transport: each flush leaves the
// device as one datagram to a collector on the network.
//
// UDP gives no delivery guarantee; the trade is bounded, connection-free
// writes that cannot stall the instrumented program. A conforming
// collector reassembles the flat record stream from datagram payloads in
// arrival order.
package udp

import (
	"net"

	"github.com/embtrace/heap-trace/errors"
)

// DefaultAddress matches the original port configuration.
const DefaultAddress = "192.168.1.100:8888"

// Transport sends the trace stream as UDP datagrams.
type Transport struct {
	addr string
	conn *net.UDPConn
}

// New creates a UDP transport targeting addr; an empty addr uses
// DefaultAddress.
func New(addr string) *Transport {
	if addr == "" {
		addr = DefaultAddress
	}
	return &Transport{addr: addr}
}

// Init resolves the collector address and opens the socket. A bad
// address or unroutable target is reported instead of surfacing later
// on the hot path.
func (t *Transport) Init() error {
	if t.conn != nil {
		return nil
	}
	raddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return errors.New(errors.PhaseInit, errors.KindInvalidInput).
			Transport("udp").
			Detail("resolve %s", t.addr).
			Cause(err).
			Build()
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return errors.IO(errors.PhaseInit, "udp", err)
	}
	t.conn = conn
	return nil
}

// Write sends p as a single datagram.
func (t *Transport) Write(p []byte) (int, error) {
	if t.conn == nil {
		if err := t.Init(); err != nil {
			return 0, err
		}
	}
	n, err := t.conn.Write(p)
	if err != nil {
		return n, errors.IO(errors.PhaseWrite, "udp", err)
	}
	return n, nil
}

// Close releases the socket.
func (t *Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return errors.IO(errors.PhaseClose, "udp", err)
	}
	return nil
}
