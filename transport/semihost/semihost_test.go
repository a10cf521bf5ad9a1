package semihost

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	herrors "github.com/embtrace/heap-trace/errors"
)

func TestInit_NoDebugHost(t *testing.T) {
	// A freshly closed listener gives a port with nothing listening.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	tr := New(addr, WithDialTimeout(500*time.Millisecond))
	start := time.Now()
	err = tr.Init()
	if err == nil {
		t.Fatal("Init must fail without a debug host")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Init took %v; must be bounded, not hang", elapsed)
	}

	var herr *herrors.Error
	if !errors.As(err, &herr) || herr.Kind != herrors.KindUnavailable {
		t.Errorf("want unavailable error, got %v", err)
	}
}

func TestWrite_BeforeInit(t *testing.T) {
	tr := New("")
	if _, err := tr.Write([]byte{1}); err == nil {
		t.Error("write before a successful Init must fail")
	}
}

func TestTransport_ShipsBytes(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	tr := New(l.Addr().String())
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}

	payload := []byte("heap trace bytes")
	n, err := tr.Write(payload)
	if err != nil || n != len(payload) {
		t.Fatalf("write = (%d, %v)", n, err)
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case data := <-received:
		if !bytes.Equal(data, payload) {
			t.Errorf("received %q, want %q", data, payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("debug host received nothing")
	}
}

func TestInit_Idempotent(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	tr := New(l.Addr().String())
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Init(); err != nil {
		t.Errorf("second Init: %v", err)
	}
	tr.Close()
}
