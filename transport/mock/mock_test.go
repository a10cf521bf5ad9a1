package mock

import (
	"bytes"
	"testing"
)

func TestTransport_CapturesVerbatim(t *testing.T) {
	tr := New()
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}

	tr.Write([]byte{1, 2, 3})
	tr.Write([]byte{4, 5})

	if !bytes.Equal(tr.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("captured %v", tr.Bytes())
	}
	if writes := tr.Writes(); len(writes) != 2 || writes[0] != 3 || writes[1] != 2 {
		t.Errorf("writes = %v", writes)
	}
}

func TestTransport_FailAfterZero(t *testing.T) {
	tr := New().FailAfter(0)
	n, err := tr.Write([]byte{1, 2, 3})
	if err == nil || n != 0 {
		t.Errorf("write = (%d, %v), want failure", n, err)
	}
	if len(tr.Bytes()) != 0 {
		t.Error("failed write must capture nothing")
	}
}

func TestTransport_FailAfterShortWrite(t *testing.T) {
	tr := New().FailAfter(4)

	n, err := tr.Write([]byte{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("straddling write should be short, not an error: %v", err)
	}
	if n != 4 {
		t.Errorf("short write accepted %d bytes, want 4", n)
	}

	// budget now exhausted
	if n, err := tr.Write([]byte{7}); err == nil || n != 0 {
		t.Errorf("exhausted write = (%d, %v), want failure", n, err)
	}
}

func TestTransport_FailInit(t *testing.T) {
	tr := New().FailInit()
	if err := tr.Init(); err == nil {
		t.Error("Init must fail when configured to")
	}
	if tr.InitCalls() != 1 {
		t.Errorf("init calls = %d", tr.InitCalls())
	}
}

func TestTransport_FailClose(t *testing.T) {
	tr := New().FailClose()
	if err := tr.Close(); err == nil {
		t.Error("Close must fail when configured to")
	}
	if tr.CloseCalls() != 1 {
		t.Errorf("close calls = %d", tr.CloseCalls())
	}
}

func TestTransport_Counters(t *testing.T) {
	tr := New()
	tr.Init()
	tr.Flush()
	tr.Flush()
	tr.Close()

	if tr.InitCalls() != 1 || tr.FlushCalls() != 2 || tr.CloseCalls() != 1 {
		t.Errorf("counters = init %d flush %d close %d",
			tr.InitCalls(), tr.FlushCalls(), tr.CloseCalls())
	}
}
