package file

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	herrors "github.com/embtrace/heap-trace/errors"
)

func TestPath_Precedence(t *testing.T) {
	t.Setenv(PathEnv, "")

	if got := New().Path(); got != DefaultPath {
		t.Errorf("default path = %q, want %q", got, DefaultPath)
	}
	if got := New(WithPath("custom.bin")).Path(); got != "custom.bin" {
		t.Errorf("explicit path = %q", got)
	}

	t.Setenv(PathEnv, "/tmp/env.bin")
	if got := New(WithPath("custom.bin")).Path(); got != "/tmp/env.bin" {
		t.Errorf("env override lost: %q", got)
	}
}

func TestTransport_WriteAppendsAcrossFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.bin")
	t.Setenv(PathEnv, "")
	tr := New(WithPath(path))

	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	for _, chunk := range [][]byte{{1, 2, 3}, {4, 5}, {6}} {
		n, err := tr.Write(chunk)
		if err != nil || n != len(chunk) {
			t.Fatalf("write = (%d, %v), want (%d, nil)", n, err, len(chunk))
		}
	}
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("file contents = %v", data)
	}
}

func TestTransport_LazyOpenOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazy.bin")
	t.Setenv(PathEnv, "")
	tr := New(WithPath(path))

	// no Init: first Write opens the file
	if _, err := tr.Write([]byte{7}); err != nil {
		t.Fatal(err)
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("trace file missing: %v", err)
	}
}

func TestTransport_InitFailureDistinct(t *testing.T) {
	t.Setenv(PathEnv, "")
	tr := New(WithPath(filepath.Join(t.TempDir(), "missing", "dir", "t.bin")))

	err := tr.Init()
	var herr *herrors.Error
	if !errors.As(err, &herr) {
		t.Fatalf("want structured error, got %v", err)
	}
	if herr.Phase != herrors.PhaseInit || herr.Kind != herrors.KindIO {
		t.Errorf("error = %v", herr)
	}
}

func TestTransport_CloseIdempotent(t *testing.T) {
	t.Setenv(PathEnv, "")
	tr := New(WithPath(filepath.Join(t.TempDir(), "c.bin")))
	if err := tr.Init(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}
