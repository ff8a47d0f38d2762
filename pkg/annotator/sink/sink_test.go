package sink

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parsed")

	for _, line := range []string{"first", "second"} {
		s, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile failed: %v", err)
		}
		if err := s.WriteLine(line); err != nil {
			t.Fatalf("WriteLine failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first\nsecond\n" {
		t.Errorf("Expected appended lines, got %q", data)
	}
}

func TestWriterCloseIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf)
	if err := s.WriteLine("a"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Error("Expected output to be buffered until flush")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
	if buf.String() != "a\n" {
		t.Errorf("Expected %q, got %q", "a\n", buf.String())
	}
	if err := s.WriteLine("b"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after close, got %v", err)
	}
}

func TestOpenFileMissingDir(t *testing.T) {
	if _, err := OpenFile(filepath.Join(t.TempDir(), "no", "such", "file")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	m.WriteLine("x")
	m.WriteLine("y")
	if got := m.Lines(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Expected [x y], got %v", got)
	}
	m.Close()
	if !m.Closed() {
		t.Error("Expected memory sink to report closed")
	}
	if err := m.WriteLine("z"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestDiscard(t *testing.T) {
	d := Discard()
	if err := d.WriteLine("x"); err != nil {
		t.Errorf("Discard WriteLine failed: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Discard Close failed: %v", err)
	}
}
