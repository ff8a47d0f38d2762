package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFailureLine(t *testing.T) {
	tests := []struct {
		id, msg, want string
	}{
		{"doc1", "boom", "doc1\tboom"},
		{"", "boom", "-\tboom"},
		{"doc2", "line1\nline2\r\n", `doc2` + "\t" + `line1\nline2\r\n`},
		{"a\tb", `c:\tmp`, "a b\t" + `c:\\tmp`},
	}
	for _, tt := range tests {
		if got := FailureLine(tt.id, tt.msg); got != tt.want {
			t.Errorf("FailureLine(%q, %q) = %q, want %q", tt.id, tt.msg, got, tt.want)
		}
	}
}

func TestLazyFileFailureLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl.failed")
	fl := NewLazyFileFailureLog(path)

	if fl.Opened() {
		t.Error("Log should not be opened before the first record")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected no file before first record, stat err = %v", err)
	}

	if err := fl.Record("d1", "panic: x\ngoroutine 1"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if !fl.Opened() || !OpenedFailureLog(fl) {
		t.Error("Log should be opened after a record")
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "d1\tpanic: x\\ngoroutine 1\n"; string(data) != want {
		t.Errorf("Expected %q, got %q", want, data)
	}
}

func TestLazyFileFailureLogUnused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.failed")
	fl := NewLazyFileFailureLog(path)
	if err := fl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no failure file when nothing failed")
	}
}

func TestWriterFailureLog(t *testing.T) {
	var buf bytes.Buffer
	fl := NewWriterFailureLog(&buf)
	fl.Record("x", "bad")
	fl.Record("", "worse")
	if want := "x\tbad\n-\tworse\n"; buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
	if OpenedFailureLog(fl) {
		t.Error("Writer log is never a lazily opened file")
	}
}

func TestLoggerFailureLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	fl := NewLoggerFailureLog(logger)

	if err := fl.Record("doc9", "engine exploded"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("Expected a log entry")
	}
	if entry.Level != logrus.ErrorLevel {
		t.Errorf("Expected error level, got %v", entry.Level)
	}
	if entry.Data["doc_id"] != "doc9" || entry.Message != "engine exploded" {
		t.Errorf("Unexpected entry: %v %q", entry.Data, entry.Message)
	}
	if OpenedFailureLog(fl) {
		t.Error("Logger failure log never opens a file")
	}
	if err := fl.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
