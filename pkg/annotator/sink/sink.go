// Package sink provides line-oriented output destinations and the
// per-document failure log.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("sink closed")

const bufSize = 64 * 1024

// Sink receives output lines. Implementations append the newline.
type Sink interface {
	WriteLine(line string) error
	Flush() error
	Close() error
}

// Writer is a buffered Sink over an io.Writer. It is not safe for
// concurrent use.
type Writer struct {
	w      *bufio.Writer
	closer io.Closer // nil for writers we do not own
	closed bool
}

// NewWriter wraps w. Close flushes but does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, bufSize)}
}

// Stdout returns a Sink on standard output.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// OpenFile opens path for appending, creating it if needed.
func OpenFile(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %v: %w", path, err, internalerr.ErrResource)
	}
	return &Writer{w: bufio.NewWriterSize(f, bufSize), closer: f}, nil
}

func (s *Writer) WriteLine(line string) error {
	if s.closed {
		return ErrClosed
	}
	if _, err := s.w.WriteString(line); err != nil {
		return fmt.Errorf("write output: %v: %w", err, internalerr.ErrResource)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write output: %v: %w", err, internalerr.ErrResource)
	}
	return nil
}

func (s *Writer) Flush() error {
	if s.closed {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %v: %w", err, internalerr.ErrResource)
	}
	return nil
}

// Close flushes and releases the sink. Calling it again is a no-op.
func (s *Writer) Close() error {
	if s.closed {
		return nil
	}
	err := s.Flush()
	s.closed = true
	if s.closer != nil {
		if cerr := s.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %v: %w", cerr, internalerr.ErrResource)
		}
	}
	return err
}

// Discard returns a Sink that drops every line.
func Discard() Sink { return discard{} }

type discard struct{}

func (discard) WriteLine(string) error { return nil }
func (discard) Flush() error           { return nil }
func (discard) Close() error           { return nil }

// Memory collects lines in memory.
type Memory struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) WriteLine(line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.lines = append(m.lines, line)
	return nil
}

func (m *Memory) Flush() error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Lines returns a copy of the lines written so far.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Closed reports whether Close was called.
func (m *Memory) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
