package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// FailureLog records documents that could not be annotated, one
// "id<TAB>message" line each.
type FailureLog interface {
	Record(id, message string) error
	Close() error
}

var (
	messageEscaper = strings.NewReplacer("\\", `\\`, "\n", `\n`, "\r", `\r`)
	idCleaner      = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
)

// CleanID maps tab, CR and LF in a document id to spaces. Everything else,
// including runs of whitespace, is kept.
func CleanID(id string) string {
	return idCleaner.Replace(id)
}

// FailureLine renders one failure log entry without the trailing newline.
// An empty id is written as "-".
func FailureLine(id, message string) string {
	id = CleanID(id)
	if id == "" {
		id = "-"
	}
	return id + "\t" + messageEscaper.Replace(message)
}

// LazyFileFailureLog creates its file on the first Record.
type LazyFileFailureLog struct {
	mu   sync.Mutex
	path string
	out  *Writer
	err  error
	done bool
}

// NewLazyFileFailureLog returns a failure log for path. Nothing is created
// until a failure is recorded.
func NewLazyFileFailureLog(path string) *LazyFileFailureLog {
	return &LazyFileFailureLog{path: path}
}

// Path returns the file path.
func (l *LazyFileFailureLog) Path() string { return l.path }

func (l *LazyFileFailureLog) Record(id, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return ErrClosed
	}
	if l.out == nil {
		if l.err != nil {
			return l.err
		}
		l.out, l.err = OpenFile(l.path)
		if l.err != nil {
			return l.err
		}
	}
	if err := l.out.WriteLine(FailureLine(id, message)); err != nil {
		return err
	}
	// entries are flushed as they are recorded
	return l.out.Flush()
}

// Opened reports whether the file was ever created.
func (l *LazyFileFailureLog) Opened() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out != nil
}

func (l *LazyFileFailureLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return nil
	}
	l.done = true
	if l.out == nil {
		return nil
	}
	return l.out.Close()
}

// WriterFailureLog writes failures to an io.Writer such as stderr.
type WriterFailureLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterFailureLog wraps w. Close does not close w.
func NewWriterFailureLog(w io.Writer) *WriterFailureLog {
	return &WriterFailureLog{w: w}
}

func (l *WriterFailureLog) Record(id, message string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintln(l.w, FailureLine(id, message)); err != nil {
		return fmt.Errorf("write failure log: %v: %w", err, internalerr.ErrResource)
	}
	return nil
}

func (l *WriterFailureLog) Close() error { return nil }

// LoggerFailureLog reports failures at error level. Stream mode uses it so
// that diagnostics reach stderr and never stdout.
type LoggerFailureLog struct {
	log logrus.FieldLogger
}

func NewLoggerFailureLog(log logrus.FieldLogger) *LoggerFailureLog {
	return &LoggerFailureLog{log: log}
}

func (l *LoggerFailureLog) Record(id, message string) error {
	l.log.WithField("doc_id", id).Error(message)
	return nil
}

func (l *LoggerFailureLog) Close() error { return nil }

// OpenedFailureLog reports whether fl is a lazy file log that created its
// file. Other logs report false.
func OpenedFailureLog(fl FailureLog) bool {
	lazy, ok := fl.(*LazyFileFailureLog)
	return ok && lazy.Opened()
}

var (
	_ FailureLog = (*LazyFileFailureLog)(nil)
	_ FailureLog = (*WriterFailureLog)(nil)
	_ FailureLog = (*LoggerFailureLog)(nil)
)
