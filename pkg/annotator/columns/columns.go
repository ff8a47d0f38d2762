// Package columns writes annotations column-wise: one file per annotation
// type, one JSON value per line.
package columns

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// ErrSchemaSet is returned when SetSchema is called twice.
var ErrSchemaSet = errors.New("schema already set")

// Writer owns one output file per schema slot. A slot whose file already
// exists is inactive for the writer's lifetime and its values are dropped.
type Writer struct {
	dir    string
	schema []string
	slots  []slot
	set    bool
	closed bool
}

// slot is the present-or-absent output of one schema position.
type slot struct {
	name    string
	present bool
	out     output // zero unless present
}

type output struct {
	path string
	f    *os.File
	buf  *bufio.Writer
	enc  *json.Encoder
}

// New creates a writer rooted at dir, creating the directory if needed.
func New(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("column output directory is empty: %w", internalerr.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create column dir %s: %v: %w", dir, err, internalerr.ErrResource)
	}
	return &Writer{dir: dir}, nil
}

// FileName returns the file name used for an annotation type:
// "ann." followed by the name with its first rune lowercased.
func FileName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	return "ann." + string(unicode.ToLower(r)) + name[size:]
}

// SetSchema fixes the ordered annotation-type names. It may be called once.
func (w *Writer) SetSchema(names []string) error {
	if w.set {
		return ErrSchemaSet
	}
	if w.closed {
		return fmt.Errorf("column writer closed: %w", internalerr.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("invalid column name %q: %w", name, internalerr.ErrInvalidConfig)
		}
		file := FileName(name)
		if seen[file] {
			return fmt.Errorf("duplicate column %q: %w", name, internalerr.ErrInvalidConfig)
		}
		seen[file] = true
	}

	slots := make([]slot, len(names))
	for i, name := range names {
		slots[i].name = name
		path := filepath.Join(w.dir, FileName(name))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			discardSlots(slots)
			return fmt.Errorf("create column file %s: %v: %w", path, err, internalerr.ErrResource)
		}
		buf := bufio.NewWriter(f)
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		slots[i].present = true
		slots[i].out = output{path: path, f: f, buf: buf, enc: enc}
	}

	w.schema = append([]string(nil), names...)
	w.slots = slots
	w.set = true
	return nil
}

// Schema returns the configured names.
func (w *Writer) Schema() []string {
	return append([]string(nil), w.schema...)
}

// Active returns the names whose files this writer created.
func (w *Writer) Active() []string {
	var names []string
	for _, s := range w.slots {
		if s.present {
			names = append(names, s.name)
		}
	}
	return names
}

// Write appends one value per schema slot, in schema order.
func (w *Writer) Write(values ...any) error {
	if !w.set {
		return fmt.Errorf("schema not set: %w", internalerr.ErrInvalidInput)
	}
	if w.closed {
		return fmt.Errorf("column writer closed: %w", internalerr.ErrInvalidInput)
	}
	if len(values) != len(w.schema) {
		return fmt.Errorf("got %d values for %d columns: %w", len(values), len(w.schema), internalerr.ErrInvalidInput)
	}
	for i, s := range w.slots {
		if !s.present {
			continue
		}
		if err := s.out.enc.Encode(values[i]); err != nil {
			return fmt.Errorf("write column %s: %v: %w", s.name, err, internalerr.ErrResource)
		}
	}
	return nil
}

// Flush flushes every active slot.
func (w *Writer) Flush() error {
	if w.closed {
		return nil
	}
	var first error
	for _, s := range w.slots {
		if !s.present {
			continue
		}
		if err := s.out.buf.Flush(); err != nil && first == nil {
			first = fmt.Errorf("flush column %s: %v: %w", s.name, err, internalerr.ErrResource)
		}
	}
	return first
}

// Close flushes and closes each active slot once. Every slot is closed even
// after an error; the first error is returned. Later calls are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return closeSlots(w.slots)
}

// Remove closes the writer and deletes the files it created. Files that
// already existed before SetSchema are left alone.
func (w *Writer) Remove() error {
	err := w.Close()
	for _, s := range w.slots {
		if !s.present {
			continue
		}
		if rerr := os.Remove(s.out.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove column %s: %v: %w", s.name, rerr, internalerr.ErrResource)
		}
	}
	return err
}

// discardSlots closes and removes the files created so far.
func discardSlots(slots []slot) {
	for _, s := range slots {
		if !s.present {
			continue
		}
		s.out.f.Close()
		os.Remove(s.out.path)
	}
}

func closeSlots(slots []slot) error {
	var first error
	for _, s := range slots {
		if !s.present {
			continue
		}
		if err := s.out.buf.Flush(); err != nil && first == nil {
			first = fmt.Errorf("flush column %s: %v: %w", s.name, err, internalerr.ErrResource)
		}
		if err := s.out.f.Close(); err != nil && first == nil {
			first = fmt.Errorf("close column %s: %v: %w", s.name, err, internalerr.ErrResource)
		}
	}
	return first
}
