package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Framing selects how documents are delimited in the input stream.
type Framing string

const (
	FramingJSON Framing = "json"
	FramingTSV  Framing = "tsv"
)

// DefaultMaxLineBytes bounds a single input line.
const DefaultMaxLineBytes = 64 << 20

// Options configures a Reader
type Options struct {
	Framing Framing

	// JSON framing: dotted key paths, e.g. "meta.doc_id".
	IDKey   string
	TextKey string

	// TSV framing: zero-based column indices.
	IDColumn   int
	TextColumn int
	Delimiter  string

	MaxLineBytes int

	// Cleaner is applied to every document text. Nil leaves text untouched.
	Cleaner *Cleaner

	// OnSkip is called for every input line dropped as malformed.
	OnSkip func(line int, err error)
}

// DefaultOptions returns options for JSON-lines input keyed by "id" and "text".
func DefaultOptions() Options {
	return Options{
		Framing:      FramingJSON,
		IDKey:        "id",
		TextKey:      "text",
		IDColumn:     0,
		TextColumn:   1,
		Delimiter:    "\t",
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

// Reader produces a lazy, non-restartable sequence of documents.
// Malformed lines are skipped and never end the sequence.
type Reader struct {
	br      *bufio.Reader
	opts    Options
	idPath  []string
	txtPath []string
	line    int
	skipped int
}

// NewReader wraps r with the given framing options.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}

	rd := &Reader{br: bufio.NewReaderSize(r, 64*1024), opts: opts}

	switch opts.Framing {
	case FramingJSON:
		if strings.TrimSpace(opts.IDKey) == "" || strings.TrimSpace(opts.TextKey) == "" {
			return nil, fmt.Errorf("%w: json framing needs id and text keys", internalerr.ErrInvalidConfig)
		}
		rd.idPath = strings.Split(opts.IDKey, ".")
		rd.txtPath = strings.Split(opts.TextKey, ".")
	case FramingTSV:
		if opts.IDColumn < 0 || opts.TextColumn < 0 {
			return nil, fmt.Errorf("%w: tsv columns must be non-negative", internalerr.ErrInvalidConfig)
		}
		if opts.Delimiter == "" {
			return nil, fmt.Errorf("%w: tsv delimiter is empty", internalerr.ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown input format %q", internalerr.ErrInvalidConfig, opts.Framing)
	}

	return rd, nil
}

// Next returns the next well-formed document, or io.EOF when the input is exhausted.
func (r *Reader) Next() (annotation.Document, error) {
	for {
		raw, tooLong, err := r.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return annotation.Document{}, io.EOF
			}
			return annotation.Document{}, fmt.Errorf("read input line %d: %w", r.line+1, err)
		}
		r.line++

		if tooLong {
			r.skip(fmt.Errorf("%w: line exceeds %d bytes", internalerr.ErrFraming, r.opts.MaxLineBytes))
			continue
		}

		line := strings.TrimRight(string(raw), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var doc annotation.Document
		if r.opts.Framing == FramingTSV {
			doc, err = r.parseTSV(line)
		} else {
			doc, err = r.parseJSON(line)
		}
		if err != nil {
			r.skip(err)
			continue
		}

		doc.Text = r.opts.Cleaner.Clean(doc.Text)
		return doc, nil
	}
}

// Each calls fn for every document. Cancellation is checked between documents.
func (r *Reader) Each(ctx context.Context, fn func(annotation.Document) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
}

// Line returns the number of input lines consumed so far.
func (r *Reader) Line() int { return r.line }

// Skipped returns the number of malformed lines dropped so far.
func (r *Reader) Skipped() int { return r.skipped }

func (r *Reader) skip(err error) {
	r.skipped++
	if r.opts.OnSkip != nil {
		r.opts.OnSkip(r.line, err)
	}
}

// readLine returns one newline-terminated line. Lines longer than
// MaxLineBytes are consumed up to the next newline and reported as tooLong.
func (r *Reader) readLine() ([]byte, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > r.opts.MaxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return buf, tooLong, nil
			}
			return nil, false, err
		}
		return buf, tooLong, nil
	}
}

func (r *Reader) parseTSV(line string) (annotation.Document, error) {
	fields := strings.Split(line, r.opts.Delimiter)
	need := r.opts.IDColumn
	if r.opts.TextColumn > need {
		need = r.opts.TextColumn
	}
	if len(fields) <= need {
		return annotation.Document{}, fmt.Errorf("%w: %d columns, need at least %d", internalerr.ErrFraming, len(fields), need+1)
	}
	return annotation.Document{ID: fields[r.opts.IDColumn], Text: fields[r.opts.TextColumn]}, nil
}

func (r *Reader) parseJSON(line string) (annotation.Document, error) {
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return annotation.Document{}, fmt.Errorf("%w: %v", internalerr.ErrFraming, err)
	}
	if dec.More() {
		return annotation.Document{}, fmt.Errorf("%w: trailing data after JSON object", internalerr.ErrFraming)
	}

	id, err := lookupScalar(obj, r.idPath)
	if err != nil {
		return annotation.Document{}, fmt.Errorf("%w: id key %q: %v", internalerr.ErrFraming, r.opts.IDKey, err)
	}

	raw, err := lookup(obj, r.txtPath)
	if err != nil {
		return annotation.Document{}, fmt.Errorf("%w: text key %q: %v", internalerr.ErrFraming, r.opts.TextKey, err)
	}
	text, ok := raw.(string)
	if !ok {
		return annotation.Document{}, fmt.Errorf("%w: text key %q is not a string", internalerr.ErrFraming, r.opts.TextKey)
	}

	return annotation.Document{ID: id, Text: text}, nil
}

// lookup descends through nested objects along path.
func lookup(obj map[string]any, path []string) (any, error) {
	var cur any = obj
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q is not inside an object", key)
		}
		v, ok := m[key]
		if !ok || v == nil {
			return nil, internalerr.ErrNotFound
		}
		cur = v
	}
	return cur, nil
}

// lookupScalar renders a scalar at path as a string; numbers and booleans
// keep their JSON literal text.
func lookupScalar(obj map[string]any, path []string) (string, error) {
	v, err := lookup(obj, path)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("value of type %T is not a scalar", v)
	}
}
