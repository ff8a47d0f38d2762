// Package format renders sentence annotations as tab-separated records.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/sink"
)

// Columns names the record fields in output order.
var Columns = []string{
	"id", "index", "sentence", "tokens", "lemmas", "pos", "ner", "offsets", "dep_labels", "dep_heads",
}

// Record is one output row, ordered as Columns.
type Record []string

// TSV joins the record with tabs. No field contains a tab or newline.
func (r Record) TSV() string {
	return strings.Join(r, "\t")
}

// Formatter turns annotations into records.
type Formatter struct{}

// Format builds the record for sentence index (1-based) of document id.
func (Formatter) Format(id string, index int, s annotation.SentenceAnnotation) Record {
	return Record{
		sink.CleanID(id),
		strconv.Itoa(index),
		CleanSentence(s.Sentence),
		EncodeStrings(s.Tokens),
		EncodeStrings(s.Lemmas),
		EncodeStrings(s.POS),
		EncodeStrings(s.NER),
		EncodeInts(s.Offsets),
		EncodeStrings(s.DepLabels),
		EncodeInts(s.DepHeads),
	}
}

// ParseTSV is the inverse of Formatter.Format followed by Record.TSV.
// The sentence comes back in its cleaned form, and disabled stages come back
// as empty slices.
func ParseTSV(line string) (id string, index int, s annotation.SentenceAnnotation, err error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) != len(Columns) {
		return "", 0, s, fmt.Errorf("record has %d fields, want %d: %w", len(fields), len(Columns), internalerr.ErrInvalidInput)
	}
	id = fields[0]
	if index, err = strconv.Atoi(fields[1]); err != nil {
		return "", 0, s, fmt.Errorf("record index %q: %w", fields[1], internalerr.ErrInvalidInput)
	}
	s.Sentence = fields[2]

	strs := []*[]string{&s.Tokens, &s.Lemmas, &s.POS, &s.NER}
	for i, dst := range strs {
		if *dst, err = DecodeStrings(fields[3+i]); err != nil {
			return "", 0, s, fmt.Errorf("column %s: %w", Columns[3+i], err)
		}
	}
	if s.Offsets, err = DecodeInts(fields[7]); err != nil {
		return "", 0, s, fmt.Errorf("column offsets: %w", err)
	}
	if s.DepLabels, err = DecodeStrings(fields[8]); err != nil {
		return "", 0, s, fmt.Errorf("column dep_labels: %w", err)
	}
	if s.DepHeads, err = DecodeInts(fields[9]); err != nil {
		return "", 0, s, fmt.Errorf("column dep_heads: %w", err)
	}
	return id, index, s, nil
}

// CleanSentence replaces control characters and line or paragraph
// separators with spaces, collapses whitespace runs and trims the result.
func CleanSentence(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) || r == '\u2028' || r == '\u2029' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// TSVSink writes formatted records as lines to an output sink.
type TSVSink struct {
	formatter Formatter
	out       sink.Sink
}

// NewTSVSink wraps out.
func NewTSVSink(out sink.Sink) *TSVSink {
	return &TSVSink{out: out}
}

// WriteSentence formats and writes one sentence.
func (t *TSVSink) WriteSentence(id string, index int, s annotation.SentenceAnnotation) error {
	return t.out.WriteLine(t.formatter.Format(id, index, s).TSV())
}

// Flush flushes the underlying sink.
func (t *TSVSink) Flush() error { return t.out.Flush() }

// Close closes the underlying sink.
func (t *TSVSink) Close() error { return t.out.Close() }
