package columns

import (
	"fmt"
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Annotation type names accepted by Sink.
const (
	DocumentID    = "DocumentID"
	SentenceIndex = "SentenceIndex"
	Sentence      = "Sentence"
	Tokens        = "Tokens"
	Lemmas        = "Lemmas"
	Pos           = "Pos"
	Ner           = "Ner"
	Offsets       = "Offsets"
	DepLabels     = "DepLabels"
	DepHeads      = "DepHeads"
)

// DefaultSchema is every annotation type in record order.
var DefaultSchema = []string{
	DocumentID, SentenceIndex, Sentence, Tokens, Lemmas, Pos, Ner, Offsets, DepLabels, DepHeads,
}

var extractors = map[string]func(id string, index int, s annotation.SentenceAnnotation) any{
	DocumentID:    func(id string, _ int, _ annotation.SentenceAnnotation) any { return id },
	SentenceIndex: func(_ string, index int, _ annotation.SentenceAnnotation) any { return index },
	Sentence:      func(_ string, _ int, s annotation.SentenceAnnotation) any { return s.Sentence },
	Tokens:        func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmpty(s.Tokens) },
	Lemmas:        func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmpty(s.Lemmas) },
	Pos:           func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmpty(s.POS) },
	Ner:           func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmpty(s.NER) },
	Offsets:       func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmptyInts(s.Offsets) },
	DepLabels:     func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmpty(s.DepLabels) },
	DepHeads:      func(_ string, _ int, s annotation.SentenceAnnotation) any { return orEmptyInts(s.DepHeads) },
}

func orEmpty(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func orEmptyInts(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}

// ParseSchema resolves a comma-separated column list. Names match
// case-insensitively and may use snake_case, e.g. "tokens,dep_labels".
func ParseSchema(list string) ([]string, error) {
	var schema []string
	for _, part := range strings.Split(list, ",") {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(part), "_", ""))
		if key == "" {
			continue
		}
		name, ok := "", false
		for _, known := range DefaultSchema {
			if strings.ToLower(known) == key {
				name, ok = known, true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("unknown column %q: %w", strings.TrimSpace(part), internalerr.ErrInvalidConfig)
		}
		schema = append(schema, name)
	}
	return schema, nil
}

// Sink writes sentences through a Writer, one value per configured type.
type Sink struct {
	w      *Writer
	schema []string
}

// NewSink creates a Writer in dir with the given schema, or DefaultSchema
// when schema is empty.
func NewSink(dir string, schema []string) (*Sink, error) {
	if len(schema) == 0 {
		schema = DefaultSchema
	}
	for _, name := range schema {
		if _, ok := extractors[name]; !ok {
			return nil, fmt.Errorf("unknown column %q: %w", name, internalerr.ErrInvalidConfig)
		}
	}
	w, err := New(dir)
	if err != nil {
		return nil, err
	}
	if err := w.SetSchema(schema); err != nil {
		return nil, err
	}
	return &Sink{w: w, schema: w.Schema()}, nil
}

// Writer exposes the underlying column writer.
func (s *Sink) Writer() *Writer { return s.w }

// WriteSentence writes one value per column.
func (s *Sink) WriteSentence(id string, index int, sent annotation.SentenceAnnotation) error {
	values := make([]any, len(s.schema))
	for i, name := range s.schema {
		values[i] = extractors[name](id, index, sent)
	}
	return s.w.Write(values...)
}

func (s *Sink) Flush() error { return s.w.Flush() }

func (s *Sink) Close() error { return s.w.Close() }
