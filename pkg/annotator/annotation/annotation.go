package annotation

import (
	"fmt"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Document is one unit of input text with its identifier.
type Document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SentenceAnnotation holds the parallel per-token arrays for one sentence.
//
// Every per-token array has len(Tokens) entries. Offsets is a flat
// alternating list [begin0, end0, begin1, end1, ...] of byte offsets into
// the document text (begin inclusive, end exclusive), so it holds
// 2*len(Tokens) integers. DepHeads are 1-based token indices, 0 for root.
// Arrays of stages that did not run are nil.
type SentenceAnnotation struct {
	Sentence  string   `json:"sentence"`
	Tokens    []string `json:"tokens"`
	Lemmas    []string `json:"lemmas,omitempty"`
	POS       []string `json:"pos,omitempty"`
	NER       []string `json:"ner,omitempty"`
	Offsets   []int    `json:"offsets,omitempty"`
	DepLabels []string `json:"dep_labels,omitempty"`
	DepHeads  []int    `json:"dep_heads,omitempty"`
}

// DocumentResult is the engine output for one document.
type DocumentResult struct {
	DocumentID string               `json:"document_id"`
	Sentences  []SentenceAnnotation `json:"sentences"`
}

// Validate checks the alignment invariant across annotation kinds.
func (s SentenceAnnotation) Validate() error {
	n := len(s.Tokens)
	check := func(name string, got, want int, present bool) error {
		if present && got != want {
			return fmt.Errorf("%w: %s has %d entries, want %d", internalerr.ErrInvalidInput, name, got, want)
		}
		return nil
	}

	if err := check("lemmas", len(s.Lemmas), n, s.Lemmas != nil); err != nil {
		return err
	}
	if err := check("pos", len(s.POS), n, s.POS != nil); err != nil {
		return err
	}
	if err := check("ner", len(s.NER), n, s.NER != nil); err != nil {
		return err
	}
	if err := check("offsets", len(s.Offsets), 2*n, s.Offsets != nil); err != nil {
		return err
	}
	if err := check("dep_labels", len(s.DepLabels), n, s.DepLabels != nil); err != nil {
		return err
	}
	if err := check("dep_heads", len(s.DepHeads), n, s.DepHeads != nil); err != nil {
		return err
	}
	for i, h := range s.DepHeads {
		if h < 0 || h > n {
			return fmt.Errorf("%w: dep head %d of token %d out of range", internalerr.ErrInvalidInput, h, i+1)
		}
	}
	return nil
}

// TokenSpan returns the byte offsets of token i.
func (s SentenceAnnotation) TokenSpan(i int) (begin, end int, ok bool) {
	if i < 0 || 2*i+1 >= len(s.Offsets) {
		return 0, 0, false
	}
	return s.Offsets[2*i], s.Offsets[2*i+1], true
}
