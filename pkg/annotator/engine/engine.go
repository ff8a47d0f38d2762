// Package engine produces per-sentence linguistic annotations for a document.
//
// The Rules engine is a deterministic pipeline of tokenization, sentence
// splitting, part-of-speech tagging, lemmatization, named-entity tagging and
// dependency attachment. Stages are configured by name and run in that fixed
// order; a stage that is not enabled leaves its annotation array nil.
package engine

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
	"github.com/cognicore/annotator/pkg/annotator/lexicon"
)

// Engine annotates one document.
type Engine interface {
	Annotate(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error)
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error)

// Annotate calls f.
func (f Func) Annotate(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error) {
	return f(ctx, text)
}

// Stage names one annotator of the Rules engine.
type Stage string

const (
	StageTokenize Stage = "tokenize"
	StageSsplit   Stage = "ssplit"
	StagePOS      Stage = "pos"
	StageLemma    Stage = "lemma"
	StageNER      Stage = "ner"
	StageDepparse Stage = "depparse"
)

// AllStages lists every stage in execution order.
var AllStages = []Stage{StageTokenize, StageSsplit, StagePOS, StageLemma, StageNER, StageDepparse}

var prerequisites = map[Stage]Stage{
	StageSsplit:   StageTokenize,
	StagePOS:      StageTokenize,
	StageLemma:    StagePOS,
	StageNER:      StageTokenize,
	StageDepparse: StagePOS,
}

// ParseStages parses a comma-separated annotator list such as
// "tokenize,ssplit,pos". Duplicates are ignored.
func ParseStages(list string) ([]Stage, error) {
	var stages []Stage
	seen := make(map[Stage]bool)
	for _, part := range strings.Split(list, ",") {
		name := Stage(strings.ToLower(strings.TrimSpace(part)))
		if name == "" {
			continue
		}
		if !isKnownStage(name) {
			return nil, fmt.Errorf("unknown annotator %q: %w", name, internalerr.ErrInvalidConfig)
		}
		if !seen[name] {
			seen[name] = true
			stages = append(stages, name)
		}
	}
	return stages, nil
}

func isKnownStage(s Stage) bool {
	for _, known := range AllStages {
		if s == known {
			return true
		}
	}
	return false
}

// Options configures the Rules engine.
type Options struct {
	Stages            []Stage
	MaxSentenceLength int // sentences with more tokens are dropped; 0 means no limit
	Lexicon           *lexicon.Lexicon
	Gazetteer         *Gazetteer
	Abbreviations     []string
	Logger            logrus.FieldLogger
}

// Rules is the built-in rule-based engine. It is read-only after New and
// safe for concurrent use.
type Rules struct {
	enabled   map[Stage]bool
	maxLen    int
	tokenizer *Tokenizer
	tagger    Tagger
	lemmas    *Lemmatizer
	ner       *Recognizer
	parser    Parser
	log       logrus.FieldLogger
}

// New validates the stage list and builds the engine.
func New(opts Options) (*Rules, error) {
	if len(opts.Stages) == 0 {
		return nil, fmt.Errorf("no annotators configured: %w", internalerr.ErrInvalidConfig)
	}
	if opts.MaxSentenceLength < 0 {
		return nil, fmt.Errorf("max sentence length must be >= 0, got %d: %w", opts.MaxSentenceLength, internalerr.ErrInvalidConfig)
	}
	enabled := make(map[Stage]bool, len(opts.Stages))
	for _, s := range opts.Stages {
		if !isKnownStage(s) {
			return nil, fmt.Errorf("unknown annotator %q: %w", s, internalerr.ErrInvalidConfig)
		}
		enabled[s] = true
	}
	for _, s := range opts.Stages {
		if req, ok := prerequisites[s]; ok && !enabled[req] {
			return nil, fmt.Errorf("annotator %q requires %q: %w", s, req, internalerr.ErrInvalidConfig)
		}
	}

	abbrs := opts.Abbreviations
	if abbrs == nil {
		abbrs = DefaultAbbreviations
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Rules{
		enabled:   enabled,
		maxLen:    opts.MaxSentenceLength,
		tokenizer: NewTokenizer(abbrs),
		lemmas:    NewLemmatizer(opts.Lexicon),
		ner:       NewRecognizer(opts.Gazetteer),
		log:       log,
	}, nil
}

// Stages returns the enabled stages in execution order.
func (r *Rules) Stages() []Stage {
	var out []Stage
	for _, s := range AllStages {
		if r.enabled[s] {
			out = append(out, s)
		}
	}
	return out
}

// Annotate runs the enabled stages over text.
func (r *Rules) Annotate(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := r.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	spans := [][2]int{{0, len(tokens)}}
	if r.enabled[StageSsplit] {
		spans = SplitSentences(text, tokens)
	}

	sentences := make([]annotation.SentenceAnnotation, 0, len(spans))
	for _, span := range spans {
		sent := tokens[span[0]:span[1]]
		if r.maxLen > 0 && len(sent) > r.maxLen {
			r.log.WithFields(logrus.Fields{
				"tokens": len(sent),
				"limit":  r.maxLen,
				"offset": sent[0].Begin,
			}).Debug("skipping long sentence")
			continue
		}
		s := r.annotateSentence(text, sent)
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("sentence at offset %d: %v: %w", sent[0].Begin, err, internalerr.ErrAnnotation)
		}
		sentences = append(sentences, s)
	}
	return sentences, nil
}

func (r *Rules) annotateSentence(text string, sent []Token) annotation.SentenceAnnotation {
	s := annotation.SentenceAnnotation{
		Sentence: text[sent[0].Begin:sent[len(sent)-1].End],
		Tokens:   make([]string, len(sent)),
		Offsets:  make([]int, 0, 2*len(sent)),
	}
	for i, tok := range sent {
		s.Tokens[i] = tok.Text
		s.Offsets = append(s.Offsets, tok.Begin, tok.End)
	}

	if r.enabled[StagePOS] {
		s.POS = r.tagger.Tag(s.Tokens)
	}
	if r.enabled[StageLemma] {
		s.Lemmas = make([]string, len(s.Tokens))
		for i, tok := range s.Tokens {
			s.Lemmas[i] = r.lemmas.Lemma(tok, s.POS[i])
		}
	}
	if r.enabled[StageNER] {
		s.NER = r.ner.Tag(s.Tokens, s.POS)
	}
	if r.enabled[StageDepparse] {
		s.DepHeads, s.DepLabels = r.parser.Parse(s.Tokens, s.POS)
	}
	return s
}
