package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/annotation"
	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

func mustEngine(t *testing.T, opts Options) *Rules {
	t.Helper()
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestParseStages(t *testing.T) {
	stages, err := ParseStages(" tokenize, ssplit,POS,pos ,")
	if err != nil {
		t.Fatalf("ParseStages failed: %v", err)
	}
	want := []Stage{StageTokenize, StageSsplit, StagePOS}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("Expected %v, got %v", want, stages)
	}

	if _, err := ParseStages("tokenize,parse"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unknown stage, got %v", err)
	}
}

func TestNewValidatesStages(t *testing.T) {
	tests := []struct {
		name   string
		stages []Stage
	}{
		{"empty", nil},
		{"pos without tokenize", []Stage{StagePOS}},
		{"lemma without pos", []Stage{StageTokenize, StageLemma}},
		{"depparse without pos", []Stage{StageTokenize, StageDepparse}},
		{"unknown", []Stage{StageTokenize, "coref"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Options{Stages: tt.stages}); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := New(Options{Stages: []Stage{StageTokenize}, MaxSentenceLength: -1}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for negative length, got %v", err)
	}
}

func TestStagesOrdered(t *testing.T) {
	e := mustEngine(t, Options{Stages: []Stage{StageNER, StagePOS, StageTokenize}})
	want := []Stage{StageTokenize, StagePOS, StageNER}
	if got := e.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAnnotateTokenizeSsplit(t *testing.T) {
	e := mustEngine(t, Options{Stages: []Stage{StageTokenize, StageSsplit}})

	sents, err := e.Annotate(context.Background(), "Cats run. Dogs sleep.")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(sents) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(sents))
	}
	if sents[0].Sentence != "Cats run." || sents[1].Sentence != "Dogs sleep." {
		t.Errorf("Unexpected sentences %q, %q", sents[0].Sentence, sents[1].Sentence)
	}
	if want := []string{"Cats", "run", "."}; !reflect.DeepEqual(sents[0].Tokens, want) {
		t.Errorf("Expected tokens %q, got %q", want, sents[0].Tokens)
	}
	if want := []int{10, 14, 15, 20, 20, 21}; !reflect.DeepEqual(sents[1].Offsets, want) {
		t.Errorf("Expected offsets %v, got %v", want, sents[1].Offsets)
	}
	if sents[0].POS != nil || sents[0].Lemmas != nil || sents[0].NER != nil || sents[0].DepHeads != nil {
		t.Error("Disabled stages should leave their arrays nil")
	}
}

func TestAnnotateWithoutSsplit(t *testing.T) {
	e := mustEngine(t, Options{Stages: []Stage{StageTokenize}})

	sents, err := e.Annotate(context.Background(), "Cats run. Dogs sleep.")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(sents) != 1 {
		t.Fatalf("Expected 1 sentence, got %d", len(sents))
	}
	if len(sents[0].Tokens) != 6 {
		t.Errorf("Expected 6 tokens, got %d", len(sents[0].Tokens))
	}
}

func TestAnnotateAllStages(t *testing.T) {
	stages, _ := ParseStages("tokenize,ssplit,pos,lemma,ner,depparse")
	e := mustEngine(t, Options{Stages: stages})

	text := "Mr. Smith visited Paris in 2019. The children were running to school!"
	sents, err := e.Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(sents) != 2 {
		t.Fatalf("Expected 2 sentences, got %d", len(sents))
	}

	for _, s := range sents {
		if err := s.Validate(); err != nil {
			t.Errorf("Sentence %q failed validation: %v", s.Sentence, err)
		}
		for i, tok := range s.Tokens {
			b, e, _ := s.TokenSpan(i)
			if text[b:e] != tok {
				t.Errorf("Token %q does not match text span %q", tok, text[b:e])
			}
		}
	}

	first := sents[0]
	if first.NER[1] != "PERSON" || first.NER[3] != "LOCATION" || first.NER[5] != "DATE" {
		t.Errorf("Unexpected NER tags %q", first.NER)
	}
	second := sents[1]
	if second.Lemmas[1] != "child" || second.Lemmas[2] != "be" || second.Lemmas[3] != "run" {
		t.Errorf("Unexpected lemmas %q", second.Lemmas)
	}
}

func TestAnnotateMaxSentenceLength(t *testing.T) {
	e := mustEngine(t, Options{Stages: []Stage{StageTokenize, StageSsplit}, MaxSentenceLength: 3})

	sents, err := e.Annotate(context.Background(), "This one is far too long. Short one.")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(sents) != 1 || sents[0].Sentence != "Short one." {
		t.Errorf("Expected only the short sentence, got %+v", sents)
	}
}

func TestAnnotateEmpty(t *testing.T) {
	e := mustEngine(t, Options{Stages: []Stage{StageTokenize, StageSsplit}})
	sents, err := e.Annotate(context.Background(), "  \n ")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if len(sents) != 0 {
		t.Errorf("Expected no sentences, got %d", len(sents))
	}
}

func TestAnnotateCanceled(t *testing.T) {
	e := mustEngine(t, Options{Stages: []Stage{StageTokenize}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Annotate(ctx, "text"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestFuncAdapter(t *testing.T) {
	var e Engine = Func(func(ctx context.Context, text string) ([]annotation.SentenceAnnotation, error) {
		return []annotation.SentenceAnnotation{{Sentence: text}}, nil
	})
	sents, err := e.Annotate(context.Background(), "x")
	if err != nil || len(sents) != 1 || sents[0].Sentence != "x" {
		t.Errorf("Unexpected result %v, %v", sents, err)
	}
}
