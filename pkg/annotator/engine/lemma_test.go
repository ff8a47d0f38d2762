package engine

import (
	"testing"

	"github.com/cognicore/annotator/pkg/annotator/lexicon"
)

func TestLemma(t *testing.T) {
	l := NewLemmatizer(nil)

	tests := []struct {
		tok, tag, want string
	}{
		{"cats", "NNS", "cat"},
		{"boxes", "NNS", "box"},
		{"cities", "NNS", "city"},
		{"children", "NNS", "child"},
		{"running", "VBG", "run"},
		{"hoping", "VBG", "hope"},
		{"falling", "VBG", "fall"},
		{"stopped", "VBD", "stop"},
		{"created", "VBN", "create"},
		{"walked", "VBD", "walk"},
		{"agreed", "VBD", "agree"},
		{"was", "VBD", "be"},
		{"bigger", "JJR", "big"},
		{"Paris", "NNP", "Paris"},
		{"The", "DT", "the"},
		{"n't", "RB", "not"},
		{"'s", "POS", "'s"},
		{"'s", "VBZ", "be"},
		{"3", "CD", "3"},
		{".", ".", "."},
	}

	for _, tt := range tests {
		if got := l.Lemma(tt.tok, tt.tag); got != tt.want {
			t.Errorf("Lemma(%q, %q) = %q, want %q", tt.tok, tt.tag, got, tt.want)
		}
	}
}

func TestLemmaCustomLexicon(t *testing.T) {
	lex := lexicon.New()
	lex.AddGroup("octopus", []string{"octopi"})
	l := NewLemmatizer(lex)

	if got := l.Lemma("Octopi", "NNS"); got != "octopus" {
		t.Errorf("Expected lexicon lemma octopus, got %q", got)
	}
	// the default irregulars are not loaded when a lexicon is supplied
	if got := l.Lemma("went", "VBD"); got != "went" {
		t.Errorf("Expected went unchanged without default lexicon, got %q", got)
	}
}
