package engine

import (
	"strings"

	"github.com/cognicore/annotator/pkg/annotator/lexicon"
)

// Lemmatizer maps a token and its tag to a dictionary form.
// Irregular forms come from the lexicon, the rest from suffix rules.
type Lemmatizer struct {
	lex *lexicon.Lexicon
}

// NewLemmatizer creates a lemmatizer. A nil lexicon uses lexicon.Default().
func NewLemmatizer(lex *lexicon.Lexicon) *Lemmatizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Lemmatizer{lex: lex}
}

var cliticLemmas = map[string]string{
	"n't": "not",
	"'ll": "will",
	"'d":  "would",
}

// Lemma returns the lemma of tok given its part-of-speech tag.
func (l *Lemmatizer) Lemma(tok, tag string) string {
	switch {
	case tag == "NNP" || tag == "NNPS":
		return tok
	case tag == "POS":
		return "'s"
	case tag == "CD" || IsPunctTag(tag):
		return tok
	}

	lower := strings.ToLower(strings.ReplaceAll(tok, "’", "'"))
	if lemma, ok := cliticLemmas[lower]; ok {
		return lemma
	}
	if lemma, ok := l.lex.Lookup(lower); ok {
		return lemma
	}

	switch tag {
	case "NNS", "VBZ":
		return stripPlural(lower)
	case "VBG":
		if stem, ok := trimSuffix(lower, "ing", 2); ok {
			return restoreStem(stem)
		}
	case "VBD", "VBN":
		if stem, ok := trimSuffix(lower, "ied", 2); ok {
			return stem + "y"
		}
		if strings.HasSuffix(lower, "eed") && len(lower) > 4 {
			return lower[:len(lower)-1]
		}
		if stem, ok := trimSuffix(lower, "ed", 2); ok {
			return restoreStem(stem)
		}
	case "JJR", "RBR":
		if stem, ok := trimSuffix(lower, "er", 2); ok {
			return undouble(stem)
		}
	case "JJS", "RBS":
		if stem, ok := trimSuffix(lower, "est", 2); ok {
			return undouble(stem)
		}
	}
	return lower
}

func stripPlural(s string) string {
	if stem, ok := trimSuffix(s, "ies", 2); ok {
		return stem + "y"
	}
	for _, suf := range []string{"sses", "ches", "shes", "xes", "zes", "oes"} {
		if strings.HasSuffix(s, suf) && len(s) > len(suf) {
			return s[:len(s)-2]
		}
	}
	if strings.HasSuffix(s, "ss") || strings.HasSuffix(s, "us") || strings.HasSuffix(s, "is") {
		return s
	}
	if stem, ok := trimSuffix(s, "s", 2); ok {
		return stem
	}
	return s
}

func trimSuffix(s, suffix string, minStem int) (string, bool) {
	if !strings.HasSuffix(s, suffix) || len(s)-len(suffix) < minStem {
		return s, false
	}
	return s[:len(s)-len(suffix)], true
}

// restoreStem undoes consonant doubling and the dropped final e of
// -ing and -ed forms: running -> run, making -> make, created -> create.
func restoreStem(stem string) string {
	if u := undouble(stem); u != stem {
		return u
	}
	for _, suf := range []string{"at", "bl", "iz", "v", "c", "dg"} {
		if strings.HasSuffix(stem, suf) {
			return stem + "e"
		}
	}
	if len(stem) == 3 && isCVC(stem) {
		return stem + "e"
	}
	return stem
}

func undouble(stem string) string {
	n := len(stem)
	if n < 3 || stem[n-1] != stem[n-2] || isVowel(stem[n-1]) {
		return stem
	}
	switch stem[n-1] {
	case 'l', 's', 'z', 'f':
		return stem
	}
	return stem[:n-1]
}

func isCVC(s string) bool {
	n := len(s)
	c := s[n-1]
	return !isVowel(s[n-3]) && isVowel(s[n-2]) && !isVowel(c) && c != 'w' && c != 'x' && c != 'y'
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}
