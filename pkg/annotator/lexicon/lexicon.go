package lexicon

import (
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon stores lemma mappings for inflected forms:
// - Irregular verbs: went → go, was → be
// - Irregular plurals: children → child, mice → mouse
// - Domain overrides: data → data (blocks the suffix rules)
//
// Lookups are case-insensitive. A form maps to exactly one lemma; a later
// group claiming the same form wins.
type Lexicon struct {
	// lemma -> all forms (including the lemma itself)
	// Example: "go" -> ["go", "goes", "going", "went", "gone"]
	forms map[string][]string

	// form -> lemma
	// Example: "went" -> "go"
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		forms:        make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// LoadFromYAML loads lemma groups from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: go
//	    forms: [goes, going, went, gone]
//	  - lemma: child
//	    forms: [children]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Lemmas {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		lex.AddGroup(entry.Lemma, entry.Forms)
	}

	return lex, nil
}

// AddGroup adds a lemma with its inflected forms.
// If the lemma already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddGroup(lemma string, forms []string) {
	lemma = strings.ToLower(lemma)

	// Clean up old reverse index entries if this lemma already exists
	if old, exists := l.forms[lemma]; exists {
		for _, f := range old {
			if l.reverseIndex[f] == lemma {
				delete(l.reverseIndex, f)
			}
		}
	}

	// Lemma first, then deduplicated forms
	normalized := make([]string, 0, len(forms)+1)
	seen := map[string]bool{lemma: true}
	normalized = append(normalized, lemma)
	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.forms[lemma] = normalized
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// Merge copies every group of other into l; other wins on conflicts.
func (l *Lexicon) Merge(other *Lexicon) {
	if other == nil {
		return
	}
	for lemma, forms := range other.forms {
		l.AddGroup(lemma, forms[1:])
	}
}

// Lookup returns the lemma for a form.
//
// Examples:
//   - Lookup("Went") -> "go", true
//   - Lookup("unknown") -> "", false
func (l *Lexicon) Lookup(form string) (string, bool) {
	lemma, ok := l.reverseIndex[strings.ToLower(form)]
	return lemma, ok
}

// Forms returns all known forms of a lemma, lemma first.
func (l *Lexicon) Forms(lemma string) []string {
	return l.forms[strings.ToLower(lemma)]
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	return Stats{Lemmas: len(l.forms), Forms: len(l.reverseIndex)}
}

// Lemmas returns every lemma in sorted order.
func (l *Lexicon) Lemmas() []string {
	out := make([]string, 0, len(l.forms))
	for lemma := range l.forms {
		out = append(out, lemma)
	}
	sort.Strings(out)
	return out
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Lemmas int // Number of lemma groups
	Forms  int // Number of distinct forms, lemmas included
}
