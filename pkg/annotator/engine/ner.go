package engine

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Outside is the tag for tokens that are not part of an entity.
const Outside = "O"

// Gazetteer recognizes known multi-word entity names.
type Gazetteer struct {
	dict   map[string]string // lowercase phrase -> entity type
	maxLen int
}

// NewGazetteer creates an empty gazetteer.
func NewGazetteer() *Gazetteer {
	return &Gazetteer{dict: make(map[string]string), maxLen: 1}
}

// Add registers phrases under an entity type. A later Add for the same
// phrase wins.
func (g *Gazetteer) Add(entityType string, phrases []string) {
	for _, p := range phrases {
		key := strings.ToLower(strings.Join(strings.Fields(p), " "))
		if key == "" {
			continue
		}
		g.dict[key] = entityType
		if l := phraseLen(key); l > g.maxLen {
			g.maxLen = l
		}
	}
}

// Merge copies every phrase of other into g.
func (g *Gazetteer) Merge(other *Gazetteer) {
	if other == nil {
		return
	}
	for phrase, typ := range other.dict {
		g.dict[phrase] = typ
	}
	if other.maxLen > g.maxLen {
		g.maxLen = other.maxLen
	}
}

// Len returns the number of phrases.
func (g *Gazetteer) Len() int { return len(g.dict) }

// Types returns the distinct entity types, sorted.
func (g *Gazetteer) Types() []string {
	seen := make(map[string]struct{})
	for _, typ := range g.dict {
		seen[typ] = struct{}{}
	}
	types := make([]string, 0, len(seen))
	for typ := range seen {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

type gazetteerFile struct {
	Entities map[string][]string `yaml:"entities"`
}

// LoadGazetteer reads a YAML file of the form
//
//	entities:
//	  LOCATION: [New York, Paris]
//	  ORGANIZATION: [United Nations]
func LoadGazetteer(path string) (*Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer: %w", err)
	}
	var file gazetteerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gazetteer %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
	}
	g := NewGazetteer()
	types := make([]string, 0, len(file.Entities))
	for typ := range file.Entities {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		g.Add(strings.ToUpper(typ), file.Entities[typ])
	}
	return g, nil
}

// match applies greedy longest-match at every position and writes the
// entity type into tags for matched spans. Spans must start capitalized.
func (g *Gazetteer) match(tokens, tags []string) {
	i := 0
	for i < len(tokens) {
		if !startsUpper(tokens[i]) {
			i++
			continue
		}
		maxPhrase := g.maxLen
		if remaining := len(tokens) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		matchLen := 0
		for n := maxPhrase; n >= 1; n-- {
			key := strings.ToLower(strings.Join(tokens[i:i+n], " "))
			if typ, ok := g.dict[key]; ok {
				for j := i; j < i+n; j++ {
					tags[j] = typ
				}
				matchLen = n
				break
			}
		}
		if matchLen == 0 {
			matchLen = 1
		}
		i += matchLen
	}
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 1
	}
	return len(strings.Fields(phrase))
}

var (
	personTitles = map[string]struct{}{
		"mr.": {}, "mrs.": {}, "ms.": {}, "dr.": {}, "prof.": {}, "sen.": {}, "gov.": {},
		"gen.": {}, "rep.": {}, "mr": {}, "mrs": {}, "ms": {}, "dr": {}, "president": {},
		"minister": {}, "judge": {}, "sir": {}, "lady": {}, "king": {}, "queen": {},
	}
	orgSuffixes = map[string]struct{}{
		"inc.": {}, "inc": {}, "corp.": {}, "corp": {}, "ltd": {}, "ltd.": {}, "co.": {},
		"llc": {}, "plc": {}, "gmbh": {}, "company": {}, "corporation": {},
		"university": {}, "bank": {}, "group": {}, "institute": {}, "agency": {},
	}
	locationPreps = map[string]struct{}{"in": {}, "at": {}, "from": {}, "to": {}, "near": {}}
	months        = map[string]struct{}{
		"january": {}, "february": {}, "march": {}, "april": {}, "may": {}, "june": {},
		"july": {}, "august": {}, "september": {}, "october": {}, "november": {},
		"december": {}, "jan.": {}, "feb.": {}, "mar.": {}, "apr.": {}, "jun.": {},
		"jul.": {}, "aug.": {}, "sep.": {}, "sept.": {}, "oct.": {}, "nov.": {}, "dec.": {},
	}
	weekdays = map[string]struct{}{
		"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {},
		"saturday": {}, "sunday": {}, "today": {}, "yesterday": {}, "tomorrow": {},
	}
	currencySigns = map[string]struct{}{"$": {}, "€": {}, "£": {}, "¥": {}}
)

// Recognizer tags named entities with a gazetteer and surface rules.
type Recognizer struct {
	gaz *Gazetteer
}

// NewRecognizer creates a recognizer. A nil gazetteer uses DefaultGazetteer().
func NewRecognizer(gaz *Gazetteer) *Recognizer {
	if gaz == nil {
		gaz = DefaultGazetteer()
	}
	return &Recognizer{gaz: gaz}
}

// Tag returns one entity tag per token. pos may be nil, in which case
// proper nouns are guessed from capitalization.
func (r *Recognizer) Tag(tokens, pos []string) []string {
	tags := make([]string, len(tokens))
	for i := range tags {
		tags[i] = Outside
	}
	r.gaz.match(tokens, tags)
	tagTemporalAndNumeric(tokens, tags)
	tagProperRuns(tokens, pos, tags)
	return tags
}

func tagTemporalAndNumeric(tokens, tags []string) {
	for i, tok := range tokens {
		if tags[i] != Outside {
			continue
		}
		lower := strings.ToLower(tok)
		if _, ok := weekdays[lower]; ok && (startsUpper(tok) || lower == "today" || lower == "yesterday" || lower == "tomorrow") {
			tags[i] = "DATE"
			continue
		}
		if _, ok := months[lower]; ok && startsUpper(tok) {
			// "May" alone is too ambiguous; require an adjacent number
			if lower == "may" && !adjacentNumber(tokens, i) {
				continue
			}
			tags[i] = "DATE"
			for j := i + 1; j < len(tokens) && j <= i+3; j++ {
				if isNumeric(tokens[j]) || (tokens[j] == "," && j+1 < len(tokens) && isYear(tokens[j+1])) {
					tags[j] = "DATE"
					continue
				}
				break
			}
			if i > 0 && isNumeric(tokens[i-1]) && tags[i-1] == Outside {
				tags[i-1] = "DATE"
			}
			continue
		}
		if !isNumeric(tok) {
			if _, ok := numberWords[lower]; !ok {
				continue
			}
		}
		switch {
		case i > 0 && isCurrency(tokens[i-1]):
			tags[i-1] = "MONEY"
			tags[i] = "MONEY"
		case i+1 < len(tokens) && (tokens[i+1] == "%" || strings.EqualFold(tokens[i+1], "percent")):
			tags[i] = "PERCENT"
			tags[i+1] = "PERCENT"
		case isYear(tok) && i > 0 && isTemporalPrep(tokens[i-1]):
			tags[i] = "DATE"
		default:
			tags[i] = "NUMBER"
		}
	}
}

func tagProperRuns(tokens, pos, tags []string) {
	i := 0
	for i < len(tokens) {
		if tags[i] != Outside || !isProper(tokens, pos, i) {
			i++
			continue
		}
		start := i
		for i < len(tokens) && tags[i] == Outside && isProper(tokens, pos, i) {
			i++
		}
		end := i
		for start < end-1 && isTitle(tokens[start]) {
			start++
		}
		typ := classifyRun(tokens, start, end)
		if typ == "" {
			continue
		}
		for j := start; j < end; j++ {
			tags[j] = typ
		}
	}
}

func classifyRun(tokens []string, start, end int) string {
	if start > 0 && isTitle(tokens[start-1]) {
		return "PERSON"
	}
	if _, ok := orgSuffixes[strings.ToLower(tokens[end-1])]; ok && end-start > 1 {
		return "ORGANIZATION"
	}
	if start > 0 {
		if _, ok := locationPreps[strings.ToLower(tokens[start-1])]; ok {
			return "LOCATION"
		}
	}
	if end-start >= 2 {
		return "PERSON"
	}
	return ""
}

func isTitle(tok string) bool {
	_, ok := personTitles[strings.ToLower(tok)]
	return ok
}

func isProper(tokens, pos []string, i int) bool {
	if pos != nil {
		return pos[i] == "NNP" || pos[i] == "NNPS"
	}
	// without tags, a capitalized word at the start of a sentence is ambiguous
	return i > 0 && startsUpper(tokens[i]) && !isPunctuation(tokens[i])
}

func adjacentNumber(tokens []string, i int) bool {
	return (i > 0 && isNumeric(tokens[i-1])) || (i+1 < len(tokens) && isNumeric(tokens[i+1]))
}

func isYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return tok >= "1000" && tok <= "2199"
}

func isTemporalPrep(tok string) bool {
	switch strings.ToLower(tok) {
	case "in", "since", "until", "by", "during", "before", "after":
		return true
	}
	return false
}

func isCurrency(tok string) bool {
	_, ok := currencySigns[tok]
	return ok
}

func startsUpper(tok string) bool {
	return unicode.IsUpper(firstRune(tok))
}
