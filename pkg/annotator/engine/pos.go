package engine

import (
	"strings"
	"unicode"
)

// closedClass maps function words to their Penn Treebank tag.
var closedClass = map[string]string{
	"the": "DT", "a": "DT", "an": "DT", "this": "DT", "that": "DT", "these": "DT",
	"those": "DT", "every": "DT", "each": "DT", "some": "DT", "any": "DT", "no": "DT",
	"all": "DT", "both": "DT", "another": "DT",

	"of": "IN", "in": "IN", "on": "IN", "at": "IN", "by": "IN", "for": "IN",
	"with": "IN", "from": "IN", "into": "IN", "over": "IN", "under": "IN",
	"about": "IN", "after": "IN", "before": "IN", "between": "IN", "through": "IN",
	"during": "IN", "without": "IN", "because": "IN", "if": "IN", "while": "IN",
	"than": "IN", "as": "IN", "since": "IN", "until": "IN", "near": "IN",
	"to": "TO",

	"and": "CC", "or": "CC", "but": "CC", "nor": "CC", "yet": "CC",

	"i": "PRP", "you": "PRP", "he": "PRP", "she": "PRP", "it": "PRP", "we": "PRP",
	"they": "PRP", "me": "PRP", "him": "PRP", "us": "PRP", "them": "PRP",
	"myself": "PRP", "itself": "PRP", "themselves": "PRP",
	"my": "PRP$", "your": "PRP$", "his": "PRP$", "her": "PRP$", "its": "PRP$",
	"our": "PRP$", "their": "PRP$",

	"can": "MD", "could": "MD", "will": "MD", "would": "MD", "shall": "MD",
	"should": "MD", "may": "MD", "might": "MD", "must": "MD", "'ll": "MD", "'d": "MD",

	"who": "WP", "whom": "WP", "what": "WP", "which": "WDT", "whose": "WP$",
	"when": "WRB", "where": "WRB", "why": "WRB", "how": "WRB",

	"not": "RB", "n't": "RB", "very": "RB", "also": "RB", "just": "RB", "never": "RB",
	"always": "RB", "often": "RB", "too": "RB", "quite": "RB", "here": "RB",
	"now": "RB", "then": "RB", "soon": "RB", "still": "RB", "already": "RB",

	"there": "EX",

	"is": "VBZ", "are": "VBP", "am": "VBP", "was": "VBD", "were": "VBD",
	"be": "VB", "been": "VBN", "being": "VBG", "'m": "VBP", "'re": "VBP", "'ve": "VBP",
	"has": "VBZ", "have": "VBP", "had": "VBD",
	"does": "VBZ", "do": "VBP", "did": "VBD",
	"'s": "POS",
}

// irregularPast lists common past-tense verb forms the suffix rules miss.
var irregularPast = map[string]string{
	"went": "VBD", "ran": "VBD", "came": "VBD", "saw": "VBD", "took": "VBD",
	"made": "VBD", "said": "VBD", "told": "VBD", "found": "VBD", "gave": "VBD",
	"knew": "VBD", "thought": "VBD", "got": "VBD", "left": "VBD", "felt": "VBD",
	"brought": "VBD", "began": "VBD", "kept": "VBD", "held": "VBD", "wrote": "VBD",
	"stood": "VBD", "heard": "VBD", "met": "VBD", "paid": "VBD", "sat": "VBD",
	"spoke": "VBD", "led": "VBD", "grew": "VBD", "lost": "VBD", "fell": "VBD",
	"sent": "VBD", "built": "VBD", "slept": "VBD", "ate": "VBD", "bought": "VBD",
	"sold": "VBD", "won": "VBD", "flew": "VBD", "became": "VBD",
	"gone": "VBN", "taken": "VBN", "seen": "VBN", "given": "VBN", "known": "VBN",
	"written": "VBN", "spoken": "VBN", "eaten": "VBN", "fallen": "VBN", "done": "VBN",
}

var numberWords = map[string]struct{}{
	"zero": {}, "one": {}, "two": {}, "three": {}, "four": {}, "five": {}, "six": {},
	"seven": {}, "eight": {}, "nine": {}, "ten": {}, "eleven": {}, "twelve": {},
	"twenty": {}, "thirty": {}, "hundred": {}, "thousand": {}, "million": {}, "billion": {},
}

var punctTags = map[string]string{
	".": ".", "!": ".", "?": ".", ",": ",", ";": ":", ":": ":", "--": ":", "-": ":",
	"...": ":", "(": "-LRB-", ")": "-RRB-", "[": "-LRB-", "]": "-RRB-",
	"{": "-LRB-", "}": "-RRB-", "\"": "''", "“": "``", "”": "''", "‘": "``",
	"’": "''", "'": "''", "`": "``", "$": "$", "#": "#", "%": "NN", "&": "CC",
}

var adjectiveSuffixes = []string{"ous", "ful", "ive", "able", "ible", "less", "ical", "ish", "ary"}

// Tagger assigns Penn Treebank part-of-speech tags with lexical and suffix rules.
type Tagger struct{}

// Tag returns one tag per token.
func (Tagger) Tag(tokens []string) []string {
	tags := make([]string, len(tokens))
	for i, tok := range tokens {
		prev, prevWord := "", ""
		if i > 0 {
			prev, prevWord = tags[i-1], strings.ToLower(tokens[i-1])
		}
		tags[i] = tagToken(tok, prev, prevWord, i == 0)
	}
	return tags
}

func tagToken(tok, prev, prevWord string, initial bool) string {
	lower := strings.ToLower(tok)

	if tag, ok := punctTags[tok]; ok {
		return tag
	}
	if isPunctuation(tok) {
		return ":"
	}
	if isNumeric(tok) {
		return "CD"
	}
	if _, ok := numberWords[lower]; ok {
		return "CD"
	}
	if tag, ok := closedClass[lower]; ok {
		// "'s" after a pronoun is the copula, after a noun the possessive
		if tag == "POS" && (prev == "PRP" || prev == "EX" || prev == "WP") {
			return "VBZ"
		}
		return tag
	}
	if tag, ok := irregularPast[lower]; ok {
		if tag == "VBD" && isAuxContext(prev) {
			return "VBN"
		}
		return tag
	}

	capitalized := unicode.IsUpper(firstRune(tok))
	if capitalized && (!initial || isAllUpper(tok)) {
		return "NNP"
	}

	switch {
	case prev == "TO" || prev == "MD":
		return "VB"
	case strings.HasSuffix(lower, "ly") && len(lower) > 4:
		return "RB"
	case strings.HasSuffix(lower, "ing") && len(lower) > 4:
		return "VBG"
	case strings.HasSuffix(lower, "ed") && len(lower) > 3:
		if isAuxContext(prev) {
			return "VBN"
		}
		return "VBD"
	case hasAnySuffix(lower, adjectiveSuffixes) && len(lower) > 5:
		return "JJ"
	case strings.HasSuffix(lower, "est") && len(lower) > 5:
		return "JJS"
	}

	if isPluralForm(lower) {
		if prev == "NN" || prev == "NNP" || (prev == "PRP" && singularPronouns[prevWord]) {
			return "VBZ"
		}
		return "NNS"
	}
	if prev == "NNS" || (prev == "PRP" && !singularPronouns[prevWord]) {
		return "VBP"
	}
	if prev == "DT" || prev == "PRP$" || prev == "JJ" || prev == "IN" {
		return "NN"
	}
	if capitalized {
		return "NNP"
	}
	return "NN"
}

func isAuxContext(prev string) bool {
	return prev == "VBZ" || prev == "VBP" || prev == "VBD" || prev == "VB" || prev == "VBN"
}

var singularPronouns = map[string]bool{"he": true, "she": true, "it": true}

func isPluralForm(lower string) bool {
	if len(lower) <= 3 || !strings.HasSuffix(lower, "s") {
		return false
	}
	return !strings.HasSuffix(lower, "ss") && !strings.HasSuffix(lower, "us") && !strings.HasSuffix(lower, "is")
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func isNumeric(tok string) bool {
	digits := 0
	for _, r := range tok {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.' || r == ',' || r == '-':
		default:
			return false
		}
	}
	return digits > 0
}

func isPunctuation(tok string) bool {
	for _, r := range tok {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return tok != ""
}

func isAllUpper(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters > 1
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// IsNounTag reports NN, NNS, NNP and NNPS.
func IsNounTag(tag string) bool { return strings.HasPrefix(tag, "NN") }

// IsVerbTag reports VB* tags.
func IsVerbTag(tag string) bool { return strings.HasPrefix(tag, "VB") }

// IsPunctTag reports punctuation tags.
func IsPunctTag(tag string) bool {
	switch tag {
	case ".", ",", ":", "``", "''", "-LRB-", "-RRB-", "#", "$":
		return true
	}
	return false
}
