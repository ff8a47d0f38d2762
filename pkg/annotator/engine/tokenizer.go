package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a surface token with its byte span in the source text.
type Token struct {
	Text  string
	Begin int
	End   int
}

// Tokenizer splits text into Penn-Treebank-style tokens with byte offsets.
type Tokenizer struct {
	abbreviations map[string]struct{}
}

// NewTokenizer creates a tokenizer; abbreviations are matched case-insensitively
// without their trailing period (e.g. "dr", "etc").
func NewTokenizer(abbreviations []string) *Tokenizer {
	abbrs := make(map[string]struct{}, len(abbreviations))
	for _, a := range abbreviations {
		abbrs[strings.ToLower(strings.TrimSuffix(a, "."))] = struct{}{}
	}
	return &Tokenizer{abbreviations: abbrs}
}

// DefaultAbbreviations are titles and shorthands whose period never ends a sentence.
var DefaultAbbreviations = []string{
	"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st", "mt", "gen", "gov", "sen", "rep",
	"inc", "corp", "ltd", "co", "vs", "etc", "e.g", "i.e", "approx", "dept",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
}

// clitics split off the end of a word, longest first.
var clitics = []string{"n't", "'ll", "'re", "'ve", "'s", "'m", "'d"}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token
	i := 0

	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])

		switch {
		case unicode.IsSpace(r):
			i += size

		case isWordRune(r):
			end := t.scanWord(text, i)
			tokens = append(tokens, splitClitics(text, i, end)...)
			i = end

		default:
			// Punctuation: runs of the same rune ("...", "--", "!!") stay together
			end := i + size
			for end < len(text) {
				next, nsize := utf8.DecodeRuneInString(text[end:])
				if next != r || !strings.ContainsRune(".-!?", r) {
					break
				}
				end += nsize
			}
			tokens = append(tokens, Token{Text: text[i:end], Begin: i, End: end})
			i = end
		}
	}

	return tokens
}

// scanWord returns the end of the word starting at start. Hyphens and
// apostrophes are kept between letters, periods and commas between digits,
// periods between single letters ("U.S", "e.g"), and a trailing period is
// absorbed for initials and known abbreviations.
func (t *Tokenizer) scanWord(text string, start int) int {
	i := start
	segment := 0 // runes since the word start or the last period
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isWordRune(r) {
			i += size
			segment++
			continue
		}
		if i+size < len(text) && isJoiner(r) {
			prev, _ := utf8.DecodeLastRuneInString(text[:i])
			next, _ := utf8.DecodeRuneInString(text[i+size:])
			if joins(prev, r, next, segment) {
				i += size
				if r == '.' {
					segment = 0
				}
				continue
			}
		}
		break
	}

	if i < len(text) && text[i] == '.' {
		word := text[start:i]
		if _, ok := t.abbreviations[strings.ToLower(word)]; ok || isInitial(word) {
			return i + 1
		}
	}
	return i
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isJoiner(r rune) bool {
	switch r {
	case '-', '\'', '’', '.', ',':
		return true
	}
	return false
}

func joins(prev, joiner, next rune, segment int) bool {
	switch joiner {
	case '-', '\'', '’':
		return isWordRune(prev) && unicode.IsLetter(next)
	case ',':
		return unicode.IsDigit(prev) && unicode.IsDigit(next)
	case '.':
		if unicode.IsDigit(prev) && unicode.IsDigit(next) {
			return true
		}
		return segment == 1 && unicode.IsLetter(prev) && unicode.IsLetter(next)
	}
	return false
}

// isInitial reports single capitals and dotted initialisms ("J", "U.S").
func isInitial(word string) bool {
	runes := []rune(word)
	if len(runes) == 0 {
		return false
	}
	// "I." and "A." usually end a sentence rather than abbreviate a name
	if len(runes) == 1 && (runes[0] == 'I' || runes[0] == 'A') {
		return false
	}
	for i, r := range runes {
		if i%2 == 0 && !unicode.IsUpper(r) {
			return false
		}
		if i%2 == 1 && r != '.' {
			return false
		}
	}
	return true
}

// splitClitics separates "don't" into "do" + "n't" and "she's" into "she" + "'s".
func splitClitics(text string, begin, end int) []Token {
	word := text[begin:end]
	lower := strings.ToLower(word)
	for _, c := range clitics {
		for _, form := range []string{c, strings.Replace(c, "'", "’", 1)} {
			if !strings.HasSuffix(lower, form) || len(lower) <= len(form) {
				continue
			}
			cut := end - len(form)
			if cut <= begin {
				continue
			}
			return []Token{
				{Text: text[begin:cut], Begin: begin, End: cut},
				{Text: text[cut:end], Begin: cut, End: end},
			}
		}
	}
	return []Token{{Text: word, Begin: begin, End: end}}
}
