package engine

import "strings"

// sentenceEnders terminate a sentence when they appear as a whole token.
var sentenceEnders = map[string]struct{}{
	".": {}, "!": {}, "?": {}, "...": {},
}

// closers trail a terminator and still belong to the ending sentence.
var closers = map[string]struct{}{
	"\"": {}, "'": {}, ")": {}, "]": {}, "}": {}, "’": {}, "”": {}, "»": {},
}

// SplitSentences groups tokens into sentences. A sentence ends after a
// terminal punctuation token plus any closing quotes or brackets, or at a
// paragraph break (two or more newlines between tokens).
// It returns [from, to) token index ranges.
func SplitSentences(text string, tokens []Token) [][2]int {
	var spans [][2]int
	from := 0

	for i := 0; i < len(tokens); i++ {
		end := i + 1
		boundary := false

		if isSentenceEnder(tokens[i].Text) {
			for end < len(tokens) && isCloser(tokens[end].Text) && tokens[end].Begin == tokens[end-1].End {
				end++
			}
			boundary = true
		} else if end < len(tokens) && isParagraphBreak(text[tokens[i].End:tokens[end].Begin]) {
			boundary = true
		}

		if boundary {
			spans = append(spans, [2]int{from, end})
			from = end
			i = end - 1
		}
	}

	if from < len(tokens) {
		spans = append(spans, [2]int{from, len(tokens)})
	}
	return spans
}

func isSentenceEnder(tok string) bool {
	if _, ok := sentenceEnders[tok]; ok {
		return true
	}
	// Longer runs of the same terminator ("!!!", "....")
	return len(tok) > 1 && strings.Trim(tok, "!?.") == ""
}

func isCloser(tok string) bool {
	_, ok := closers[tok]
	return ok
}

func isParagraphBreak(gap string) bool {
	return strings.Count(gap, "\n") >= 2
}
