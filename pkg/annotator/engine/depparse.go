package engine

import "strings"

// Parser assigns dependency heads and labels from part-of-speech tags with
// deterministic attachment rules. Heads are 1-based; 0 is the root.
type Parser struct{}

var auxWords = map[string]struct{}{
	"is": {}, "are": {}, "am": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"has": {}, "have": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"'s": {}, "'re": {}, "'m": {}, "'ve": {}, "'d": {},
}

// Parse returns heads and labels for one sentence.
func (Parser) Parse(tokens, pos []string) ([]int, []string) {
	n := len(tokens)
	heads := make([]int, n)
	labels := make([]string, n)
	if n == 0 {
		return heads, labels
	}

	p := parse{tokens: tokens, pos: pos, heads: heads, labels: labels}
	p.markAux()
	p.root = p.findRoot()
	for i := range tokens {
		p.attach(i)
	}
	for i := range heads {
		if heads[i] == i+1 {
			heads[i], labels[i] = p.root+1, "dep"
		}
	}
	return heads, labels
}

type parse struct {
	tokens []string
	pos    []string
	heads  []int
	labels []string
	aux    []bool
	root   int
}

func (p *parse) set(i, head int, label string) {
	p.heads[i] = head + 1
	p.labels[i] = label
}

// markAux flags modals and be/have/do forms that precede another verb.
func (p *parse) markAux() {
	p.aux = make([]bool, len(p.tokens))
	for i, tag := range p.pos {
		_, auxWord := auxWords[strings.ToLower(p.tokens[i])]
		if tag != "MD" && !(auxWord && IsVerbTag(tag)) {
			continue
		}
		if j := p.nextVerb(i); j >= 0 && j-i <= 3 && !p.between(i, j, isNominal) {
			p.aux[i] = true
		}
	}
}

func (p *parse) findRoot() int {
	for i, tag := range p.pos {
		if IsVerbTag(tag) && !p.aux[i] {
			return i
		}
	}
	for i, tag := range p.pos {
		if IsNounTag(tag) && p.nextNoun(i) < 0 {
			return i
		}
	}
	for i, tag := range p.pos {
		if !IsPunctTag(tag) {
			return i
		}
	}
	return 0
}

func (p *parse) attach(i int) {
	tag := p.pos[i]
	switch {
	case i == p.root:
		p.heads[i], p.labels[i] = 0, "root"
	case IsPunctTag(tag):
		p.set(i, p.root, "punct")
	case p.aux[i]:
		p.set(i, p.nextVerb(i), "aux")
	case tag == "POS":
		if i > 0 {
			p.set(i, i-1, "case")
		} else {
			p.set(i, p.root, "dep")
		}
	case tag == "DT" || tag == "PDT" || (tag == "WDT" && p.nextNoun(i) == i+1):
		p.toNoun(i, "det")
	case tag == "PRP$" || tag == "WP$":
		p.toNoun(i, "nmod:poss")
	case strings.HasPrefix(tag, "JJ"):
		p.toNoun(i, "amod")
	case tag == "CD" && p.nextNoun(i) >= 0 && p.nextNoun(i) <= i+2:
		p.toNoun(i, "nummod")
	case strings.HasPrefix(tag, "RB"):
		p.set(i, p.nearestVerb(i), "advmod")
	case tag == "TO" && i+1 < len(p.pos) && IsVerbTag(p.pos[i+1]):
		p.set(i, i+1, "mark")
	case tag == "IN" || tag == "TO":
		if j := p.nextNoun(i); j >= 0 {
			p.set(i, p.npHead(j), "case")
		} else {
			p.set(i, p.root, "dep")
		}
	case tag == "CC":
		if j := p.nextContent(i); j >= 0 {
			p.set(i, j, "cc")
		} else {
			p.set(i, p.root, "cc")
		}
	case isNominal(tag) || tag == "CD":
		p.attachNominal(i)
	case IsVerbTag(tag):
		p.attachVerb(i)
	default:
		p.set(i, p.root, "dep")
	}
}

func (p *parse) attachNominal(i int) {
	if IsNounTag(p.pos[i]) && i+1 < len(p.pos) && IsNounTag(p.pos[i+1]) {
		p.set(i, p.npHead(i), "compound")
		return
	}
	if i+2 < len(p.pos) && p.pos[i+1] == "POS" {
		if j := p.nextNoun(i + 1); j >= 0 {
			p.set(i, p.npHead(j), "nmod:poss")
			return
		}
	}
	if c := p.conjunctBefore(i, isNominal); c >= 0 {
		p.set(i, c, "conj")
		return
	}
	if prep := p.governingPrep(i); prep >= 0 {
		if h := p.attachmentBefore(prep); h >= 0 {
			p.set(i, h, "nmod")
			return
		}
	}
	if v := p.nextMainVerb(i); v >= 0 && p.clauseInitial(i) {
		p.set(i, v, "nsubj")
		return
	}
	if v := p.prevMainVerb(i); v >= 0 {
		p.set(i, v, "dobj")
		return
	}
	if v := p.nextMainVerb(i); v >= 0 {
		p.set(i, v, "nsubj")
		return
	}
	p.set(i, p.root, "dep")
}

func (p *parse) attachVerb(i int) {
	if i > 0 && p.pos[i-1] == "TO" {
		if v := p.prevMainVerb(i - 1); v >= 0 {
			p.set(i, v, "xcomp")
			return
		}
	}
	if c := p.conjunctBefore(i, IsVerbTag); c >= 0 {
		p.set(i, c, "conj")
		return
	}
	if c := p.clauseConjunct(i); c >= 0 {
		p.set(i, c, "conj")
		return
	}
	p.set(i, p.root, "dep")
}

// clauseInitial reports whether the noun phrase containing i opens a
// clause: it is preceded by nothing, or by a conjunction or comma before
// any verb.
func (p *parse) clauseInitial(i int) bool {
	for j := i - 1; j >= 0; j-- {
		tag := p.pos[j]
		switch {
		case IsVerbTag(tag):
			return false
		case tag == "CC" || tag == "," || tag == ":":
			return true
		}
	}
	return true
}

// clauseConjunct returns the verb of the preceding clause when a
// conjunction separates it from verb i, as in "the dog barked and the cat ran".
func (p *parse) clauseConjunct(i int) int {
	for j := i - 1; j >= 0; j-- {
		tag := p.pos[j]
		if IsVerbTag(tag) {
			return -1
		}
		if tag == "CC" || tag == "," || tag == ":" {
			return p.prevMainVerb(j)
		}
	}
	return -1
}

func (p *parse) toNoun(i int, label string) {
	if j := p.nextNoun(i); j >= 0 && !p.between(i, j, IsVerbTag) {
		p.set(i, p.npHead(j), label)
		return
	}
	p.set(i, p.root, "dep")
}

// npHead returns the last noun of the compound run starting at i.
func (p *parse) npHead(i int) int {
	for IsNounTag(p.pos[i]) && i+1 < len(p.pos) && IsNounTag(p.pos[i+1]) {
		i++
	}
	return i
}

func (p *parse) nextNoun(i int) int {
	for j := i + 1; j < len(p.pos); j++ {
		tag := p.pos[j]
		if isNominal(tag) {
			return j
		}
		if IsVerbTag(tag) || IsPunctTag(tag) || tag == "CC" || tag == "IN" {
			return -1
		}
	}
	return -1
}

func (p *parse) nextVerb(i int) int {
	for j := i + 1; j < len(p.pos); j++ {
		if IsVerbTag(p.pos[j]) {
			return j
		}
		if IsPunctTag(p.pos[j]) {
			return -1
		}
	}
	return -1
}

func (p *parse) nextMainVerb(i int) int {
	for j := i + 1; j < len(p.pos); j++ {
		if IsVerbTag(p.pos[j]) && !p.aux[j] {
			return j
		}
	}
	return -1
}

func (p *parse) prevMainVerb(i int) int {
	for j := i - 1; j >= 0; j-- {
		if IsVerbTag(p.pos[j]) && !p.aux[j] {
			return j
		}
	}
	return -1
}

func (p *parse) nearestVerb(i int) int {
	if v := p.nextMainVerb(i); v >= 0 && (i+1 == v || p.pos[v-1] == "RB" || p.aux[v-1]) {
		return v
	}
	if v := p.prevMainVerb(i); v >= 0 {
		return v
	}
	return p.root
}

func (p *parse) nextContent(i int) int {
	for j := i + 1; j < len(p.pos); j++ {
		tag := p.pos[j]
		if isNominal(tag) || IsVerbTag(tag) || strings.HasPrefix(tag, "JJ") {
			return p.contentHead(j)
		}
	}
	return -1
}

func (p *parse) contentHead(j int) int {
	if isNominal(p.pos[j]) {
		return p.npHead(j)
	}
	if strings.HasPrefix(p.pos[j], "JJ") {
		if k := p.nextNoun(j); k >= 0 {
			return p.npHead(k)
		}
	}
	return j
}

// conjunctBefore finds the first conjunct of i when i follows a
// coordinating conjunction, e.g. "cats and dogs".
func (p *parse) conjunctBefore(i int, class func(string) bool) int {
	cc := -1
	for j := i - 1; j >= 0; j-- {
		tag := p.pos[j]
		if tag == "CC" {
			cc = j
			break
		}
		if tag != "DT" && tag != "PRP$" && !strings.HasPrefix(tag, "JJ") && tag != "CD" && tag != "RB" {
			return -1
		}
	}
	for j := cc - 1; j >= 0 && cc > 0; j-- {
		tag := p.pos[j]
		if tag == "," {
			continue
		}
		if class(tag) {
			if isNominal(tag) {
				return p.npHead(j)
			}
			return j
		}
		return -1
	}
	return -1
}

// governingPrep returns the preposition that introduces the noun phrase
// containing i.
func (p *parse) governingPrep(i int) int {
	for j := i - 1; j >= 0; j-- {
		tag := p.pos[j]
		switch {
		case tag == "IN" || tag == "TO":
			return j
		case tag == "DT" || tag == "PRP$" || strings.HasPrefix(tag, "JJ") || tag == "CD" || isNominal(tag) || tag == "POS":
			continue
		default:
			return -1
		}
	}
	return -1
}

// attachmentBefore finds what a prepositional phrase at prep modifies: the
// closest preceding noun phrase head or verb.
func (p *parse) attachmentBefore(prep int) int {
	for j := prep - 1; j >= 0; j-- {
		tag := p.pos[j]
		if isNominal(tag) {
			return p.npHead(j)
		}
		if IsVerbTag(tag) {
			if p.aux[j] {
				return p.nextMainVerb(j)
			}
			return j
		}
	}
	return p.root
}

func (p *parse) between(i, j int, class func(string) bool) bool {
	for k := i + 1; k < j; k++ {
		if class(p.pos[k]) {
			return true
		}
	}
	return false
}

func isNominal(tag string) bool {
	return IsNounTag(tag) || tag == "PRP" || tag == "WP" || tag == "EX"
}
