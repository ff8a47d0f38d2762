package lexicon

// Default returns a lexicon of common English irregular forms.
func Default() *Lexicon {
	lex := New()
	for lemma, forms := range irregular {
		lex.AddGroup(lemma, forms)
	}
	return lex
}

var irregular = map[string][]string{
	"be":     {"am", "is", "are", "was", "were", "been", "being", "'s", "'m", "'re"},
	"have":   {"has", "had", "having", "'ve"},
	"do":     {"does", "did", "done", "doing"},
	"go":     {"goes", "went", "gone", "going"},
	"say":    {"says", "said"},
	"make":   {"makes", "made", "making"},
	"take":   {"takes", "took", "taken", "taking"},
	"see":    {"sees", "saw", "seen", "seeing"},
	"come":   {"comes", "came", "coming"},
	"know":   {"knows", "knew", "known"},
	"get":    {"gets", "got", "gotten", "getting"},
	"give":   {"gives", "gave", "given", "giving"},
	"find":   {"finds", "found"},
	"think":  {"thinks", "thought"},
	"tell":   {"tells", "told"},
	"become": {"becomes", "became"},
	"leave":  {"leaves", "left"},
	"feel":   {"feels", "felt"},
	"bring":  {"brings", "brought"},
	"begin":  {"begins", "began", "begun"},
	"keep":   {"keeps", "kept"},
	"hold":   {"holds", "held"},
	"write":  {"writes", "wrote", "written"},
	"stand":  {"stands", "stood"},
	"hear":   {"hears", "heard"},
	"meet":   {"meets", "met"},
	"run":    {"runs", "ran", "running"},
	"pay":    {"pays", "paid"},
	"sit":    {"sits", "sat", "sitting"},
	"speak":  {"speaks", "spoke", "spoken"},
	"lie":    {"lies", "lay", "lain", "lying"},
	"lead":   {"leads", "led"},
	"use":    {"uses", "used", "using"},
	"read":   {"reads", "reading"},
	"grow":   {"grows", "grew", "grown"},
	"lose":   {"loses", "lost"},
	"fall":   {"falls", "fell", "fallen"},
	"send":   {"sends", "sent"},
	"build":  {"builds", "built"},
	"sleep":  {"sleeps", "slept"},
	"eat":    {"eats", "ate", "eaten"},
	"buy":    {"buys", "bought"},
	"sell":   {"sells", "sold"},
	"win":    {"wins", "won", "winning"},
	"fly":    {"flies", "flew", "flown"},
	"child":  {"children"},
	"man":    {"men"},
	"woman":  {"women"},
	"person": {"people"},
	"mouse":  {"mice"},
	"foot":   {"feet"},
	"tooth":  {"teeth"},
	"goose":  {"geese"},
	"good":   {"better", "best"},
	"bad":    {"worse", "worst"},
	"i":      {"me", "my", "mine"},
	"he":     {"him", "his"},
	"she":    {"her", "hers"},
	"we":     {"us", "our", "ours"},
	"they":   {"them", "their", "theirs"},
	"news":   {},
	"data":   {},
	"sheep":  {},
}
