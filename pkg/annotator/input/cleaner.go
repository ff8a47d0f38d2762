package input

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Cleaner repairs document text before annotation.
type Cleaner struct {
	// StripHTML removes markup and keeps only text nodes.
	StripHTML bool
}

// Clean replaces invalid UTF-8 with U+FFFD, optionally strips HTML and
// applies NFC normalization. A nil Cleaner returns s unchanged.
func (c *Cleaner) Clean(s string) string {
	if c == nil {
		return s
	}
	s = strings.ToValidUTF8(s, "�")
	if c.StripHTML && strings.ContainsRune(s, '<') {
		s = StripHTML(s)
	}
	return norm.NFC.String(s)
}

// blockTags end a run of text; their boundaries become whitespace.
var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "tr": {}, "td": {}, "th": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"section": {}, "article": {}, "blockquote": {}, "pre": {}, "table": {},
}

// StripHTML extracts the text content of an HTML fragment.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		// Fallback to string if parsing fails
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		_, block := blockTags[n.Data]
		block = block && n.Type == html.ElementNode
		if block {
			breakLine(&buf)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
		if block {
			breakLine(&buf)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}

func breakLine(buf *strings.Builder) {
	if buf.Len() == 0 {
		return
	}
	if b := buf.String(); b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}
}
