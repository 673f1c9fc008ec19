package htmlfmt

import (
	"strings"

	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/markdown"
	"richinput/pkg/fmttext"
)

type ParseOptions struct {
	// DropQuotes unwraps blockquotes: their text is kept, the entity is not.
	DropQuotes bool
}

type parser struct {
	opts     ParseOptions
	text     strings.Builder
	entities []fmttext.Entity
}

// Parse reads editor HTML back into FormattedText. Unknown markup keeps its
// text and loses its formatting.
func Parse(markup string, opts ParseOptions) fmttext.FormattedText {
	return ParseNodes(dom.ParseFragment(markup), opts)
}

// ParseNodes is Parse over an already parsed tree.
func ParseNodes(nodes []*html.Node, opts ParseOptions) fmttext.FormattedText {
	p := &parser{opts: opts}
	for _, n := range nodes {
		p.walk(n, false)
	}
	return fmttext.FormattedText{Text: p.text.String(), Entities: markdown.Fixup(p.entities)}
}

func (p *parser) endsWithBreak() bool {
	s := p.text.String()
	return s == "" || strings.HasSuffix(s, "\n")
}

func (p *parser) walk(n *html.Node, inPre bool) {
	switch dom.KindOf(n) {
	case dom.KindText:
		p.text.WriteString(strings.ReplaceAll(n.Data, "\u00a0", " "))
		return
	case dom.KindOther:
		if n.Type == html.DocumentNode {
			p.children(n, inPre)
		}
		return
	}

	switch n.Data {
	case "br":
		p.text.WriteString("\n")
		return
	case "img":
		alt := dom.AttrOr(n, "alt", "")
		if alt == "" {
			return
		}
		start := p.text.Len()
		p.text.WriteString(alt)
		if id := dom.AttrOr(n, AttrDocumentID, ""); id != "" {
			p.add(fmttext.Entity{Type: fmttext.EntityCustomEmoji, Offset: start, Length: len(alt), DocumentID: id})
		}
		return
	case "script", "style", "head", "title", "meta":
		return
	case "div", "p", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
		if !p.endsWithBreak() {
			p.text.WriteString("\n")
		}
	}

	e, ok := p.entityFor(n, inPre)
	start := p.text.Len()
	p.children(n, inPre || n.Data == "pre")
	if ok && p.text.Len() > start {
		e.Offset = start
		e.Length = p.text.Len() - start
		p.add(e)
	}
}

func (p *parser) children(n *html.Node, inPre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, inPre)
	}
}

func (p *parser) add(e fmttext.Entity) {
	p.entities = append(p.entities, e)
}

func (p *parser) entityFor(n *html.Node, inPre bool) (fmttext.Entity, bool) {
	switch dom.AttrOr(n, AttrEntityType, "") {
	case string(fmttext.EntitySpoiler):
		return fmttext.Entity{Type: fmttext.EntitySpoiler}, true
	case string(fmttext.EntityMentionName):
		return fmttext.Entity{Type: fmttext.EntityMentionName, UserID: dom.AttrOr(n, AttrUserID, "")}, true
	case string(fmttext.EntityBlockquote):
		if p.opts.DropQuotes {
			return fmttext.Entity{}, false
		}
		return fmttext.Entity{Type: fmttext.EntityBlockquote}, true
	}

	switch n.Data {
	case "b", "strong":
		return fmttext.Entity{Type: fmttext.EntityBold}, true
	case "i", "em":
		return fmttext.Entity{Type: fmttext.EntityItalic}, true
	case "u", "ins":
		return fmttext.Entity{Type: fmttext.EntityUnderline}, true
	case "del", "strike", "s":
		return fmttext.Entity{Type: fmttext.EntityStrike}, true
	case "code":
		if inPre {
			return fmttext.Entity{}, false
		}
		return fmttext.Entity{Type: fmttext.EntityCode}, true
	case "pre":
		return fmttext.Entity{Type: fmttext.EntityPre, Language: preLanguage(n)}, true
	case "blockquote":
		if p.opts.DropQuotes {
			return fmttext.Entity{}, false
		}
		return fmttext.Entity{Type: fmttext.EntityBlockquote}, true
	case "span":
		if dom.HasClass(n, ClassSpoiler) {
			return fmttext.Entity{Type: fmttext.EntitySpoiler}, true
		}
	case "a":
		if href := dom.AttrOr(n, "href", ""); href != "" {
			return fmttext.Entity{Type: fmttext.EntityTextURL, URL: href}, true
		}
	}
	return fmttext.Entity{}, false
}

// preLanguage reads data-language, falling back to a language-* class on a
// nested code element as pasted from code hosts.
func preLanguage(n *html.Node) string {
	if lang := dom.AttrOr(n, AttrLanguage, ""); lang != "" {
		return lang
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsTag(c, "code") {
			continue
		}
		for _, cls := range strings.Fields(dom.AttrOr(c, "class", "")) {
			if lang, ok := strings.CutPrefix(cls, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}
