package htmlfmt

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"richinput/internal/dom"
)

const (
	wordNamespacePrefix = "xmlns:w"
	wordDocumentType    = "urn:schemas-microsoft-com:office:word"
)

// pastePolicy keeps the markup the editor understands and drops the rest.
var pastePolicy = bluemonday.UGCPolicy().
	AllowElements("b", "i", "em", "strong", "u", "s", "strike", "del", "ins").
	AllowElements("p", "br", "div", "span").
	AllowElements("blockquote", "code", "pre").
	AllowURLSchemes("http", "https", "mailto", "tg").
	RequireNoFollowOnLinks(false).
	AllowElements("img").
	AllowAttrs("alt", "draggable").OnElements("img").
	AllowAttrs("class").OnElements("span", "code", "pre", "blockquote", "img", "a", "div").
	AllowAttrs(AttrEntityType, AttrUserID, AttrDocumentID, AttrUniqueID, AttrLanguage).Globally()

// Sanitize strips scripts, styles, event handlers and unknown attributes
// from pasted HTML.
func Sanitize(markup string) string {
	if markup == "" {
		return ""
	}
	return strings.TrimSpace(pastePolicy.Sanitize(markup))
}

// IsWordDocument reports whether markup is a Microsoft Word clipboard export.
func IsWordDocument(markup string) bool {
	if markup == "" {
		return false
	}
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return false
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsTag(c, "html") {
			v, ok := dom.Attr(c, wordNamespacePrefix)
			return ok && v == wordDocumentType
		}
	}
	return false
}
