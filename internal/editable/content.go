package editable

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"richinput/internal/dom"
)

func isEmptyHTML(markup string) bool {
	switch markup {
	case "", "<br>", "<br/>":
		return true
	}
	return false
}

// hasVisibleContent reports whether n holds text or an inline object. Line
// breaks and empty wrappers left behind by deletes do not count.
func hasVisibleContent(n *html.Node) bool {
	found := false
	dom.Walk(n, func(c *html.Node) bool {
		switch {
		case dom.KindOf(c) == dom.KindText && c.Data != "":
			found = true
		case c != n && dom.IsAtomic(c) && !dom.IsTag(c, "br"):
			found = true
		}
		return !found
	})
	return found
}

// HandleContentUpdate re-reads the root after any edit.
func (e *Editable) HandleContentUpdate() {
	markup := dom.InnerHTML(e.root)
	wasEmpty := e.empty.Get()
	e.html.Set(markup)
	empty := isEmptyHTML(markup) || !hasVisibleContent(e.root)
	e.empty.Set(empty)
	e.updateSelection()

	// A cleared input keeps the formatting of what was deleted unless it is
	// removed explicitly.
	if empty && !wasEmpty {
		if sel := e.selection.Get(); sel.Valid() && sel.Collapsed {
			e.ExecCommand("removeFormat", "")
		}
	}
	e.sched.RequestMeasure(e.emoji.Synchronize)
}

func (e *Editable) inRoot(n *html.Node) bool {
	for i := 0; n != nil && i < maxAncestorWalk; i++ {
		if n == e.root {
			return true
		}
		n = n.Parent
	}
	return false
}

func (e *Editable) selectionInRoot() bool {
	r := e.doc.Selection()
	return r != nil && e.inRoot(r.CommonAncestor())
}

func (e *Editable) updateSelection() {
	r := e.doc.Selection()
	if r == nil || !e.inRoot(r.CommonAncestor()) {
		e.selection.Set(Selection{})
		e.matchable.Set("")
		return
	}
	e.selection.Set(Selection{Collapsed: r.Collapsed(), Range: *r})
	e.matchable.Set(matchableAt(r))
}

// matchableAt returns the word right before a collapsed caret, or the
// prefixed alt text when the caret follows an inline image.
func matchableAt(r *dom.Range) string {
	if !r.Collapsed() {
		return ""
	}
	p := r.Start
	var prev *html.Node
	switch dom.KindOf(p.Node) {
	case dom.KindElement:
		prev = dom.ChildAt(p.Node, p.Offset-1)
	case dom.KindText:
		if p.Offset == 0 {
			prev = p.Node.PrevSibling
		}
	}
	if dom.IsTag(prev, "img") {
		return ImgAltPrefix + dom.AttrOr(prev, "alt", "")
	}

	var text string
	switch {
	case dom.KindOf(p.Node) == dom.KindText:
		text = p.Node.Data[:p.Offset]
	case dom.KindOf(prev) == dom.KindText:
		text = prev.Data
	}
	return lastWord(text)
}

func lastWord(s string) string {
	i := len(s)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if unicode.IsSpace(r) {
			break
		}
		i -= size
	}
	return s[i:]
}
