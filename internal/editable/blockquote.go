package editable

import (
	"golang.org/x/net/html"

	"richinput/internal/dom"
)

// blockquoteEnter lets the caret escape a quote that starts or ends the
// content. Enter or Shift+Enter at the very start inserts a space before the
// quote, at the very end a space after it. The caret lands on the far side
// of the space.
func (e *Editable) blockquoteEnter(ev *dom.Event) bool {
	if ev.Key != "Enter" || ev.Ctrl || ev.Meta || ev.Alt {
		return false
	}
	r := e.doc.Selection()
	if r == nil || !r.Collapsed() || !e.inRoot(r.Start.Node) {
		return false
	}
	p := r.Start

	atStart := p.Offset == 0
	atEnd := p.Offset == dom.NodeLength(p.Node)
	if !atStart && !atEnd {
		return false
	}

	var quote *html.Node
	n := p.Node
	for i := 0; n != nil && n != e.root && i < maxAncestorWalk; i++ {
		if dom.IsTag(n, "blockquote") {
			quote = n
			break
		}
		if atStart && n.PrevSibling != nil {
			atStart = false
		}
		if atEnd && n.NextSibling != nil {
			atEnd = false
		}
		if !atStart && !atEnd {
			return false
		}
		n = n.Parent
	}
	if quote == nil || quote.Parent == nil {
		return false
	}

	space := dom.NewText(" ")
	var caret dom.Point
	e.sched.ForceMutation(func() {
		if atStart {
			quote.Parent.InsertBefore(space, quote)
			caret = dom.Before(space)
			return
		}
		dom.InsertAfter(quote, space)
		caret = dom.After(space)
	})
	e.doc.SetSelection(dom.Caret(caret))
	ev.PreventDefault()
	e.HandleContentUpdate()
	return true
}
