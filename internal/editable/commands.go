package editable

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/htmlfmt"
	"richinput/internal/markdown"
	"richinput/pkg/fmttext"
)

func (e *Editable) ensureSelection() {
	if e.selectionInRoot() {
		return
	}
	e.doc.SetSelection(dom.Caret(dom.EndOf(e.root)))
}

// ExecCommand runs a native editing command against the root. Formatting
// commands emit semantic tags, never inline styles.
func (e *Editable) ExecCommand(cmd, value string) bool {
	var ok bool
	e.sched.ForceMutation(func() {
		e.ensureSelection()
		dom.AddClass(e.root, ExecFixClass)
		e.doc.ExecCommand("styleWithCSS", "false")
		ok = e.doc.ExecCommand(cmd, value)
		dom.RemoveClass(e.root, ExecFixClass)
	})
	if !ok {
		e.log.Debug().Str("command", cmd).Msg("[editable] command had no effect")
	}
	e.HandleContentUpdate()
	return ok
}

// InsertMatchableHTML replaces the run before the caret with markup. The
// run extends back while limit reports false. A limiting trigger mark that
// starts a word, like the @ of a mention, is replaced too.
func (e *Editable) InsertMatchableHTML(markup string, limit func(rune) bool) bool {
	r := e.doc.Selection()
	if r == nil || !r.Collapsed() || !e.inRoot(r.Start.Node) {
		return e.ExecCommand("insertHTML", markup)
	}
	end := r.Start
	if dom.KindOf(end.Node) == dom.KindElement {
		if prev := dom.ChildAt(end.Node, end.Offset-1); dom.KindOf(prev) == dom.KindText {
			end = dom.EndOf(prev)
		}
	}
	if dom.KindOf(end.Node) == dom.KindText {
		text := end.Node.Data[:end.Offset]
		start := len(text)
		for start > 0 {
			ch, size := utf8.DecodeLastRuneInString(text[:start])
			if limit != nil && limit(ch) {
				if isTriggerMark(ch) && atWordStart(text[:start-size]) {
					start -= size
				}
				break
			}
			start -= size
		}
		e.doc.SetSelection(&dom.Range{Start: dom.Point{Node: end.Node, Offset: start}, End: end})
	}
	return e.ExecCommand("insertHTML", markup)
}

func isTriggerMark(r rune) bool {
	return !unicode.IsSpace(r) && !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

func atWordStart(before string) bool {
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsSpace(r)
}

// InsertFormattedText inserts ft at the caret, replacing any selection.
func (e *Editable) InsertFormattedText(ft fmttext.FormattedText) bool {
	if ft.Text == "" {
		return false
	}
	return e.ExecCommand("insertHTML", e.marshaler.ToHTML(ft))
}

type GetOptions struct {
	DropQuotes bool
	// NoMarkdown skips shorthand parsing of the extracted text.
	NoMarkdown bool
}

// GetFormattedText extracts the model from the current content, applying
// markdown shorthand on top of the HTML formatting.
func (e *Editable) GetFormattedText(opts GetOptions) fmttext.FormattedText {
	ft := htmlfmt.ParseNodes(dom.Children(e.root), htmlfmt.ParseOptions{DropQuotes: opts.DropQuotes})
	if opts.NoMarkdown {
		return ft
	}
	return markdown.Parse(ft.Text, ft.Entities)
}

// SetFormattedText replaces the content with ft and puts the caret at the
// end.
func (e *Editable) SetFormattedText(ft fmttext.FormattedText) {
	e.sched.ForceMutation(func() {
		dom.SetInnerHTML(e.root, e.marshaler.ToHTML(ft))
	})
	if e.doc.IsConnected(e.root) {
		e.doc.SetSelection(dom.Caret(dom.EndOf(e.root)))
	}
	e.HandleContentUpdate()
}

type SelectedHTMLOptions struct {
	// DropCustomEmoji replaces custom emoji placeholders with their alt text.
	DropCustomEmoji bool
}

// GetSelectedHTML serializes the selected part of the content. It is empty
// when nothing inside the root is selected.
func (e *Editable) GetSelectedHTML(opts SelectedHTMLOptions) string {
	sel := e.selection.Get()
	if !sel.Valid() || sel.Collapsed {
		return ""
	}
	frag := sel.Range.CloneContents()
	if opts.DropCustomEmoji {
		for _, img := range dom.QueryAll(frag, dom.ByClass(htmlfmt.ClassCustomEmoji)) {
			img.Parent.InsertBefore(dom.NewText(dom.AttrOr(img, "alt", "")), img)
			dom.Detach(img)
		}
	}
	return dom.InnerHTML(frag)
}

// SetSelRange selects r when it lies inside the root.
func (e *Editable) SetSelRange(r *dom.Range) bool {
	if !r.Valid() || !e.inRoot(r.CommonAncestor()) {
		return false
	}
	e.doc.SetSelection(r.Clone())
	return true
}

func (e *Editable) ClearInput() {
	e.sched.ForceMutation(func() {
		dom.RemoveChildren(e.root)
	})
	e.HandleContentUpdate()
}

// ReplaceNode swaps n for markup. It serves consumers holding a node
// reference, such as a toolbar replacing a link element.
func (e *Editable) ReplaceNode(n *html.Node, markup string) bool {
	if n == nil || !e.inRoot(n) || n == e.root {
		return false
	}
	e.doc.SetSelection(dom.SelectNode(n))
	return e.ExecCommand("insertHTML", markup)
}
