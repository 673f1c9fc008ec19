// Package composer holds the consumers that sit on top of an editable in a
// message composer: the format toolbar, autocomplete tooltips and sending.
package composer

import (
	"strings"

	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/editable"
	"richinput/internal/htmlfmt"
	"richinput/pkg/fmttext"
)

// Formats is the set of formats around the current selection.
type Formats struct {
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Monospace     bool
	Spoiler       bool
	Quote         bool
}

func (f Formats) any() bool {
	return f.Bold || f.Italic || f.Underline || f.Strikethrough || f.Spoiler || f.Quote
}

type ButtonState int

const (
	ButtonNormal ButtonState = iota
	ButtonActive
	ButtonDisabled
)

// Formatter applies toolbar formats to the selection of an editable.
type Formatter struct {
	ed     *editable.Editable
	active bool
	remove func()

	linkRange   *dom.Range
	editingLink *html.Node

	// OnLinkRequest is called when the link shortcut wants a URL.
	OnLinkRequest func()
	// OnClose is called after an action that closes the toolbar.
	OnClose func()
}

func NewFormatter(ed *editable.Editable) *Formatter {
	f := &Formatter{ed: ed}
	f.remove = ed.AddKeyboardHandler(editable.KeyboardHandler{
		Priority:  editable.PriorityTool,
		OnKeydown: f.onKeydown,
	})
	return f
}

// SetActive enables the keyboard shortcuts.
func (f *Formatter) SetActive(active bool) { f.active = active }

func (f *Formatter) Close() {
	if f.remove != nil {
		f.remove()
		f.remove = nil
	}
}

func (f *Formatter) selection() (editable.Selection, bool) {
	sel := f.ed.Selection().Get()
	return sel, sel.Valid()
}

// selectedElement is the element enclosing the selection.
func (f *Formatter) selectedElement() *html.Node {
	sel, ok := f.selection()
	if !ok {
		return nil
	}
	n := sel.Range.CommonAncestor()
	if dom.KindOf(n) != dom.KindElement {
		n = n.Parent
	}
	return n
}

func (f *Formatter) SelectedFormats() Formats {
	var out Formats
	root := f.ed.Root()
	for n := f.selectedElement(); n != nil && n != root; n = n.Parent {
		switch n.Data {
		case "b", "strong":
			out.Bold = true
		case "i", "em":
			out.Italic = true
		case "u":
			out.Underline = true
		case "del", "strike", "s":
			out.Strikethrough = true
		case "code":
			out.Monospace = true
		case "span":
			if dom.HasClass(n, htmlfmt.ClassSpoiler) {
				out.Spoiler = true
			}
		case "blockquote":
			out.Quote = true
		}
	}
	return out
}

// Button reports how the toolbar shows a format. Monospace excludes every
// other format.
func (f *Formatter) Button(format string) ButtonState {
	sel := f.SelectedFormats()
	var on bool
	switch format {
	case "bold":
		on = sel.Bold
	case "italic":
		on = sel.Italic
	case "underline":
		on = sel.Underline
	case "strikethrough":
		on = sel.Strikethrough
	case "monospace":
		on = sel.Monospace
	case "spoiler":
		on = sel.Spoiler
	case "quote":
		on = sel.Quote
	}
	switch {
	case on:
		return ButtonActive
	case format == "monospace" && sel.any():
		return ButtonDisabled
	case format != "monospace" && sel.Monospace:
		return ButtonDisabled
	}
	return ButtonNormal
}

func (f *Formatter) close() {
	if f.OnClose != nil {
		f.OnClose()
	}
}

func (f *Formatter) Bold() bool          { return f.ed.ExecCommand("bold", "") }
func (f *Formatter) Italic() bool        { return f.ed.ExecCommand("italic", "") }
func (f *Formatter) Underline() bool     { return f.ed.ExecCommand("underline", "") }
func (f *Formatter) Strikethrough() bool { return f.ed.ExecCommand("strikethrough", "") }

// unwrap replaces the enclosing element el with its plain text.
func (f *Formatter) unwrap(el *html.Node) bool {
	if el == nil || el.Parent == nil || dom.TextContent(el) == "" {
		return false
	}
	text := dom.NewText(dom.TextContent(el))
	f.ed.Scheduler().ForceMutation(func() {
		el.Parent.InsertBefore(text, el)
		dom.Detach(el)
	})
	f.ed.Document().SetSelection(dom.SelectContents(text))
	f.ed.HandleContentUpdate()
	return true
}

func (f *Formatter) enclosing(match func(*html.Node) bool) *html.Node {
	root := f.ed.Root()
	for n := f.selectedElement(); n != nil && n != root; n = n.Parent {
		if match(n) {
			return n
		}
	}
	return nil
}

func (f *Formatter) Spoiler() bool {
	if f.SelectedFormats().Spoiler {
		return f.unwrap(f.enclosing(func(n *html.Node) bool {
			return dom.AttrOr(n, htmlfmt.AttrEntityType, "") == string(fmttext.EntitySpoiler)
		}))
	}
	inner := f.ed.GetSelectedHTML(editable.SelectedHTMLOptions{})
	ok := f.ed.ExecCommand("insertHTML", `<span class="`+htmlfmt.ClassSpoiler+`" `+
		htmlfmt.AttrEntityType+`="`+string(fmttext.EntitySpoiler)+`">`+inner+`</span>`)
	f.close()
	return ok
}

// Monospace wraps the selected text in inline code, or removes the code
// around it. A collapsed selection is ignored.
func (f *Formatter) Monospace() bool {
	sel, ok := f.selection()
	if !ok || sel.Collapsed {
		return false
	}
	if f.SelectedFormats().Monospace {
		return f.unwrap(f.enclosing(func(n *html.Node) bool { return dom.IsTag(n, "code") }))
	}

	root := f.ed.Root()
	previous := map[*html.Node]bool{}
	for _, el := range dom.QueryAll(root, func(n *html.Node) bool { return dom.IsTag(n, "code") }) {
		previous[el] = true
	}
	text := dom.TextContent(sel.Range.CloneContents())
	ok = f.ed.ExecCommand("insertHTML", `<code class="`+htmlfmt.ClassCode+`" dir="auto">`+html.EscapeString(text)+`</code>`)
	for _, el := range dom.QueryAll(root, func(n *html.Node) bool { return dom.IsTag(n, "code") }) {
		if !previous[el] {
			f.ed.Document().SetSelection(dom.Caret(dom.After(el)))
		}
	}
	f.close()
	return ok
}

func (f *Formatter) Quote() bool {
	if f.SelectedFormats().Quote {
		return f.unwrap(f.enclosing(func(n *html.Node) bool { return dom.IsTag(n, "blockquote") }))
	}
	sel, ok := f.selection()
	if !ok {
		return false
	}
	frag := sel.Range.CloneContents()
	for {
		quotes := dom.QueryAll(frag, func(n *html.Node) bool { return dom.IsTag(n, "blockquote") })
		if len(quotes) == 0 {
			break
		}
		dom.Unwrap(quotes[0])
	}
	ok = f.ed.ExecCommand("insertHTML", `<blockquote class="`+htmlfmt.ClassBlockquote+`" `+
		htmlfmt.AttrEntityType+`="`+string(fmttext.EntityBlockquote)+`">`+dom.InnerHTML(frag)+`</blockquote>`)
	f.close()
	return ok
}

// StartLink remembers the selection for a following Link call. Editing an
// existing link keeps the anchor and only changes its address.
func (f *Formatter) StartLink() bool {
	sel, ok := f.selection()
	if !ok || sel.Collapsed {
		return false
	}
	f.linkRange = sel.Range.Clone()
	f.editingLink = f.enclosing(func(n *html.Node) bool { return dom.IsTag(n, "a") })
	if f.OnLinkRequest != nil {
		f.OnLinkRequest()
	}
	return true
}

func (f *Formatter) Link(rawURL string) bool {
	url := EnsureProtocol(rawURL)
	if url == "" {
		return false
	}
	if f.linkRange != nil {
		f.ed.SetSelRange(f.linkRange)
		f.linkRange = nil
	}
	if el := f.editingLink; el != nil {
		f.editingLink = nil
		f.ed.Scheduler().ForceMutation(func() { dom.SetAttr(el, "href", url) })
		f.ed.HandleContentUpdate()
		f.close()
		return true
	}
	inner := f.ed.GetSelectedHTML(editable.SelectedHTMLOptions{DropCustomEmoji: true})
	if inner == "" {
		return false
	}
	ok := f.ed.ExecCommand("insertHTML", `<a href="`+html.EscapeString(url)+`" class="`+htmlfmt.ClassLink+`" `+
		htmlfmt.AttrEntityType+`="`+string(fmttext.EntityTextURL)+`" dir="auto">`+inner+`</a>`)
	f.close()
	return ok
}

// EnsureProtocol prefixes addresses without a scheme with https.
func EnsureProtocol(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "://") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return raw
	}
	return "https://" + raw
}

func (f *Formatter) onKeydown(ev *dom.Event) bool {
	if !f.active || ev.Alt || !ev.Mod() {
		return false
	}
	var action func() bool
	switch strings.ToLower(ev.Key) {
	case "k":
		action = f.StartLink
	case "b":
		action = f.Bold
	case "u":
		action = f.Underline
	case "i":
		action = f.Italic
	case "m":
		action = f.Monospace
	case "s":
		action = f.Strikethrough
	case "p":
		action = f.Spoiler
	case "q":
		action = f.Quote
	default:
		return false
	}
	ev.PreventDefault()
	ev.StopPropagation()
	action()
	return true
}
