package dom

import (
	"strings"

	"golang.org/x/net/html"
)

var formatTags = map[string][]string{
	"bold":          {"b", "strong"},
	"italic":        {"i", "em"},
	"underline":     {"u"},
	"strikethrough": {"strike", "s", "del"},
}

var formatCreate = map[string]string{
	"bold":          "b",
	"italic":        "i",
	"underline":     "u",
	"strikethrough": "strike",
}

// inlineFormatting is what removeFormat strips and what may be merged or
// dropped when empty.
var inlineFormatting = map[string]bool{
	"b": true, "strong": true, "i": true, "em": true, "u": true,
	"s": true, "strike": true, "del": true, "font": true, "sub": true, "sup": true,
}

func (d *Document) StyleWithCSS() bool { return d.styleWithCSS }

// ExecCommand emulates document.execCommand on the current selection. It
// returns false when the command is unknown or there is nothing editable to
// act on.
func (d *Document) ExecCommand(cmd, value string) bool {
	switch cmd {
	case "styleWithCSS":
		d.styleWithCSS = value == "true"
		return true
	case "selectAll":
		return d.selectAll()
	}

	r := d.Selection()
	if r == nil {
		return false
	}
	host := EditingHost(r.CommonAncestor())
	if host == nil {
		return false
	}

	switch cmd {
	case "insertText":
		d.insertText(r, host, value)
	case "insertHTML":
		d.insertHTML(r, host, value)
	case "insertLineBreak", "insertParagraph":
		d.insertHTML(r, host, "<br>")
	case "delete":
		return d.deleteStep(r, host, false)
	case "forwardDelete":
		return d.deleteStep(r, host, true)
	case "bold", "italic", "underline", "strikethrough":
		return d.toggleFormat(r, host, formatTags[cmd], formatCreate[cmd])
	case "removeFormat":
		d.removeFormat(r, host)
	default:
		return false
	}
	return true
}

// QueryCommandState reports whether the whole selection carries a format.
func (d *Document) QueryCommandState(cmd string) bool {
	tags, ok := formatTags[cmd]
	if !ok {
		return false
	}
	r := d.Selection()
	if r == nil {
		return false
	}
	host := EditingHost(r.CommonAncestor())
	if host == nil {
		return false
	}
	if r.Collapsed() {
		return formattedBy(r.Start.Node, host, tags) != nil
	}
	nodes := selectedTextNodes(r, host)
	if len(nodes) == 0 {
		return false
	}
	for _, n := range nodes {
		if formattedBy(n, host, tags) == nil {
			return false
		}
	}
	return true
}

func (d *Document) selectAll() bool {
	var host *html.Node
	if r := d.Selection(); r != nil {
		host = EditingHost(r.CommonAncestor())
	}
	if host == nil {
		host = EditingHost(d.active)
	}
	if host == nil {
		d.SetSelection(SelectContents(d.body))
		return true
	}
	d.SetSelection(SelectContents(host))
	return true
}

func (d *Document) insertText(r *Range, host *html.Node, value string) {
	r.DeleteContents()
	caret := r.Start
	for i, line := range strings.Split(value, "\n") {
		if i > 0 {
			caret = Caret(caret).InsertNode(NewElement("br"))
		}
		if line != "" {
			caret = insertTextAt(caret, line)
		}
	}
	caret = cleanup(host, caret)
	d.SetSelection(Caret(caret))
}

func insertTextAt(p Point, s string) Point {
	if KindOf(p.Node) == KindText {
		p.Node.Data = p.Node.Data[:p.Offset] + s + p.Node.Data[p.Offset:]
		return Point{Node: p.Node, Offset: p.Offset + len(s)}
	}
	if prev := ChildAt(p.Node, p.Offset-1); KindOf(prev) == KindText {
		prev.Data += s
		return EndOf(prev)
	}
	if next := ChildAt(p.Node, p.Offset); KindOf(next) == KindText {
		next.Data = s + next.Data
		return Point{Node: next, Offset: len(s)}
	}
	t := NewText(s)
	p.Node.InsertBefore(t, ChildAt(p.Node, p.Offset))
	return EndOf(t)
}

func (d *Document) insertHTML(r *Range, host *html.Node, markup string) {
	r.DeleteContents()
	caret := r.Start
	var last *html.Node
	for _, n := range ParseFragment(markup) {
		caret = Caret(caret).InsertNode(n)
		last = n
	}
	if KindOf(last) == KindText {
		caret = EndOf(last)
	}
	caret = cleanup(host, caret)
	d.SetSelection(Caret(caret))
}

func (d *Document) deleteStep(r *Range, host *html.Node, forward bool) bool {
	if r.Collapsed() {
		var other Point
		if forward {
			other = StepForward(r.Start, host)
		} else {
			other = StepBackward(r.Start, host)
		}
		if Compare(other, r.Start) == 0 {
			return false
		}
		r = NewRange(r.Start, other)
		if !hasContent(r.CloneContents()) {
			return false
		}
	}
	r.DeleteContents()
	caret := cleanup(host, r.Start)
	d.SetSelection(Caret(caret))
	return true
}

// hasContent reports whether frag holds text or an atomic element.
func hasContent(frag *html.Node) bool {
	found := false
	Walk(frag, func(n *html.Node) bool {
		if n != frag && ((KindOf(n) == KindText && n.Data != "") || IsAtomic(n)) {
			found = true
		}
		return !found
	})
	return found
}

func formattedBy(n, host *html.Node, tags []string) *html.Node {
	for p := n; p != nil && p != host; p = p.Parent {
		if KindOf(p) != KindElement {
			continue
		}
		for _, t := range tags {
			if p.Data == t {
				return p
			}
		}
	}
	return nil
}

// splitBoundaries splits text nodes at the range ends so that every text
// node is either fully inside or fully outside the returned range.
func splitBoundaries(r *Range) *Range {
	s, e := r.Start, r.End
	if KindOf(e.Node) == KindText && e.Offset > 0 && e.Offset < len(e.Node.Data) {
		SplitText(e.Node, e.Offset)
	}
	if KindOf(s.Node) == KindText && s.Offset > 0 && s.Offset < len(s.Node.Data) {
		tail := SplitText(s.Node, s.Offset)
		if e.Node == s.Node {
			e = Point{Node: tail, Offset: e.Offset - s.Offset}
		}
		s = Point{Node: tail}
	}
	return &Range{Start: s, End: e}
}

func selectedTextNodes(r *Range, host *html.Node) []*html.Node {
	var out []*html.Node
	for _, t := range TextNodes(host) {
		if t.Data == "" {
			continue
		}
		switch r.cover(t) {
		case covFull:
			out = append(out, t)
		case covPartial:
			if from, to := r.textSlice(t); from == 0 && to == len(t.Data) {
				out = append(out, t)
			}
		}
	}
	return out
}

func (d *Document) toggleFormat(r *Range, host *html.Node, tags []string, create string) bool {
	if r.Collapsed() {
		return false
	}
	r = splitBoundaries(r)
	nodes := selectedTextNodes(r, host)
	if len(nodes) == 0 {
		return false
	}

	all := true
	for _, n := range nodes {
		if formattedBy(n, host, tags) == nil {
			all = false
			break
		}
	}
	if all {
		unformat(nodes, host, func(el *html.Node) bool {
			for _, t := range tags {
				if el.Data == t {
					return true
				}
			}
			return false
		})
	} else {
		for _, n := range nodes {
			if formattedBy(n, host, tags) == nil {
				Wrap(n, NewElement(create))
			}
		}
	}
	mergeAdjacent(host)
	d.SetSelection(&Range{Start: Point{Node: nodes[0]}, End: EndOf(nodes[len(nodes)-1])})
	return true
}

// unformat removes matching ancestors from nodes, keeping the format on
// every other text node those ancestors covered.
func unformat(nodes []*html.Node, host *html.Node, match func(*html.Node) bool) {
	selected := map[*html.Node]bool{}
	for _, n := range nodes {
		selected[n] = true
	}
	for _, n := range nodes {
		for {
			var anc *html.Node
			for p := n.Parent; p != nil && p != host; p = p.Parent {
				if KindOf(p) == KindElement && match(p) {
					anc = p
					break
				}
			}
			if anc == nil {
				break
			}
			var others []*html.Node
			for _, t := range TextNodes(anc) {
				if !selected[t] && t.Data != "" {
					others = append(others, t)
				}
			}
			tmpl := ShallowClone(anc)
			Unwrap(anc)
			for _, o := range others {
				Wrap(o, ShallowClone(tmpl))
			}
		}
	}
}

func sameAttrs(a, b *html.Node) bool {
	if len(a.Attr) != len(b.Attr) {
		return false
	}
	for i := range a.Attr {
		if a.Attr[i] != b.Attr[i] {
			return false
		}
	}
	return true
}

// mergeAdjacent joins neighbouring inline formatting elements of one kind.
func mergeAdjacent(host *html.Node) {
	for changed := true; changed; {
		changed = false
		Walk(host, func(n *html.Node) bool {
			next := n.NextSibling
			if KindOf(n) != KindElement || !inlineFormatting[n.Data] || next == nil {
				return true
			}
			if KindOf(next) == KindElement && next.Data == n.Data && sameAttrs(n, next) {
				for next.FirstChild != nil {
					c := next.FirstChild
					next.RemoveChild(c)
					n.AppendChild(c)
				}
				next.Parent.RemoveChild(next)
				changed = true
				return false
			}
			return true
		})
	}
}

func (d *Document) removeFormat(r *Range, host *html.Node) {
	if r.Collapsed() {
		caret := r.Start
		for p := caret.Node; p != nil && p != host; {
			parent := p.Parent
			if KindOf(p) == KindElement && inlineFormatting[p.Data] && TextContent(p) == "" {
				if caret.Node == p {
					caret = Before(p)
				}
				Unwrap(p)
			}
			p = parent
		}
		d.SetSelection(Caret(cleanup(host, caret)))
		return
	}
	r = splitBoundaries(r)
	nodes := selectedTextNodes(r, host)
	if len(nodes) == 0 {
		return
	}
	unformat(nodes, host, func(el *html.Node) bool { return inlineFormatting[el.Data] })
	mergeAdjacent(host)
	d.SetSelection(&Range{Start: Point{Node: nodes[0]}, End: EndOf(nodes[len(nodes)-1])})
}

// cleanup drops empty text nodes and empty inline wrappers under host and
// returns keep adjusted to the new tree.
func cleanup(host *html.Node, keep Point) Point {
	for changed := true; changed; {
		changed = false
		for _, n := range QueryAll(host, func(n *html.Node) bool {
			switch KindOf(n) {
			case KindText:
				return n.Data == "" && n != keep.Node
			case KindElement:
				return n.FirstChild == nil && !IsAtomic(n) && (inlineFormatting[n.Data] || n.Data == "span" || n.Data == "code" || n.Data == "a")
			}
			return false
		}) {
			if n.Parent == nil {
				continue
			}
			if keep.Node == n {
				keep = Before(n)
			}
			if keep.Node == n.Parent && ChildIndex(n) < keep.Offset {
				keep.Offset--
			}
			n.Parent.RemoveChild(n)
			changed = true
		}
	}
	return keep
}
