// Package dom is the in-memory document the editor works on: a tree of
// golang.org/x/net/html nodes plus the browser behaviour an editing surface
// relies on (selection, focus, events, editing commands).
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind is the closed set of node shapes the editing core distinguishes.
type Kind uint8

const (
	KindOther Kind = iota
	KindText
	KindElement
)

func KindOf(n *html.Node) Kind {
	if n == nil {
		return KindOther
	}
	switch n.Type {
	case html.TextNode:
		return KindText
	case html.ElementNode:
		return KindElement
	}
	return KindOther
}

func IsTag(n *html.Node, tag string) bool {
	return KindOf(n) == KindElement && n.Data == tag
}

func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: attrs}
}

func NewText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func AttrOr(n *html.Node, key, fallback string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return fallback
}

func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

// Dataset reads a data-* attribute by its dashed name.
func Dataset(n *html.Node, name string) string {
	return AttrOr(n, "data-"+name, "")
}

func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(AttrOr(n, "class", "")) {
		if c == class {
			return true
		}
	}
	return false
}

func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	cls := strings.TrimSpace(AttrOr(n, "class", "") + " " + class)
	SetAttr(n, "class", cls)
}

func RemoveClass(n *html.Node, class string) {
	if !HasClass(n, class) {
		return
	}
	var keep []string
	for _, c := range strings.Fields(AttrOr(n, "class", "")) {
		if c != class {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(keep, " "))
}

func ChildIndex(n *html.Node) int {
	i := 0
	for c := n.PrevSibling; c != nil; c = c.PrevSibling {
		i++
	}
	return i
}

func ChildCount(n *html.Node) int {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		i++
	}
	return i
}

func ChildAt(n *html.Node, i int) *html.Node {
	if i < 0 {
		return nil
	}
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// NodeLength is the number of boundary offsets inside n minus one: bytes for
// text, children for elements.
func NodeLength(n *html.Node) int {
	if KindOf(n) == KindText {
		return len(n.Data)
	}
	return ChildCount(n)
}

// Contains reports whether n is ancestor or n itself.
func Contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func InsertAt(parent, child *html.Node, index int) {
	Detach(child)
	parent.InsertBefore(child, ChildAt(parent, index))
}

func InsertAfter(ref, child *html.Node) {
	Detach(child)
	ref.Parent.InsertBefore(child, ref.NextSibling)
}

func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Unwrap replaces n with its children.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for n.FirstChild != nil {
		c := n.FirstChild
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

// Wrap puts n inside wrapper at n's position.
func Wrap(n, wrapper *html.Node) {
	n.Parent.InsertBefore(wrapper, n)
	n.Parent.RemoveChild(n)
	wrapper.AppendChild(n)
}

func ShallowClone(n *html.Node) *html.Node {
	c := &html.Node{Type: n.Type, Data: n.Data, DataAtom: n.DataAtom, Namespace: n.Namespace}
	if len(n.Attr) > 0 {
		c.Attr = append([]html.Attribute(nil), n.Attr...)
	}
	return c
}

func DeepClone(n *html.Node) *html.Node {
	c := ShallowClone(n)
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(DeepClone(ch))
	}
	return c
}

// Walk visits n and its descendants in document order until fn returns false.
func Walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if !Walk(c, fn) {
			return false
		}
		c = next
	}
	return true
}

func QueryAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n != root && match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func ByClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return KindOf(n) == KindElement && HasClass(n, class) }
}

func TextContent(n *html.Node) string {
	if KindOf(n) == KindText {
		return n.Data
	}
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if KindOf(c) == KindText {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func TextNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	Walk(n, func(c *html.Node) bool {
		if KindOf(c) == KindText {
			out = append(out, c)
		}
		return true
	})
	return out
}

// IsAtomic reports whether the caret treats n as one unit instead of
// descending into it.
func IsAtomic(n *html.Node) bool {
	if KindOf(n) != KindElement {
		return false
	}
	switch n.Data {
	case "br", "img", "hr", "input", "canvas", "video":
		return true
	}
	return AttrOr(n, "contenteditable", "") == "false"
}

// IsEditingHost reports whether n has contenteditable="true".
func IsEditingHost(n *html.Node) bool {
	if KindOf(n) != KindElement {
		return false
	}
	v, ok := Attr(n, "contenteditable")
	return ok && (v == "" || v == "true")
}

// EditingHost returns the nearest editing host containing n, or nil when n
// is not editable.
func EditingHost(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if KindOf(n) != KindElement {
			continue
		}
		if v, ok := Attr(n, "contenteditable"); ok {
			if v == "false" {
				return nil
			}
			return n
		}
	}
	return nil
}

func InnerHTML(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

func OuterHTML(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}

// ParseFragment parses markup in the context of a div.
func ParseFragment(markup string) []*html.Node {
	nodes, err := html.ParseFragment(strings.NewReader(markup), NewElement("div"))
	if err != nil {
		return []*html.Node{NewText(markup)}
	}
	return nodes
}

func SetInnerHTML(n *html.Node, markup string) {
	RemoveChildren(n)
	for _, c := range ParseFragment(markup) {
		n.AppendChild(c)
	}
}

// NewFragment returns a detached container for moved or cloned nodes.
func NewFragment(children ...*html.Node) *html.Node {
	f := NewElement("div")
	for _, c := range children {
		Detach(c)
		f.AppendChild(c)
	}
	return f
}
