package dom

import (
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Point is a boundary point: a byte offset into a text node or a child index
// into an element.
type Point struct {
	Node   *html.Node
	Offset int
}

func (p Point) Valid() bool {
	return p.Node != nil && p.Offset >= 0 && p.Offset <= NodeLength(p.Node)
}

// Before returns the point right before n in its parent.
func Before(n *html.Node) Point { return Point{Node: n.Parent, Offset: ChildIndex(n)} }

// After returns the point right after n in its parent.
func After(n *html.Node) Point { return Point{Node: n.Parent, Offset: ChildIndex(n) + 1} }

// EndOf returns the last boundary point inside n.
func EndOf(n *html.Node) Point { return Point{Node: n, Offset: NodeLength(n)} }

func path(p Point) []int {
	var rev []int
	for n := p.Node; n.Parent != nil; n = n.Parent {
		rev = append(rev, ChildIndex(n))
	}
	out := make([]int, 0, len(rev)+1)
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return append(out, p.Offset)
}

// Compare orders two points in the same tree: -1, 0 or 1.
func Compare(a, b Point) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	pa, pb := path(a), path(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

type Range struct {
	Start Point
	End   Point
}

// NewRange builds a range with its points in document order.
func NewRange(a, b Point) *Range {
	if Compare(a, b) > 0 {
		a, b = b, a
	}
	return &Range{Start: a, End: b}
}

func Caret(p Point) *Range { return &Range{Start: p, End: p} }

// SelectContents covers everything inside n.
func SelectContents(n *html.Node) *Range {
	return &Range{Start: Point{Node: n}, End: EndOf(n)}
}

func SelectNode(n *html.Node) *Range {
	return &Range{Start: Before(n), End: After(n)}
}

func (r *Range) Clone() *Range {
	c := *r
	return &c
}

func (r *Range) Collapsed() bool {
	return r.Start.Node == r.End.Node && r.Start.Offset == r.End.Offset
}

func (r *Range) Collapse(toStart bool) {
	if toStart {
		r.End = r.Start
	} else {
		r.Start = r.End
	}
}

func (r *Range) Valid() bool {
	return r != nil && r.Start.Valid() && r.End.Valid() && Compare(r.Start, r.End) <= 0
}

func (r *Range) CommonAncestor() *html.Node {
	for n := r.Start.Node; n != nil; n = n.Parent {
		if Contains(n, r.End.Node) {
			return n
		}
	}
	return nil
}

// position of n relative to r: outside, fully contained or partially.
type coverage uint8

const (
	covOutside coverage = iota
	covFull
	covPartial
)

func (r *Range) cover(n *html.Node) coverage {
	if n.Parent == nil {
		return covPartial
	}
	before, after := Before(n), After(n)
	if Compare(after, r.Start) <= 0 || Compare(before, r.End) >= 0 {
		return covOutside
	}
	if Compare(before, r.Start) >= 0 && Compare(after, r.End) <= 0 {
		return covFull
	}
	return covPartial
}

// Intersects reports whether some part of n lies inside r. A collapsed range
// intersects nothing.
func (r *Range) Intersects(n *html.Node) bool {
	if r.Collapsed() {
		return false
	}
	return r.cover(n) != covOutside
}

func (r *Range) textSlice(n *html.Node) (int, int) {
	from, to := 0, len(n.Data)
	if r.Start.Node == n {
		from = r.Start.Offset
	}
	if r.End.Node == n {
		to = r.End.Offset
	}
	return from, to
}

// CloneContents copies the selected part of the tree into a fragment.
func (r *Range) CloneContents() *html.Node {
	frag := NewFragment()
	if r.Collapsed() {
		return frag
	}
	root := r.CommonAncestor()
	if root == nil {
		return frag
	}
	if KindOf(root) == KindText {
		from, to := r.textSlice(root)
		if to > from {
			frag.AppendChild(NewText(root.Data[from:to]))
		}
		return frag
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if cl := r.cloneWithin(c); cl != nil {
			frag.AppendChild(cl)
		}
	}
	return frag
}

func (r *Range) cloneWithin(n *html.Node) *html.Node {
	switch r.cover(n) {
	case covOutside:
		return nil
	case covFull:
		return DeepClone(n)
	}
	if KindOf(n) == KindText {
		from, to := r.textSlice(n)
		if to <= from {
			return nil
		}
		return NewText(n.Data[from:to])
	}
	cl := ShallowClone(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cc := r.cloneWithin(c); cc != nil {
			cl.AppendChild(cc)
		}
	}
	return cl
}

// DeleteContents removes the selected content and collapses r to its start.
func (r *Range) DeleteContents() {
	if r.Collapsed() {
		return
	}
	root := r.CommonAncestor()
	if root == nil {
		return
	}
	if KindOf(root) == KindText {
		from, to := r.textSlice(root)
		root.Data = root.Data[:from] + root.Data[to:]
		r.Collapse(true)
		return
	}
	r.deleteWithin(root)
	r.Collapse(true)
}

func (r *Range) deleteWithin(n *html.Node) {
	kids := Children(n)
	covers := make([]coverage, len(kids))
	for i, c := range kids {
		covers[i] = r.cover(c)
	}
	for i, c := range kids {
		switch covers[i] {
		case covOutside:
		case covFull:
			n.RemoveChild(c)
		default:
			if KindOf(c) == KindText {
				from, to := r.textSlice(c)
				c.Data = c.Data[:from] + c.Data[to:]
				continue
			}
			r.deleteWithin(c)
		}
	}
}

// SplitText splits a text node at a byte offset and returns the new node
// holding the tail. The tail is nil when offset is at either end.
func SplitText(n *html.Node, offset int) *html.Node {
	if KindOf(n) != KindText || offset <= 0 || offset >= len(n.Data) || n.Parent == nil {
		return nil
	}
	tail := NewText(n.Data[offset:])
	n.Data = n.Data[:offset]
	n.Parent.InsertBefore(tail, n.NextSibling)
	return tail
}

// InsertNode inserts n at the start of r and returns the point right after it.
func (r *Range) InsertNode(n *html.Node) Point {
	p := r.Start
	Detach(n)
	if KindOf(p.Node) == KindText {
		switch {
		case p.Offset <= 0:
			p.Node.Parent.InsertBefore(n, p.Node)
		case p.Offset >= len(p.Node.Data):
			p.Node.Parent.InsertBefore(n, p.Node.NextSibling)
		default:
			tail := SplitText(p.Node, p.Offset)
			p.Node.Parent.InsertBefore(n, tail)
		}
	} else {
		p.Node.InsertBefore(n, ChildAt(p.Node, p.Offset))
	}
	r.Start, r.End = Before(n), After(n)
	return r.End
}

// StepBackward moves p one caret unit toward the start of root.
func StepBackward(p Point, root *html.Node) Point {
	for {
		n := p.Node
		if KindOf(n) == KindText {
			if p.Offset > 0 {
				_, size := utf8.DecodeLastRuneInString(n.Data[:p.Offset])
				return Point{Node: n, Offset: p.Offset - size}
			}
		} else if p.Offset > 0 {
			c := ChildAt(n, p.Offset-1)
			switch {
			case KindOf(c) == KindText:
				if c.Data == "" {
					p = Point{Node: n, Offset: p.Offset - 1}
					continue
				}
				_, size := utf8.DecodeLastRuneInString(c.Data)
				return Point{Node: c, Offset: len(c.Data) - size}
			case c.FirstChild != nil && !IsAtomic(c):
				p = EndOf(c)
				continue
			case KindOf(c) == KindElement && !IsAtomic(c):
				p = Point{Node: n, Offset: p.Offset - 1}
				continue
			default:
				return Point{Node: n, Offset: p.Offset - 1}
			}
		}
		if n == root || n.Parent == nil {
			return p
		}
		p = Before(n)
	}
}

// StepForward moves p one caret unit toward the end of root.
func StepForward(p Point, root *html.Node) Point {
	for {
		n := p.Node
		if KindOf(n) == KindText {
			if p.Offset < len(n.Data) {
				_, size := utf8.DecodeRuneInString(n.Data[p.Offset:])
				return Point{Node: n, Offset: p.Offset + size}
			}
		} else if p.Offset < ChildCount(n) {
			c := ChildAt(n, p.Offset)
			switch {
			case KindOf(c) == KindText:
				if c.Data == "" {
					p = Point{Node: n, Offset: p.Offset + 1}
					continue
				}
				_, size := utf8.DecodeRuneInString(c.Data)
				return Point{Node: c, Offset: size}
			case c.FirstChild != nil && !IsAtomic(c):
				p = Point{Node: c}
				continue
			case KindOf(c) == KindElement && !IsAtomic(c):
				p = Point{Node: n, Offset: p.Offset + 1}
				continue
			default:
				return Point{Node: n, Offset: p.Offset + 1}
			}
		}
		if n == root || n.Parent == nil {
			return p
		}
		p = After(n)
	}
}
