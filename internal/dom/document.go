package dom

import (
	"strings"

	"golang.org/x/net/html"
)

type Event struct {
	Type    string
	Target  *html.Node
	Bubbles bool

	Key   string
	Ctrl  bool
	Meta  bool
	Alt   bool
	Shift bool

	InputType string
	Data      string

	Clipboard *DataTransfer

	Width      int
	Height     int
	PixelRatio float64
	Hidden     bool

	defaultPrevented bool
	stopped          bool
}

func (e *Event) PreventDefault()        { e.defaultPrevented = true }
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }
func (e *Event) StopPropagation()       { e.stopped = true }

// Mod reports whether the platform command modifier is held.
func (e *Event) Mod() bool { return e.Ctrl || e.Meta }

type TransferItem struct {
	Kind string
	Type string
	Name string
	Data []byte
}

// DataTransfer carries clipboard payloads keyed by MIME type.
type DataTransfer struct {
	data  map[string]string
	Items []TransferItem
}

func NewDataTransfer() *DataTransfer {
	return &DataTransfer{data: map[string]string{}}
}

func (dt *DataTransfer) SetData(mime, v string) {
	dt.data[mime] = v
	dt.Items = append(dt.Items, TransferItem{Kind: "string", Type: mime, Data: []byte(v)})
}

func (dt *DataTransfer) GetData(mime string) string {
	if dt == nil {
		return ""
	}
	return dt.data[mime]
}

func (dt *DataTransfer) AddFile(name, mime string, data []byte) {
	dt.Items = append(dt.Items, TransferItem{Kind: "file", Type: mime, Name: name, Data: data})
}

func (dt *DataTransfer) Files() []TransferItem {
	if dt == nil {
		return nil
	}
	var out []TransferItem
	for _, it := range dt.Items {
		if it.Kind == "file" {
			out = append(out, it)
		}
	}
	return out
}

type listener struct {
	typ string
	fn  func(*Event)
}

// Document owns a node tree and the browser state around it. A nil event
// target stands for the window/document itself.
type Document struct {
	Root *html.Node
	head *html.Node
	body *html.Node

	listeners map[*html.Node][]*listener

	anchor Point
	focus  Point
	hasSel bool

	active *html.Node

	styleWithCSS bool

	width      int
	height     int
	pixelRatio float64
	hidden     bool
}

func NewDocument() *Document {
	root, err := html.Parse(strings.NewReader("<!DOCTYPE html><html><head></head><body></body></html>"))
	if err != nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	d := &Document{Root: root, listeners: map[*html.Node][]*listener{}, pixelRatio: 1, width: 800, height: 600}
	Walk(root, func(n *html.Node) bool {
		switch {
		case IsTag(n, "head"):
			d.head = n
		case IsTag(n, "body"):
			d.body = n
		}
		return true
	})
	if d.body == nil {
		d.body = NewElement("body")
		root.AppendChild(d.body)
	}
	return d
}

func (d *Document) Body() *html.Node { return d.body }
func (d *Document) Head() *html.Node { return d.head }

func (d *Document) IsConnected(n *html.Node) bool {
	return n != nil && Contains(d.Root, n)
}

// AddEventListener registers fn for typ on target and returns its remover.
func (d *Document) AddEventListener(target *html.Node, typ string, fn func(*Event)) func() {
	l := &listener{typ: typ, fn: fn}
	d.listeners[target] = append(d.listeners[target], l)
	return func() {
		ls := d.listeners[target]
		for i, other := range ls {
			if other == l {
				ls = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
		if len(ls) == 0 {
			delete(d.listeners, target)
			return
		}
		d.listeners[target] = ls
	}
}

func (d *Document) ListenerCount() int {
	n := 0
	for _, ls := range d.listeners {
		n += len(ls)
	}
	return n
}

func (d *Document) ListenersOn(target *html.Node, typ string) int {
	n := 0
	for _, l := range d.listeners[target] {
		if typ == "" || l.typ == typ {
			n++
		}
	}
	return n
}

// Dispatch delivers ev to its target, then to ancestors and the document
// when it bubbles. It returns false when a listener prevented the default.
func (d *Document) Dispatch(ev *Event) bool {
	var chain []*html.Node
	if ev.Target != nil {
		chain = append(chain, ev.Target)
		if ev.Bubbles {
			for n := ev.Target.Parent; n != nil; n = n.Parent {
				chain = append(chain, n)
			}
		}
	}
	if ev.Target == nil || ev.Bubbles {
		chain = append(chain, nil)
	}
	for _, node := range chain {
		for _, l := range append([]*listener(nil), d.listeners[node]...) {
			if l.typ == ev.Type {
				l.fn(ev)
			}
		}
		if ev.stopped {
			break
		}
	}
	return !ev.defaultPrevented
}

// Selection returns the current selection in document order, or nil.
func (d *Document) Selection() *Range {
	if !d.hasSel || !d.anchor.Valid() || !d.focus.Valid() {
		return nil
	}
	if !d.IsConnected(d.anchor.Node) || !d.IsConnected(d.focus.Node) {
		return nil
	}
	return NewRange(d.anchor, d.focus)
}

// SelectionFocus is the moving end of the selection.
func (d *Document) SelectionFocus() (Point, bool) {
	return d.focus, d.hasSel
}

func (d *Document) SetSelection(r *Range) {
	if r == nil {
		d.ClearSelection()
		return
	}
	d.setSelection(r.Start, r.End)
}

func (d *Document) setSelection(anchor, focus Point) {
	d.anchor, d.focus, d.hasSel = anchor, focus, true
	d.Dispatch(&Event{Type: "selectionchange"})
}

func (d *Document) ClearSelection() {
	if !d.hasSel {
		return
	}
	d.hasSel = false
	d.anchor, d.focus = Point{}, Point{}
	d.Dispatch(&Event{Type: "selectionchange"})
}

func (d *Document) ActiveElement() *html.Node { return d.active }

// Focus moves focus to el firing blur and focus events.
func (d *Document) Focus(el *html.Node) {
	if el == nil || el == d.active {
		return
	}
	prev := d.active
	d.active = el
	if prev != nil {
		d.Dispatch(&Event{Type: "blur", Target: prev})
	}
	d.Dispatch(&Event{Type: "focus", Target: el})
}

func (d *Document) Blur() {
	if d.active == nil {
		return
	}
	prev := d.active
	d.active = nil
	d.Dispatch(&Event{Type: "blur", Target: prev})
}

// HasFocus reports whether el is the focused element.
func (d *Document) HasFocus(el *html.Node) bool {
	return el != nil && d.active == el
}

func (d *Document) Viewport() (int, int) { return d.width, d.height }
func (d *Document) PixelRatio() float64  { return d.pixelRatio }
func (d *Document) Hidden() bool         { return d.hidden }

func (d *Document) Resize(w, h int) {
	if w == d.width && h == d.height {
		return
	}
	d.width, d.height = w, h
	d.Dispatch(&Event{Type: "resize", Width: w, Height: h})
}

func (d *Document) SetPixelRatio(r float64) {
	if r <= 0 || r == d.pixelRatio {
		return
	}
	d.pixelRatio = r
	d.Dispatch(&Event{Type: "dprchange", PixelRatio: r})
}

func (d *Document) SetHidden(hidden bool) {
	if hidden == d.hidden {
		return
	}
	d.hidden = hidden
	d.Dispatch(&Event{Type: "visibilitychange", Hidden: hidden})
}
