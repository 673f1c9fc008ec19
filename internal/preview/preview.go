// Package preview shows a read-only rendering of an editable's formatted
// text in place of the live input.
package preview

import (
	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/editable"
	"richinput/internal/signal"
)

const (
	ClassInputPreview  = "input-preview"
	ClassPreviewHidden = "preview-hidden"
)

type Previewer struct {
	ed   *editable.Editable
	root *html.Node

	hidden     []*html.Node
	previewing *signal.Signal[bool]
	detachFns  []func()
}

// New creates a previewer for ed and registers it to follow ed's attach
// state. The editable root and its overlay nodes are always hidden while
// previewing, together with any extra nodes given.
func New(ed *editable.Editable, hidden ...*html.Node) *Previewer {
	p := &Previewer{
		ed:         ed,
		root:       dom.NewElement("div"),
		previewing: signal.New(false),
	}
	dom.AddClass(p.root, ClassInputPreview)
	dom.AddClass(p.root, ClassPreviewHidden)

	p.hidden = append(p.hidden, ed.Root())
	p.hidden = append(p.hidden, ed.EmojiRenderer().Nodes()...)
	p.hidden = append(p.hidden, hidden...)
	ed.AddCompanion(p)
	return p
}

func (p *Previewer) Root() *html.Node                   { return p.root }
func (p *Previewer) IsPreviewing() *signal.Signal[bool] { return p.previewing }

func (p *Previewer) AddHiddenOnPreview(nodes ...*html.Node) {
	p.hidden = append(p.hidden, nodes...)
}

// AttachTo mounts the preview root. Focusing the editable always ends the
// preview.
func (p *Previewer) AttachTo(container *html.Node) {
	container.AppendChild(p.root)
	p.detachFns = append(p.detachFns, p.ed.Document().AddEventListener(p.ed.Root(), "focus", func(*dom.Event) {
		p.End()
	}))
}

func (p *Previewer) DetachFrom(container *html.Node) {
	for _, fn := range p.detachFns {
		fn()
	}
	p.detachFns = nil
	if p.root.Parent == container {
		dom.Detach(p.root)
	}
}

// Refresh re-renders the current text. It does nothing outside a preview.
func (p *Previewer) Refresh() {
	if !p.previewing.Get() {
		return
	}
	ft := p.ed.GetFormattedText(editable.GetOptions{})
	dom.SetInnerHTML(p.root, p.ed.Marshaler().ToHTML(ft))
}

func (p *Previewer) Start() {
	if p.previewing.Get() {
		return
	}
	p.previewing.Set(true)
	p.Refresh()
	p.ed.Logger().Debug().Msg("[preview] start")

	p.ed.Scheduler().RequestMutation(func() {
		for _, n := range p.hidden {
			dom.AddClass(n, ClassPreviewHidden)
		}
		dom.RemoveClass(p.root, ClassPreviewHidden)
	})
}

func (p *Previewer) End() {
	if !p.previewing.Get() {
		return
	}
	p.previewing.Set(false)
	p.ed.Logger().Debug().Msg("[preview] end")

	p.ed.Scheduler().RequestMutation(func() {
		for _, n := range p.hidden {
			dom.RemoveClass(n, ClassPreviewHidden)
		}
		dom.AddClass(p.root, ClassPreviewHidden)
		dom.RemoveChildren(p.root)
	})
}
