// Package editable owns a contenteditable root and keeps the formatted text
// model, the selection and the emoji overlay in step with what the user
// edits.
package editable

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/emojirender"
	"richinput/internal/htmlfmt"
	"richinput/internal/schedule"
	"richinput/internal/signal"
)

var (
	ErrAlreadyAttached = errors.New("editable: already attached")
	ErrNotAttached     = errors.New("editable: not attached")
	ErrNoContainer     = errors.New("editable: nil container")
)

const (
	// ExecFixClass is set on the root while a native command runs.
	ExecFixClass = "for-exec-command-fix"
	// ImgAltPrefix marks a matchable that is the alt text of an inline image.
	ImgAltPrefix = "IMG_ALT__"

	maxAncestorWalk = 32
)

// Selection mirrors the document selection while it lies inside the root.
// The zero value means there is no such selection.
type Selection struct {
	Collapsed bool
	Range     dom.Range
}

func (s Selection) Valid() bool { return s.Range.Start.Node != nil }

// Companion is attached and detached together with the editable.
type Companion interface {
	AttachTo(container *html.Node)
	DetachFrom(container *html.Node)
}

type Config struct {
	SanitizePaste bool
}

func DefaultConfig() Config {
	return Config{SanitizePaste: true}
}

type Option func(*Editable)

func WithLogger(l zerolog.Logger) Option { return func(e *Editable) { e.log = l } }

func WithScheduler(s *schedule.Scheduler) Option {
	return func(e *Editable) {
		if s != nil {
			e.sched = s
		}
	}
}

func WithMarshaler(m *htmlfmt.Marshaler) Option {
	return func(e *Editable) {
		if m != nil {
			e.marshaler = m
		}
	}
}

func WithConfig(c Config) Option { return func(e *Editable) { e.cfg = c } }

// WithEmojiOptions passes options through to the overlay renderer.
func WithEmojiOptions(opts ...emojirender.Option) Option {
	return func(e *Editable) { e.emojiOpts = append(e.emojiOpts, opts...) }
}

type Editable struct {
	doc       *dom.Document
	root      *html.Node
	log       zerolog.Logger
	sched     *schedule.Scheduler
	marshaler *htmlfmt.Marshaler
	cfg       Config
	emojiOpts []emojirender.Option
	emoji     *emojirender.Renderer

	html      *signal.Signal[string]
	empty     *signal.Signal[bool]
	matchable *signal.Signal[string]
	selection *signal.Signal[Selection]

	attached    *html.Node
	detachFns   []func()
	companions  []Companion
	disableEdit bool

	keyboard []keyEntry
	paste    []pasteEntry
	seq      uint64
}

func New(doc *dom.Document, opts ...Option) *Editable {
	e := &Editable{
		doc:       doc,
		log:       zerolog.Nop(),
		cfg:       DefaultConfig(),
		html:      signal.New(""),
		empty:     signal.New(true),
		matchable: signal.New(""),
		selection: signal.New(Selection{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.sched == nil {
		e.sched = schedule.New(nil)
	}
	if e.marshaler == nil {
		e.marshaler = htmlfmt.NewMarshaler("")
	}
	e.root = dom.NewElement("div")
	e.updateRootProps()

	emojiOpts := append([]emojirender.Option{
		emojirender.WithScheduler(e.sched),
		emojirender.WithLogger(e.log),
	}, e.emojiOpts...)
	e.emoji = emojirender.New(doc, e.root, emojiOpts...)

	e.AddKeyboardHandler(KeyboardHandler{Priority: PriorityDefault, OnKeydown: e.blockquoteEnter})
	return e
}

func (e *Editable) Root() *html.Node                     { return e.root }
func (e *Editable) Document() *dom.Document              { return e.doc }
func (e *Editable) Scheduler() *schedule.Scheduler       { return e.sched }
func (e *Editable) Marshaler() *htmlfmt.Marshaler        { return e.marshaler }
func (e *Editable) EmojiRenderer() *emojirender.Renderer { return e.emoji }
func (e *Editable) Logger() *zerolog.Logger              { return &e.log }

func (e *Editable) HTML() *signal.Signal[string]         { return e.html }
func (e *Editable) Empty() *signal.Signal[bool]          { return e.empty }
func (e *Editable) Matchable() *signal.Signal[string]    { return e.matchable }
func (e *Editable) Selection() *signal.Signal[Selection] { return e.selection }

// AddCompanion registers c to follow the editable's attach state. A
// companion added while attached is attached right away.
func (e *Editable) AddCompanion(c Companion) {
	e.companions = append(e.companions, c)
	if e.attached != nil {
		c.AttachTo(e.attached)
	}
}

func (e *Editable) updateRootProps() {
	if e.disableEdit {
		dom.SetAttr(e.root, "contenteditable", "false")
	} else {
		dom.SetAttr(e.root, "contenteditable", "true")
	}
	dom.SetAttr(e.root, "role", "textbox")
	dom.SetAttr(e.root, "dir", "auto")
}

type RootProps struct {
	ClassName   string
	DisableEdit *bool
	Placeholder string
	TabIndex    *int
}

func (e *Editable) ApplyRootProperties(props RootProps) {
	if props.ClassName != "" {
		dom.SetAttr(e.root, "class", props.ClassName)
	}
	if props.Placeholder != "" {
		dom.SetAttr(e.root, "aria-label", props.Placeholder)
	}
	if props.TabIndex != nil {
		dom.SetAttr(e.root, "tabindex", strconv.Itoa(*props.TabIndex))
	}
	if props.DisableEdit != nil {
		e.disableEdit = *props.DisableEdit
	}
	e.updateRootProps()
}

func (e *Editable) listen(target *html.Node, typ string, fn func(*dom.Event)) {
	e.detachFns = append(e.detachFns, e.doc.AddEventListener(target, typ, fn))
}

// AttachTo mounts the root, the overlay canvases and every companion into
// container. Attaching twice is a caller bug and fails.
func (e *Editable) AttachTo(container *html.Node) error {
	if e.attached != nil {
		e.log.Error().Err(ErrAlreadyAttached).Msg("[editable] tried to attach when already attached")
		return ErrAlreadyAttached
	}
	if container == nil {
		return ErrNoContainer
	}
	e.attached = container
	container.AppendChild(e.root)

	e.listen(e.root, "click", func(*dom.Event) { e.Focus(false) })
	e.listen(e.root, "input", func(*dom.Event) { e.HandleContentUpdate() })
	e.listen(e.root, "keydown", e.onKeydown)
	e.listen(nil, "selectionchange", func(*dom.Event) { e.updateSelection() })
	e.listen(nil, "paste", e.onPaste)

	e.emoji.AttachTo(container)
	for _, c := range e.companions {
		c.AttachTo(container)
	}
	e.updateSelection()
	return nil
}

// DetachFrom reverses AttachTo: listeners, players, overlay nodes and
// companions are all released before it returns.
func (e *Editable) DetachFrom(container *html.Node) error {
	if e.attached == nil || (container != nil && container != e.attached) {
		e.log.Warn().Err(ErrNotAttached).Msg("[editable] tried to detach when not attached")
		return ErrNotAttached
	}
	for len(e.detachFns) > 0 {
		fn := e.detachFns[len(e.detachFns)-1]
		e.detachFns = e.detachFns[:len(e.detachFns)-1]
		fn()
	}
	for i := len(e.companions) - 1; i >= 0; i-- {
		e.companions[i].DetachFrom(e.attached)
	}
	e.emoji.DetachFrom(e.attached)
	dom.Detach(e.root)
	e.attached = nil
	e.selection.Set(Selection{})
	e.matchable.Set("")
	return nil
}

// IsAttached reports whether the editable is mounted, into container when
// one is given.
func (e *Editable) IsAttached(container *html.Node) bool {
	if container != nil {
		return e.attached == container
	}
	return e.attached != nil
}

// Focus focuses the root. The caret moves to the end of the content when
// asked to or when the selection is elsewhere.
func (e *Editable) Focus(placeCaretAtEnd bool) {
	if !e.doc.IsConnected(e.root) {
		return
	}
	e.doc.Focus(e.root)
	if placeCaretAtEnd || !e.selectionInRoot() {
		e.doc.SetSelection(dom.Caret(dom.EndOf(e.root)))
	}
}

func (e *Editable) Blur() {
	if e.doc.HasFocus(e.root) {
		e.doc.Blur()
	}
}

func (e *Editable) HasFocus() bool { return e.doc.HasFocus(e.root) }
