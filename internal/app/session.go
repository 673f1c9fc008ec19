// Package app hosts a composer: an editable input with its toolbar,
// tooltips, preview and emoji overlay, driven by platform events.
package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"richinput/internal/composer"
	"richinput/internal/config"
	"richinput/internal/dom"
	"richinput/internal/editable"
	"richinput/internal/emojidata"
	"richinput/internal/emojirender"
	"richinput/internal/htmlfmt"
	"richinput/internal/platform"
	"richinput/internal/preview"
	"richinput/internal/render"
	"richinput/internal/schedule"
	"richinput/internal/ui"
	"richinput/pkg/fmttext"
)

const maxHistory = 200

var ErrNoWindow = errors.New("app: nil window")

// Formats lists the toolbar buttons in display order.
var Formats = []string{"bold", "italic", "underline", "strikethrough", "monospace", "spoiler", "quote"}

type Option func(*Session)

func WithClock(c clock.Clock) Option { return func(s *Session) { s.clk = c } }

func WithLogger(l zerolog.Logger) Option { return func(s *Session) { s.log = l } }

func WithLayout(l emojirender.Layout) Option { return func(s *Session) { s.layout = l } }

// WithMembers sets who the mention tooltip can suggest.
func WithMembers(currentUserID string, members, inlineBots []composer.User) Option {
	return func(s *Session) {
		s.currentUserID = currentUserID
		s.members = members
		s.bots = inlineBots
	}
}

// Session wires one editable and its consumers into a document. It is
// driven from a single loop and is not safe for concurrent use.
type Session struct {
	cfg    *config.Config
	log    zerolog.Logger
	clk    clock.Clock
	sched  *schedule.Scheduler
	layout emojirender.Layout

	doc       *dom.Document
	container *html.Node
	ed        *editable.Editable

	Formatter *composer.Formatter
	Mentions  *composer.MentionTooltip
	Emoji     *composer.EmojiTooltip
	Preview   *preview.Previewer
	send      *composer.SendHandler

	provider *emojidata.Provider
	registry *emojidata.Registry

	currentUserID string
	members       []composer.User
	bots          []composer.User

	sent   []fmttext.FormattedText
	status string

	undoHistory []string
	redoHistory []string
	lastHTML    string
	restoring   bool
	unsubscribe func()
}

func NewSession(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{cfg: cfg, log: zerolog.Nop(), doc: dom.NewDocument(), status: "Ready"}
	for _, opt := range opts {
		opt(s)
	}
	if s.clk == nil {
		s.clk = clock.New()
	}
	s.sched = schedule.New(s.clk)
	s.doc.Resize(cfg.Window.Width, cfg.Window.Height)

	s.provider = emojidata.NewProvider()
	s.registry = emojidata.NewRegistry(s.log, cfg.Emoji.CacheTTL)
	if cfg.Emoji.Manifest != "" {
		if err := s.registry.LoadManifest(cfg.Emoji.Manifest); err != nil {
			return nil, fmt.Errorf("load custom emoji: %w", err)
		}
	}

	emojiOpts := []emojirender.Option{
		emojirender.WithResolver(s.registry),
		emojirender.WithAnimation(cfg.Emoji.Animation),
		emojirender.WithSize(cfg.Emoji.SizePx),
		emojirender.WithResizeDelay(cfg.Emoji.ResizeDelay),
	}
	if s.layout != nil {
		emojiOpts = append(emojiOpts, emojirender.WithLayout(s.layout))
	}
	s.ed = editable.New(s.doc,
		editable.WithLogger(s.log),
		editable.WithScheduler(s.sched),
		editable.WithConfig(editable.Config{SanitizePaste: cfg.Editor.SanitizePaste}),
		editable.WithEmojiOptions(emojiOpts...),
	)
	s.ed.ApplyRootProperties(editable.RootProps{Placeholder: cfg.Editor.Placeholder})
	s.ed.EmojiRenderer().SetCustomColor(ui.Hex(ui.DefaultTheme().Text))

	s.Formatter = composer.NewFormatter(s.ed)
	s.Formatter.SetActive(true)
	s.Mentions = composer.NewMentionTooltip(s.ed, cfg.Tooltip.Throttle)
	s.Mentions.SetMembers(s.currentUserID, s.members, s.bots)
	s.Emoji = composer.NewEmojiTooltip(s.ed, s.provider, s.registry, cfg.Tooltip.Throttle)
	s.send = composer.NewSendHandler(s.ed, cfg.Send.CtrlEnter, s.onSend)
	s.Preview = preview.New(s.ed)

	s.unsubscribe = s.ed.HTML().Subscribe(s.recordHistory)

	s.container = dom.NewElement("div")
	s.doc.Body().AppendChild(s.container)
	if err := s.ed.AttachTo(s.container); err != nil {
		return nil, err
	}
	s.ed.Focus(true)
	s.log.Debug().Int("custom_emoji", s.registry.Len()).Msg("[app] session ready")
	return s, nil
}

func (s *Session) Editable() *editable.Editable   { return s.ed }
func (s *Session) Document() *dom.Document        { return s.doc }
func (s *Session) Scheduler() *schedule.Scheduler { return s.sched }
func (s *Session) Registry() *emojidata.Registry  { return s.registry }
func (s *Session) Sent() []fmttext.FormattedText  { return s.sent }
func (s *Session) Status() string                 { return s.status }

func (s *Session) onSend(ft fmttext.FormattedText) {
	s.sent = append(s.sent, ft)
	s.status = fmt.Sprintf("Sent %d message(s)", len(s.sent))
	s.log.Info().Int("length", len(ft.Text)).Int("entities", len(ft.Entities)).Msg("[app] message sent")
}

// Handle applies one platform event and runs the work it scheduled. It
// reports false once the window asked to close.
func (s *Session) Handle(ev platform.Event) bool {
	switch ev.Type {
	case platform.EventClose:
		return false
	case platform.EventWait:
		s.Advance(time.Duration(ev.WaitMs) * time.Millisecond)
		return true
	}
	platform.Apply(s.doc, ev)
	s.sched.Flush()
	return true
}

// Advance moves a mock clock forward, then fires due timers. With a real
// clock it only fires what is due.
func (s *Session) Advance(d time.Duration) {
	if mock, ok := s.clk.(*clock.Mock); ok && d > 0 {
		mock.Add(d)
	}
	s.sched.Tick()
}

// Run drives win until it closes, presenting one frame per batch of events.
func (s *Session) Run(win platform.Window) error {
	if win == nil {
		return ErrNoWindow
	}
	w, h := win.SizePx()
	fb := render.NewFrameBuffer(w, h)
	for {
		for _, ev := range win.PollEvents() {
			if !s.Handle(ev) {
				return nil
			}
		}
		s.sched.Tick()
		w, h = win.SizePx()
		fb.Resize(w, h)
		s.DrawChrome(fb, win.Scale())
		if err := win.Present(fb); err != nil {
			return fmt.Errorf("present frame: %w", err)
		}
	}
}

func (s *Session) View() ui.ShellView {
	view := ui.ShellView{
		Previewing: s.Preview.IsPreviewing().Get(),
		Focused:    s.ed.HasFocus(),
	}
	for _, f := range Formats {
		state := s.Formatter.Button(f)
		view.Buttons = append(view.Buttons, ui.ButtonView{
			Label:    f,
			Active:   state == composer.ButtonActive,
			Disabled: state == composer.ButtonDisabled,
		})
	}
	switch {
	case s.Mentions.IsOpen():
		view.TooltipRows = len(s.Mentions.Filtered())
		view.TooltipIndex = s.Mentions.Selected()
	case s.Emoji.IsOpen():
		view.TooltipRows = len(s.Emoji.Emoji()) + len(s.Emoji.CustomEmoji())
		view.TooltipIndex = s.Emoji.Selected()
	}
	return view
}

// DrawChrome paints the shell and composites the emoji overlay into the
// input area.
func (s *Session) DrawChrome(fb *render.FrameBuffer, scale float32) ui.Layout {
	layout := ui.DrawShell(fb, s.View(), ui.DefaultTheme(), scale)
	r := s.ed.EmojiRenderer()
	r.Render()
	normal, hq := r.Canvases()
	in := layout.Content
	fb.Blit(normal.Image(), in.X, in.Y, normal.W, normal.H, nil)
	fb.Blit(hq.Image(), in.X, in.Y, hq.W, hq.H, nil)
	return layout
}

func (s *Session) TogglePreview() {
	if s.Preview.IsPreviewing().Get() {
		s.Preview.End()
		s.ed.Focus(false)
	} else {
		s.Preview.Start()
	}
	s.sched.Flush()
}

// SelectedText is the plain text of the selection, with custom emoji as
// their alt text.
func (s *Session) SelectedText() string {
	markup := s.ed.GetSelectedHTML(editable.SelectedHTMLOptions{DropCustomEmoji: true})
	if markup == "" {
		return ""
	}
	return htmlfmt.Parse(markup, htmlfmt.ParseOptions{}).Text
}

// Cut copies the selection out and deletes it.
func (s *Session) Cut() string {
	text := s.SelectedText()
	if text != "" {
		s.ed.ExecCommand("delete", "")
		s.sched.Flush()
	}
	return text
}

func (s *Session) recordHistory(markup string) {
	if s.restoring {
		s.lastHTML = markup
		return
	}
	s.undoHistory = append(s.undoHistory, s.lastHTML)
	if len(s.undoHistory) > maxHistory {
		s.undoHistory = s.undoHistory[1:]
	}
	s.redoHistory = s.redoHistory[:0]
	s.lastHTML = markup
}

func (s *Session) restore(markup string) {
	s.restoring = true
	s.ed.SetFormattedText(htmlfmt.Parse(markup, htmlfmt.ParseOptions{}))
	s.restoring = false
	s.sched.Flush()
}

func (s *Session) Undo() bool {
	if len(s.undoHistory) == 0 {
		return false
	}
	last := s.undoHistory[len(s.undoHistory)-1]
	s.undoHistory = s.undoHistory[:len(s.undoHistory)-1]
	s.redoHistory = append(s.redoHistory, s.lastHTML)
	s.restore(last)
	return true
}

func (s *Session) Redo() bool {
	if len(s.redoHistory) == 0 {
		return false
	}
	last := s.redoHistory[len(s.redoHistory)-1]
	s.redoHistory = s.redoHistory[:len(s.redoHistory)-1]
	s.undoHistory = append(s.undoHistory, s.lastHTML)
	s.restore(last)
	return true
}

// Close detaches everything the session attached.
func (s *Session) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.Mentions.Destroy()
	s.Emoji.Destroy()
	s.Formatter.Close()
	s.send.Close()
	if !s.ed.IsAttached(nil) {
		return nil
	}
	return s.ed.DetachFrom(s.container)
}
