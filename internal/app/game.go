package app

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/rs/zerolog"
	"github.com/sqweek/dialog"
	imgclip "golang.design/x/clipboard"

	"richinput/internal/config"
	"richinput/internal/dom"
	"richinput/internal/editable"
	"richinput/internal/platform"
	"richinput/internal/render"
	"richinput/internal/ui"
	"richinput/pkg/fmttext"
)

var namedKeys = []struct {
	key  ebiten.Key
	name string
}{
	{ebiten.KeyEnter, "Enter"},
	{ebiten.KeyKPEnter, "Enter"},
	{ebiten.KeyBackspace, "Backspace"},
	{ebiten.KeyDelete, "Delete"},
	{ebiten.KeyArrowLeft, "ArrowLeft"},
	{ebiten.KeyArrowRight, "ArrowRight"},
	{ebiten.KeyArrowUp, "ArrowUp"},
	{ebiten.KeyArrowDown, "ArrowDown"},
	{ebiten.KeyTab, "Tab"},
	{ebiten.KeyEscape, "Escape"},
	{ebiten.KeyHome, "Home"},
	{ebiten.KeyEnd, "End"},
}

var shortcutKeys = map[ebiten.Key]string{
	ebiten.KeyA: "a",
	ebiten.KeyB: "b",
	ebiten.KeyI: "i",
	ebiten.KeyK: "k",
	ebiten.KeyM: "m",
	ebiten.KeyP: "p",
	ebiten.KeyQ: "q",
	ebiten.KeyS: "s",
	ebiten.KeyU: "u",
}

var uiScales = []float32{1.0, 1.25, 1.5, 2.0}

// Game runs a session in an ebiten window.
type Game struct {
	s     *Session
	cfg   *config.Config
	log   zerolog.Logger
	theme ui.Theme
	fonts fontBank

	frameBuffer *render.FrameBuffer
	canvas      *ebiten.Image
	layout      ui.Layout

	scaleIdx   int
	screenW    int
	screenH    int
	dpr        float64
	focused    bool
	imageClip  bool
	draftPath  string
	draftPass  string
	encryption bool
}

func NewGame(s *Session, cfg *config.Config, log zerolog.Logger) *Game {
	g := &Game{
		s:         s,
		cfg:       cfg,
		log:       log,
		theme:     ui.DefaultTheme(),
		fonts:     newFontBank(),
		focused:   true,
		draftPass: cfg.Draft.Password,
	}
	if err := imgclip.Init(); err != nil {
		log.Warn().Err(err).Msg("[app] image clipboard unavailable")
	} else {
		g.imageClip = true
	}
	s.Formatter.OnLinkRequest = g.linkFromClipboard
	return g
}

func (g *Game) Run() error {
	ebiten.SetWindowTitle(g.cfg.Window.Title)
	ebiten.SetWindowSize(g.cfg.Window.Width, g.cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(480, 320, -1, -1)
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

func (g *Game) scale() float32 { return uiScales[g.scaleIdx] }

func (g *Game) emit(ev platform.Event) {
	g.s.Handle(ev)
}

func (g *Game) Update() error {
	g.syncWindow()

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	alt := ebiten.IsKeyPressed(ebiten.KeyAlt)
	mods := dom.Modifiers{Ctrl: ctrl, Shift: shift, Alt: alt}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.s.TogglePreview()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		return ebiten.Termination
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.click(ebiten.CursorPosition())
	}

	if ctrl {
		if g.hostShortcut(shift) {
			g.s.Advance(0)
			return nil
		}
		for key, name := range shortcutKeys {
			if inpututil.IsKeyJustPressed(key) {
				g.emit(platform.Event{Type: platform.EventKeyDown, Key: name, Mods: mods})
			}
		}
	}

	for _, k := range namedKeys {
		if inpututil.IsKeyJustPressed(k.key) {
			g.emit(platform.Event{Type: platform.EventKeyDown, Key: k.name, Mods: mods})
		}
	}

	if !ctrl {
		var sb strings.Builder
		for _, r := range ebiten.AppendInputChars(nil) {
			if r < 0x20 || !utf8.ValidRune(r) {
				continue
			}
			sb.WriteRune(r)
		}
		if sb.Len() > 0 {
			g.emit(platform.Event{Type: platform.EventTextInput, Text: sb.String()})
		}
	}

	g.s.Advance(0)
	return nil
}

// syncWindow turns window changes into document events.
func (g *Game) syncWindow() {
	w, h := ebiten.WindowSize()
	if w != g.screenW || h != g.screenH {
		g.screenW, g.screenH = w, h
		g.emit(platform.Event{Type: platform.EventResize, Width: w, Height: h})
	}
	if m := ebiten.Monitor(); m != nil {
		if dpr := m.DeviceScaleFactor(); dpr != g.dpr {
			g.dpr = dpr
			g.emit(platform.Event{Type: platform.EventDPIChanged, Scale: float32(dpr)})
		}
	}
	if focused := ebiten.IsFocused(); focused != g.focused {
		g.focused = focused
		g.emit(platform.Event{Type: platform.EventVisibility, Hidden: !focused})
	}
}

func (g *Game) hostShortcut(shift bool) bool {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyV):
		g.paste()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copySelection(false)
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		g.copySelection(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyZ):
		if shift {
			g.s.Redo()
		} else {
			g.s.Undo()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyY):
		g.s.Redo()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		g.report(g.openDraftDialog())
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.report(g.saveDraft(shift))
	case inpututil.IsKeyJustPressed(ebiten.KeyE):
		g.encryption = !g.encryption
		g.s.status = fmt.Sprintf("Draft encryption %v", g.encryption)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		g.bumpUIScale(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		g.bumpUIScale(-1)
	default:
		return false
	}
	return true
}

func (g *Game) report(err error) {
	if err == nil {
		return
	}
	g.s.status = err.Error()
	g.log.Warn().Err(err).Msg("[app] action failed")
}

func (g *Game) paste() {
	ev := platform.Event{Type: platform.EventPaste}
	if s, err := clipboard.ReadAll(); err == nil {
		ev.Text = s
	} else {
		g.log.Debug().Err(err).Msg("[app] text clipboard read failed")
	}
	if g.imageClip {
		if img := imgclip.Read(imgclip.FmtImage); len(img) > 0 {
			ev.Files = append(ev.Files, dom.TransferItem{Kind: "file", Type: "image/png", Name: "clipboard.png", Data: img})
		}
	}
	if ev.Text == "" && len(ev.Files) == 0 {
		return
	}
	g.emit(ev)
}

func (g *Game) copySelection(cut bool) {
	var s string
	if cut {
		s = g.s.Cut()
	} else {
		s = g.s.SelectedText()
	}
	if s == "" {
		return
	}
	if err := clipboard.WriteAll(s); err != nil {
		g.s.status = "Copy failed: " + err.Error()
	}
}

// linkFromClipboard completes a link request with the URL on the clipboard.
func (g *Game) linkFromClipboard() {
	raw, err := clipboard.ReadAll()
	raw = strings.TrimSpace(raw)
	if err != nil || raw == "" || strings.ContainsAny(raw, " \n") {
		g.s.status = "Copy a URL first to make a link"
		return
	}
	g.s.Formatter.Link(raw)
}

func (g *Game) openDraftDialog() error {
	path, err := dialog.File().Filter("Drafts", strings.TrimPrefix(DraftExt, ".")).SetStartDir(g.cfg.Draft.Dir).Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return nil
		}
		return err
	}
	path = filepath.Clean(path)
	info, err := fmttext.InspectEnvelope(path)
	if err != nil {
		return err
	}
	g.encryption = info.Encrypted
	if err := g.s.LoadDraft(path, g.draftPass); err != nil {
		if errors.Is(err, fmttext.ErrPasswordRequired) || errors.Is(err, fmttext.ErrInvalidPassword) {
			g.s.status = fmt.Sprintf("Password required for %q: set RICHINPUT_DRAFT_PASSWORD", info.Key)
			return nil
		}
		return err
	}
	g.draftPath = path
	return nil
}

func (g *Game) saveDraft(saveAs bool) error {
	path := g.draftPath
	if saveAs || path == "" {
		p, err := dialog.File().Filter("Drafts", strings.TrimPrefix(DraftExt, ".")).SetStartDir(g.cfg.Draft.Dir).Save()
		if err != nil {
			if errors.Is(err, dialog.ErrCancelled) {
				return nil
			}
			return err
		}
		if filepath.Ext(p) == "" {
			p += DraftExt
		}
		path = p
	}
	opts := fmttext.SaveOptions{
		Compression: g.cfg.Draft.Compress,
		Encryption:  fmttext.EncryptionOptions{Enabled: g.encryption, Password: g.draftPass},
	}
	if err := g.s.SaveDraft(path, opts); err != nil {
		return err
	}
	g.draftPath = path
	return nil
}

// SetDraftPassword sets the password used for sealed drafts.
func (g *Game) SetDraftPassword(pw string) { g.draftPass = pw }

func (g *Game) bumpUIScale(delta int) {
	next := g.scaleIdx + delta
	if next < 0 || next >= len(uiScales) {
		return
	}
	g.scaleIdx = next
	g.s.status = fmt.Sprintf("UI scale %.0f%%", g.scale()*100)
}

func (g *Game) click(x, y int) {
	for i, b := range g.layout.Buttons {
		if b.Contains(x, y) {
			g.applyFormat(Formats[i])
			return
		}
	}
	if g.layout.Input.Contains(x, y) {
		if g.s.Preview.IsPreviewing().Get() {
			g.s.TogglePreview()
		}
		g.s.doc.Click(g.s.ed.Root())
		g.s.sched.Flush()
	}
}

func (g *Game) applyFormat(name string) {
	f := g.s.Formatter
	switch name {
	case "bold":
		f.Bold()
	case "italic":
		f.Italic()
	case "underline":
		f.Underline()
	case "strikethrough":
		f.Strikethrough()
	case "monospace":
		f.Monospace()
	case "spoiler":
		f.Spoiler()
	case "quote":
		f.Quote()
	}
	g.s.sched.Flush()
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (g *Game) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if g.frameBuffer == nil || g.frameBuffer.W != w || g.frameBuffer.H != h {
		g.frameBuffer = render.NewFrameBuffer(w, h)
		g.canvas = ebiten.NewImage(w, h)
	}
	g.layout = g.s.DrawChrome(g.frameBuffer, g.scale())
	g.canvas.WritePixels(g.frameBuffer.Pixels)
	screen.DrawImage(g.canvas, nil)

	labelFace := g.fonts.face(11, g.scale(), false, false, false)
	for i, b := range g.layout.Buttons {
		label := strings.ToUpper(Formats[i][:1])
		text.Draw(screen, label, labelFace, b.X+(b.W-measureString(labelFace, label))/2, b.Y+b.H*2/3, g.theme.Text)
	}

	ft := g.s.ed.GetFormattedText(editable.GetOptions{NoMarkdown: !g.s.Preview.IsPreviewing().Get()})
	g.drawFormatted(screen, ft)
	g.drawTooltip(screen)

	statusFace := g.fonts.face(10, g.scale(), false, false, false)
	status := fmt.Sprintf("[ %d chars ] [ %s ]", utf8.RuneCountInString(ft.Text), g.s.Status())
	text.Draw(screen, status, statusFace, 12, h-10, color.RGBA{R: 42, G: 56, B: 80, A: 255})
}

// drawFormatted lays out ft line by line, switching faces and colors at
// entity boundaries.
func (g *Game) drawFormatted(screen *ebiten.Image, ft fmttext.FormattedText) {
	const size = 14
	in := g.layout.Content
	lineH := int(float32(size+6) * g.scale())
	x, y := in.X, in.Y+lineH

	for _, seg := range ui.Segments(ft) {
		var bold, italic, mono, hidden bool
		clr := color.Color(g.theme.Text)
		for _, e := range seg.Active {
			switch e.Type {
			case fmttext.EntityBold, fmttext.EntityMentionName:
				bold = true
			case fmttext.EntityItalic:
				italic = true
			case fmttext.EntityCode, fmttext.EntityPre:
				mono = true
				clr = g.theme.Code
			case fmttext.EntityTextURL:
				clr = g.theme.Link
			case fmttext.EntitySpoiler:
				hidden = true
			}
		}
		face := g.fonts.face(size, g.scale(), bold, italic, mono)
		for i, line := range strings.Split(ft.Text[seg.Start:seg.End], "\n") {
			if i > 0 {
				x, y = in.X, y+lineH
			}
			if line == "" {
				continue
			}
			adv := measureString(face, line)
			if hidden {
				g.fillScreenRect(screen, x, y-lineH*3/4, adv, lineH, g.theme.Spoiler)
			} else {
				text.Draw(screen, line, face, x, y, clr)
			}
			x += adv
		}
	}
	if g.s.ed.HasFocus() && !g.s.Preview.IsPreviewing().Get() {
		g.fillScreenRect(screen, x+1, y-lineH*3/4, 2, lineH, g.theme.Accent)
	}
}

func (g *Game) drawTooltip(screen *ebiten.Image) {
	var rows []string
	switch {
	case g.s.Mentions.IsOpen():
		for _, u := range g.s.Mentions.Filtered() {
			row := u.DisplayName()
			if u.Username != "" {
				row += "  @" + u.Username
			}
			rows = append(rows, row)
		}
	case g.s.Emoji.IsOpen():
		for _, e := range g.s.Emoji.Emoji() {
			rows = append(rows, e.Native+"  "+e.Shortcode())
		}
		for _, ce := range g.s.Emoji.CustomEmoji() {
			rows = append(rows, ce.Emoji+"  "+ce.Title)
		}
	}
	face := g.fonts.face(12, g.scale(), false, false, false)
	tip := g.layout.Tooltip
	for i, row := range rows {
		text.Draw(screen, row, face, tip.X+8, tip.Y+(i+1)*g.layout.TooltipH-8, g.theme.Text)
	}
}

func (g *Game) fillScreenRect(screen *ebiten.Image, x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	img := ebiten.NewImage(w, h)
	img.Fill(c)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	screen.DrawImage(img, op)
	img.Deallocate()
}
