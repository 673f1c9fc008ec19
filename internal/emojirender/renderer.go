package emojirender

import (
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"richinput/internal/dom"
	"richinput/internal/render"
	"richinput/internal/schedule"
)

const (
	ClassCustomEmoji  = "custom-emoji"
	ClassSharedCanvas = "shared-canvas"

	AttrUniqueID   = "data-unique-id"
	AttrDocumentID = "data-document-id"

	DefaultResizeDelay = 300 * time.Millisecond
	DefaultSizePx      = 20
)

// Context hands out renderer prefixes. Renderers sharing a player factory
// should share a Context so their view ids never collide.
type Context struct {
	next int
}

func NewContext() *Context { return &Context{} }

func (c *Context) nextPrefix() string {
	p := "EditableEmojiRender_" + strconv.Itoa(c.next) + "_"
	c.next++
	return p
}

type Rect struct {
	X, Y, W, H float64
}

// Layout reports on-screen bounds of nodes in CSS pixels.
type Layout interface {
	Bounds(n *html.Node) (Rect, bool)
}

type LayoutFunc func(n *html.Node) (Rect, bool)

func (f LayoutFunc) Bounds(n *html.Node) (Rect, bool) { return f(n) }

type Option func(*Renderer)

func WithContext(c *Context) Option {
	return func(r *Renderer) {
		if c != nil {
			r.ctx = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option { return func(r *Renderer) { r.log = l } }

func WithScheduler(s *schedule.Scheduler) Option {
	return func(r *Renderer) {
		if s != nil {
			r.sched = s
		}
	}
}

func WithResolver(m MediaResolver) Option { return func(r *Renderer) { r.resolver = m } }

func WithFactory(f PlayerFactory) Option {
	return func(r *Renderer) {
		if f != nil {
			r.factory = f
		}
	}
}

func WithLayout(l Layout) Option { return func(r *Renderer) { r.layout = l } }

func WithResizeDelay(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.resizeDelay = d
		}
	}
}

func WithSize(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.sizePx = px
		}
	}
}

// WithAnimation sets whether players may play at all.
func WithAnimation(enabled bool) Option { return func(r *Renderer) { r.canPlay = enabled } }

// Renderer keeps one player per custom emoji placeholder under root and
// draws them into shared canvases laid over the editable surface.
type Renderer struct {
	doc  *dom.Document
	root *html.Node

	ctx         *Context
	prefix      string
	log         zerolog.Logger
	sched       *schedule.Scheduler
	resolver    MediaResolver
	factory     PlayerFactory
	layout      Layout
	resizeDelay time.Duration
	sizePx      int

	SharedCanvas      *html.Node
	SharedCanvasHQ    *html.Node
	AbsoluteContainer *html.Node

	canvas   *render.FrameBuffer
	canvasHQ *render.FrameBuffer

	players     map[string]Player
	customColor string
	tint        *color.RGBA

	container *html.Node
	detachFns []func()
	resize    *schedule.Debouncer

	canPlay bool
	frozen  bool
}

func New(doc *dom.Document, root *html.Node, opts ...Option) *Renderer {
	r := &Renderer{
		doc:         doc,
		root:        root,
		log:         zerolog.Nop(),
		factory:     FrameFactory{},
		resizeDelay: DefaultResizeDelay,
		sizePx:      DefaultSizePx,
		players:     map[string]Player{},
		canPlay:     true,
		canvas:      render.NewFrameBuffer(1, 1),
		canvasHQ:    render.NewFrameBuffer(1, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.ctx == nil {
		r.ctx = NewContext()
	}
	if r.sched == nil {
		r.sched = schedule.New(nil)
	}
	r.prefix = r.ctx.nextPrefix()
	r.resize = schedule.NewDebouncer(r.sched, r.resizeDelay)

	r.SharedCanvas = dom.NewElement("canvas", html.Attribute{Key: "class", Val: ClassSharedCanvas})
	r.SharedCanvasHQ = dom.NewElement("canvas", html.Attribute{Key: "class", Val: ClassSharedCanvas})
	r.AbsoluteContainer = dom.NewElement("div", html.Attribute{Key: "class", Val: ClassSharedCanvas})
	return r
}

func (r *Renderer) Prefix() string { return r.prefix }

// Nodes are the overlay elements appended next to the editable root.
func (r *Renderer) Nodes() []*html.Node {
	return []*html.Node{r.SharedCanvas, r.SharedCanvasHQ, r.AbsoluteContainer}
}

func (r *Renderer) Canvases() (normal, hq *render.FrameBuffer) { return r.canvas, r.canvasHQ }

func (r *Renderer) IsAttached() bool { return r.container != nil }

func (r *Renderer) AttachTo(container *html.Node) {
	if r.container != nil || container == nil {
		return
	}
	r.container = container
	for _, n := range r.Nodes() {
		container.AppendChild(n)
	}

	r.listen("resize", func(*dom.Event) { r.resize.Call(r.Synchronize) })
	r.detachFns = append(r.detachFns, r.resize.Cancel)
	r.listen("dprchange", func(*dom.Event) { r.Synchronize() })
	r.listen("visibilitychange", func(ev *dom.Event) {
		if ev.Hidden {
			r.freeze()
			return
		}
		r.sched.RequestMutation(r.unfreeze)
	})

	r.Synchronize()
}

func (r *Renderer) listen(typ string, fn func(*dom.Event)) {
	r.detachFns = append(r.detachFns, r.doc.AddEventListener(nil, typ, fn))
}

func (r *Renderer) DetachFrom(container *html.Node) {
	for len(r.detachFns) > 0 {
		fn := r.detachFns[len(r.detachFns)-1]
		r.detachFns = r.detachFns[:len(r.detachFns)-1]
		fn()
	}
	r.clearPlayers(r.PlayerIDs())
	for _, n := range r.Nodes() {
		if n.Parent == container || container == nil {
			dom.Detach(n)
		}
	}
	r.container = nil
}

// SetCustomColor switches the tint used by text-colored emoji. Player ids
// include the color, so every tinted player is rebuilt.
func (r *Renderer) SetCustomColor(hex string) {
	if hex == r.customColor {
		return
	}
	r.customColor = hex
	r.tint = nil
	if c, ok := render.ParseHexColor(hex); ok {
		r.tint = &c
	}
	r.Synchronize()
}

func (r *Renderer) CustomColor() string { return r.customColor }

func (r *Renderer) SetCanPlay(enabled bool) {
	if enabled == r.canPlay {
		return
	}
	r.canPlay = enabled
	if !enabled {
		r.freeze()
		r.frozen = false
		return
	}
	r.unfreeze()
}

func (r *Renderer) PlayerIDs() []string {
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Renderer) Player(viewID string) (Player, bool) {
	p, ok := r.players[viewID]
	return p, ok
}

func (r *Renderer) ViewID(uniqueID string) string {
	return r.prefix + uniqueID + r.customColor
}

func (r *Renderer) clearPlayers(ids []string) {
	for _, id := range ids {
		p, ok := r.players[id]
		if !ok {
			continue
		}
		delete(r.players, id)
		p.Destroy()
	}
}

// Synchronize reconciles players with the placeholders currently in the
// tree: existing players move, new placeholders get a player and players
// whose placeholder is gone are destroyed.
func (r *Renderer) Synchronize() {
	if r.container == nil {
		return
	}
	r.resizeCanvases()

	stale := make(map[string]bool, len(r.players))
	for id := range r.players {
		stale[id] = true
	}

	for _, el := range dom.QueryAll(r.root, dom.ByClass(ClassCustomEmoji)) {
		uniqueID := dom.AttrOr(el, AttrUniqueID, "")
		if uniqueID == "" {
			continue
		}
		viewID := r.ViewID(uniqueID)
		documentID := dom.AttrOr(el, AttrDocumentID, "")
		delete(stale, viewID)

		if r.resolver == nil {
			continue
		}
		media, ok := r.resolver.Resolve(documentID)
		if !ok {
			continue
		}

		pos := r.position(el)
		if p, ok := r.players[viewID]; ok {
			p.UpdatePosition(pos.X, pos.Y)
			continue
		}

		canvas := r.canvas
		if media.HighQuality {
			canvas = r.canvasHQ
		}
		req := PlayerRequest{
			ViewID:    viewID,
			RenderID:  r.renderID(documentID),
			Media:     media,
			Position:  pos,
			SizePx:    int(math.Round(float64(r.sizePx) * r.doc.PixelRatio())),
			Canvas:    canvas,
			Container: r.AbsoluteContainer,
		}
		if r.tint != nil {
			c := *r.tint
			req.Tint = &c
		}
		player, err := r.factory.NewPlayer(req)
		if err != nil {
			r.log.Warn().Err(err).Str("document_id", documentID).Msg("[emoji] player not created")
			continue
		}
		r.players[viewID] = player
		if r.canPlay {
			r.sched.RequestMutation(func() {
				if r.players[viewID] == player && !r.frozen && r.canPlay {
					player.Play()
				}
			})
		}
	}

	ids := make([]string, 0, len(stale))
	for id := range stale {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	r.clearPlayers(ids)
}

func (r *Renderer) renderID(documentID string) string {
	parts := []string{r.prefix, documentID, r.customColor, strconv.FormatFloat(r.doc.PixelRatio(), 'f', -1, 64)}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "_")
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func (r *Renderer) position(el *html.Node) Point {
	if r.layout == nil {
		return Point{}
	}
	cb, ok := r.layout.Bounds(r.SharedCanvas)
	if !ok || cb.W <= 0 || cb.H <= 0 {
		return Point{}
	}
	eb, ok := r.layout.Bounds(el)
	if !ok {
		return Point{}
	}
	return Point{X: round4((eb.X - cb.X) / cb.W), Y: round4((eb.Y - cb.Y) / cb.H)}
}

func (r *Renderer) resizeCanvases() {
	if r.layout == nil {
		return
	}
	cb, ok := r.layout.Bounds(r.SharedCanvas)
	if !ok {
		return
	}
	dpr := r.doc.PixelRatio()
	w, h := int(math.Round(cb.W*dpr)), int(math.Round(cb.H*dpr))
	r.canvas.Resize(w, h)
	r.canvasHQ.Resize(w, h)
}

func (r *Renderer) freeze() {
	r.frozen = true
	for _, id := range r.PlayerIDs() {
		r.players[id].Pause()
	}
}

func (r *Renderer) unfreeze() {
	r.frozen = false
	if !r.canPlay {
		return
	}
	for _, id := range r.PlayerIDs() {
		r.players[id].Play()
	}
}

// Render clears the shared canvases and paints every drawing player.
func (r *Renderer) Render() {
	now := r.sched.Clock().Now()
	r.canvas.Clear(color.RGBA{})
	r.canvasHQ.Clear(color.RGBA{})
	for _, id := range r.PlayerIDs() {
		if d, ok := r.players[id].(Drawer); ok {
			d.Draw(now)
		}
	}
}
